package chase

// PathLength sums the segment lengths of a route. Accumulation stops at
// the first waypoint equal to the final one, so a route that doubles back
// onto its end point is not over-counted.
func PathLength(waypoints []Vec3) float64 {
	n := len(waypoints)
	if n < 2 {
		return 0
	}
	last := waypoints[n-1]
	length := 0.0
	for i := 0; i < n-1; i++ {
		if waypoints[i] == last {
			break
		}
		length += waypoints[i].Distance(waypoints[i+1])
	}
	return length
}

// PathIsSafe walks the route segment by segment and races the fleeing agent
// against the pursuer. At waypoint i the agent needs the cumulative length
// through segment i at selfSpeed; the pursuer needs its horizontal distance
// to waypoint i at pursuerSpeed. If the pursuer is strictly faster at any
// waypoint the route is unsafe.
func PathIsSafe(waypoints []Vec3, selfSpeed float64, pursuerPos Vec3, pursuerSpeed float64) bool {
	n := len(waypoints)
	if n < 2 {
		return true
	}
	last := waypoints[n-1]
	length := 0.0
	for i := 0; i < n-1; i++ {
		if waypoints[i] == last {
			break
		}
		length += waypoints[i].Distance(waypoints[i+1])

		selfArrival := length / selfSpeed
		pursuerArrival := pursuerPos.HorizontalDistance(waypoints[i]) / pursuerSpeed
		if pursuerArrival < selfArrival {
			return false
		}
	}
	return true
}
