package chase

import (
	"errors"
	"math"
)

// ErrNoRefuges is reported when the registry has no refuges at all.
var ErrNoRefuges = errors.New("chase: no refuges registered")

// Vec3 is a world-space position. Y is up; the ground plane is X/Z.
type Vec3 struct {
	X, Y, Z float64
}

// Distance is the straight-line distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HorizontalDistance ignores the vertical axis.
func (v Vec3) HorizontalDistance(o Vec3) float64 {
	dx, dz := v.X-o.X, v.Z-o.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// RouteStatus is the state of an asynchronous route request.
type RouteStatus int

const (
	RoutePending RouteStatus = iota
	RouteComplete
	RouteInvalid
)

func (s RouteStatus) String() string {
	switch s {
	case RoutePending:
		return "pending"
	case RouteComplete:
		return "complete"
	case RouteInvalid:
		return "invalid"
	}
	return "unknown"
}

// Route is a handle to a route computation. Waypoints is only meaningful
// once Status is no longer RoutePending.
type Route interface {
	Status() RouteStatus
	Waypoints() []Vec3
}

// Navigator is the path-finding service bound to one moving agent.
type Navigator interface {
	Position() Vec3
	Speed() float64
	// SetDestination requests a route from the current position and makes it
	// the committed route. The agent holds still until Resume.
	SetDestination(to Vec3) Route
	// Route returns the committed route, or nil.
	Route() Route
	// CalculateRoute computes a route synchronously without committing it.
	CalculateRoute(to Vec3) Route
	Stop()
	Resume()
	// Warp relocates the agent instantly and drops the committed route.
	Warp(to Vec3)
	// Arrived reports whether the agent is within stopping tolerance of the
	// end of its committed route and no longer moving.
	Arrived() bool
}

// Pursuer is the read-only view of the chasing agent.
type Pursuer interface {
	Position() Vec3
	TopSpeed() float64
}

// Refuge is a safe destination as seen by one fleeing agent.
type Refuge interface {
	ID() string
	Position() Vec3
	// IsOpen is false when the refuge is blocked for this agent or occupied.
	IsOpen() bool
	IsBlocked() bool
	SetBlocked(blocked bool)
}

// Registry enumerates refuges for one fleeing agent. Implementations must
// keep the blocked flags of different agents independent.
type Registry interface {
	Refuges() []Refuge
	OpenCount() int
}
