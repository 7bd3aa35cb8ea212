package nav

import (
	"sync/atomic"

	"github.com/sarahckohl/mousechase/game/chase"
)

// Route is the result handle of a route request. It is written once by the
// computing goroutine and may later be invalidated by the mover that
// follows it.
type Route struct {
	from, to  chase.Vec3
	status    atomic.Int32
	done      chan struct{}
	waypoints []chase.Vec3
	cells     int
}

func newRoute(from, to chase.Vec3) *Route {
	return &Route{from: from, to: to, done: make(chan struct{})}
}

// Status is safe to call from any goroutine.
func (r *Route) Status() chase.RouteStatus {
	return chase.RouteStatus(r.status.Load())
}

// Waypoints returns the corners of the route: the start position, every
// turn and the destination. Nil while pending or when no path exists.
func (r *Route) Waypoints() []chase.Vec3 {
	if r.Status() == chase.RoutePending {
		return nil
	}
	out := make([]chase.Vec3, len(r.waypoints))
	copy(out, r.waypoints)
	return out
}

// Destination is the requested end point.
func (r *Route) Destination() chase.Vec3 { return r.to }

// Cells is the number of grid steps the route takes.
func (r *Route) Cells() int { return r.cells }

// Done is closed once the computation has finished.
func (r *Route) Done() <-chan struct{} { return r.done }

// Invalidate marks a complete route as broken.
func (r *Route) Invalidate() {
	r.status.CompareAndSwap(int32(chase.RouteComplete), int32(chase.RouteInvalid))
}

func (r *Route) finish(waypoints []chase.Vec3, cells int, status chase.RouteStatus) {
	r.waypoints = waypoints
	r.cells = cells
	r.status.Store(int32(status))
	close(r.done)
}
