package nav

import (
	"github.com/sarahckohl/mousechase/game/chase"
	"go.uber.org/zap"
)

// Mover walks one agent along routes from a Service. It implements
// chase.Navigator and is driven by Step from the room goroutine.
type Mover struct {
	svc      *Service
	logger   *zap.Logger
	pos      chase.Vec3
	speed    float64
	stopping float64

	route   *Route
	next    int
	stopped bool
	moving  bool
}

var _ chase.Navigator = (*Mover)(nil)

// NewMover places a mover at pos.
func NewMover(svc *Service, pos chase.Vec3, speed, stopping float64, logger *zap.Logger) *Mover {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mover{svc: svc, logger: logger, pos: pos, speed: speed, stopping: stopping}
}

func (m *Mover) Position() chase.Vec3 { return m.pos }

func (m *Mover) Speed() float64 { return m.speed }

// SetSpeed changes the walking speed from the next Step on.
func (m *Mover) SetSpeed(speed float64) { m.speed = speed }

// Moving reports whether the last Step moved the agent.
func (m *Mover) Moving() bool { return m.moving }

func (m *Mover) SetDestination(to chase.Vec3) chase.Route {
	m.route = m.svc.RequestRoute(m.pos, to)
	m.next = 1
	m.moving = false
	return m.route
}

func (m *Mover) Route() chase.Route {
	if m.route == nil {
		return nil
	}
	return m.route
}

func (m *Mover) CalculateRoute(to chase.Vec3) chase.Route {
	return m.svc.CalculateRoute(m.pos, to)
}

func (m *Mover) Stop() {
	m.stopped = true
	m.moving = false
}

func (m *Mover) Resume() { m.stopped = false }

func (m *Mover) Warp(to chase.Vec3) {
	m.pos = to
	m.route = nil
	m.next = 0
	m.moving = false
}

// Arrived is true with no committed route, or once the agent has come to
// rest within stopping distance of the route's destination.
func (m *Mover) Arrived() bool {
	if m.route == nil {
		return true
	}
	if m.route.Status() == chase.RoutePending || m.moving {
		return false
	}
	return m.pos.HorizontalDistance(m.route.Destination()) <= m.stopping
}

// Remaining is the distance left along the committed route.
func (m *Mover) Remaining() float64 {
	if m.route == nil || m.route.Status() != chase.RouteComplete {
		return 0
	}
	wps := m.route.waypoints
	total := 0.0
	prev := m.pos
	for i := m.next; i < len(wps); i++ {
		total += prev.Distance(wps[i])
		prev = wps[i]
	}
	return total
}

// Step advances the agent by dt seconds. Before moving, the legs still
// ahead are checked against the grid; if any crosses an obstacle the route
// is invalidated and the agent stays put.
func (m *Mover) Step(dt float64) {
	m.moving = false
	if m.stopped || m.route == nil || m.route.Status() != chase.RouteComplete {
		return
	}
	wps := m.route.waypoints
	if m.next >= len(wps) {
		return
	}

	grid := m.svc.Grid()
	prev := m.pos
	for i := m.next; i < len(wps); i++ {
		if !grid.SegmentClear(prev, wps[i]) {
			m.route.Invalidate()
			m.logger.Debug("route blocked ahead", zap.Int("leg", i))
			return
		}
		prev = wps[i]
	}

	budget := m.speed * dt
	for budget > 0 && m.next < len(wps) {
		target := wps[m.next]
		d := m.pos.Distance(target)
		m.moving = true
		if d <= budget {
			m.pos = target
			budget -= d
			m.next++
			continue
		}
		t := budget / d
		m.pos = chase.Vec3{
			X: m.pos.X + (target.X-m.pos.X)*t,
			Y: m.pos.Y + (target.Y-m.pos.Y)*t,
			Z: m.pos.Z + (target.Z-m.pos.Z)*t,
		}
		budget = 0
	}
}
