package chase

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Mode is the coarse behavior the controller is in.
type Mode int

const (
	ModeNormal     Mode = iota // fleeing with safety checks
	ModeLastRefuge             // at most one refuge open; safety ignored
	ModeHiding                 // at a refuge, waiting for the pursuer to leave
	ModeRerouting              // target lost mid-transit, planning a new one
	ModeExhausted              // no refuges exist; paused
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeLastRefuge:
		return "last_refuge"
	case ModeHiding:
		return "hiding"
	case ModeRerouting:
		return "rerouting"
	case ModeExhausted:
		return "exhausted"
	}
	return "unknown"
}

// phase is the suspension point the run loop is parked at.
type phase int

const (
	phaseDecide phase = iota
	phaseWait
	phasePlanning
	phaseRunning
	phaseHiding
)

// EventKind names a controller event.
type EventKind string

const (
	EventRefugeSelected    EventKind = "refuge_selected"
	EventSelectionDegraded EventKind = "selection_degraded"
	EventRouteCommitted    EventKind = "route_committed"
	EventRouteUnsafe       EventKind = "route_unsafe"
	EventRouteInvalid      EventKind = "route_invalid"
	EventRerouted          EventKind = "rerouted"
	EventWarped            EventKind = "warped"
	EventArrived           EventKind = "arrived"
	EventEmerged           EventKind = "emerged"
	EventExhausted         EventKind = "exhausted"
)

// Event is emitted at each decision the controller makes.
type Event struct {
	Kind       EventKind
	AgentID    string
	RefugeID   string
	Mode       Mode
	PathLength float64
	Waypoints  []Vec3
	Attempts   int
}

// Config holds the tunables of one controller.
type Config struct {
	MinimumWait       time.Duration
	HideDistance      float64
	MaxSelectAttempts int
	WarpEnabled       bool
}

// Controller runs the refuge-seeking behavior of one fleeing agent.
//
// The behavior is an endless loop with three kinds of suspension: a fixed
// wait, waiting for a route computation, and waiting for arrival. Each is
// an explicit phase whose resumption condition is checked once per Tick.
// A Controller is driven from a single goroutine.
type Controller struct {
	id       string
	nav      Navigator
	pursuer  Pursuer
	registry Registry
	rng      *rand.Rand
	cfg      Config
	logger   *zap.Logger
	onEvent  func(Event)

	mode       Mode
	phase      phase
	target     Refuge
	route      Route
	waypoints  []Vec3
	pathLength float64
	waitUntil  time.Time
	mistake    bool
	rerouting  bool
	stopped    bool
}

// NewController builds a controller. onEvent may be nil.
func NewController(id string, nav Navigator, pursuer Pursuer, registry Registry, rng *rand.Rand, cfg Config, logger *zap.Logger, onEvent func(Event)) *Controller {
	if cfg.MaxSelectAttempts <= 0 {
		cfg.MaxSelectAttempts = DefaultMaxSelectAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		id:       id,
		nav:      nav,
		pursuer:  pursuer,
		registry: registry,
		rng:      rng,
		cfg:      cfg,
		logger:   logger,
		onEvent:  onEvent,
	}
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Mode() Mode { return c.mode }

// Target is the refuge currently targeted, or nil before the first pick.
func (c *Controller) Target() Refuge { return c.target }

// PathLength is the length of the last computed route.
func (c *Controller) PathLength() float64 { return c.pathLength }

// Waypoints returns the last computed route geometry.
func (c *Controller) Waypoints() []Vec3 { return c.waypoints }

// Stop ends the run loop. Pending waits are simply never resumed.
func (c *Controller) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	c.nav.Stop()
}

// Stopped reports whether Stop has been called.
func (c *Controller) Stopped() bool { return c.stopped }

// Tick advances the run loop by at most one suspension point.
func (c *Controller) Tick(now time.Time) {
	if c.stopped {
		return
	}
	refuges := c.registry.Refuges()
	if len(refuges) == 0 {
		if c.mode != ModeExhausted {
			c.logger.Warn("agent paused", zap.Error(ErrNoRefuges))
			c.nav.Stop()
			c.mode = ModeExhausted
			c.emit(Event{Kind: EventExhausted})
		}
		return
	}
	if c.mode == ModeExhausted {
		c.logger.Info("refuges available again, resuming")
		c.phase = phaseDecide
		c.target = nil
	}

	switch c.phase {
	case phaseDecide:
		c.decide(now, refuges)
	case phaseWait:
		if now.Before(c.waitUntil) {
			return
		}
		if c.mistake {
			c.target = c.selectRefugeMistake(refuges)
		} else {
			c.target = c.selectRefuge(refuges)
		}
		c.requestRoute()
	case phasePlanning:
		c.awaitRoute()
	case phaseRunning:
		c.runUntilArrival(refuges)
	case phaseHiding:
		c.keepHiding()
	}
}

// decide is the top of the run loop.
func (c *Controller) decide(now time.Time, refuges []Refuge) {
	if c.registry.OpenCount() <= 1 {
		c.mode = ModeLastRefuge
		c.mistake = true
	} else {
		c.mode = ModeNormal
		c.mistake = false
		c.attemptWarp(refuges)
	}
	c.waitUntil = now.Add(c.cfg.MinimumWait)
	c.phase = phaseWait
}

func (c *Controller) requestRoute() {
	c.route = c.nav.SetDestination(c.target.Position())
	c.nav.Stop()
	c.phase = phasePlanning
}

// awaitRoute resumes once the route computation has finished. The path
// length is always recomputed from the waypoints; the navigator's own
// remaining-distance figure is not used.
func (c *Controller) awaitRoute() {
	if c.route.Status() == RoutePending {
		return
	}
	c.waypoints = c.route.Waypoints()
	c.pathLength = PathLength(c.waypoints)

	if c.rerouting {
		c.rerouting = false
		c.mode = ModeNormal
		if c.mistake {
			c.mode = ModeLastRefuge
		}
		c.nav.Resume()
		c.phase = phaseRunning
		c.emit(Event{Kind: EventRerouted, RefugeID: c.target.ID(), PathLength: c.pathLength, Waypoints: c.waypoints})
		return
	}
	if c.mistake {
		if c.route.Status() != RouteComplete {
			c.abandonMistakeRoute()
			return
		}
		c.nav.Resume()
		c.phase = phaseRunning
		c.emit(Event{Kind: EventRouteCommitted, RefugeID: c.target.ID(), PathLength: c.pathLength, Waypoints: c.waypoints})
		return
	}
	if c.route.Status() != RouteComplete {
		c.target.SetBlocked(true)
		c.logger.Info("route incomplete, refuge blocked", zap.String("refuge", c.target.ID()))
		c.emit(Event{Kind: EventRouteInvalid, RefugeID: c.target.ID()})
		c.phase = phaseDecide
		return
	}
	if PathIsSafe(c.waypoints, c.nav.Speed(), c.pursuer.Position(), c.pursuer.TopSpeed()) {
		c.nav.Resume()
		c.phase = phaseRunning
		c.logger.Debug("route committed",
			zap.String("refuge", c.target.ID()),
			zap.Float64("path_length", c.pathLength))
		c.emit(Event{Kind: EventRouteCommitted, RefugeID: c.target.ID(), PathLength: c.pathLength, Waypoints: c.waypoints})
		return
	}
	c.nav.Stop()
	c.logger.Debug("route unsafe", zap.String("refuge", c.target.ID()), zap.Float64("path_length", c.pathLength))
	c.emit(Event{Kind: EventRouteUnsafe, RefugeID: c.target.ID(), PathLength: c.pathLength})
	c.phase = phaseDecide
}

// runUntilArrival polls for arrival. Outside the last-refuge policy it
// mirrors route completeness into the target's blocked flag and picks a
// new refuge as soon as the route breaks or the target stops being open.
// Under the last-refuge policy a broken route sends the agent back to the
// top of the run loop.
func (c *Controller) runUntilArrival(refuges []Refuge) {
	if c.nav.Arrived() {
		c.mode = ModeHiding
		c.phase = phaseHiding
		c.emit(Event{Kind: EventArrived, RefugeID: c.target.ID()})
		return
	}

	status := RouteInvalid
	if r := c.nav.Route(); r != nil {
		status = r.Status()
	}
	if c.mistake {
		if status != RouteComplete {
			c.abandonMistakeRoute()
		}
		return
	}

	c.target.SetBlocked(status != RouteComplete)
	if status == RouteComplete && c.target.IsOpen() {
		return
	}

	c.logger.Debug("rerouting while out of refuge",
		zap.String("refuge", c.target.ID()),
		zap.Stringer("route", status),
		zap.Bool("open", c.target.IsOpen()))
	c.mode = ModeRerouting
	c.rerouting = true
	if c.registry.OpenCount() <= 1 {
		c.target = c.selectRefugeMistake(refuges)
	} else {
		c.target = c.selectRefuge(refuges)
	}
	c.requestRoute()
}

// abandonMistakeRoute stops the agent and restarts the run loop, which
// waits MinimumWait before picking again.
func (c *Controller) abandonMistakeRoute() {
	c.nav.Stop()
	c.logger.Debug("last-refuge route incomplete, replanning", zap.String("refuge", c.target.ID()))
	c.emit(Event{Kind: EventRouteInvalid, RefugeID: c.target.ID()})
	c.phase = phaseDecide
}

// keepHiding holds the agent at its refuge while the pursuer is within
// HideDistance.
func (c *Controller) keepHiding() {
	if c.pursuer.Position().Distance(c.nav.Position()) <= c.cfg.HideDistance {
		return
	}
	c.emit(Event{Kind: EventEmerged, RefugeID: c.target.ID()})
	c.phase = phaseDecide
}

func (c *Controller) emit(ev Event) {
	if c.onEvent == nil {
		return
	}
	ev.AgentID = c.id
	ev.Mode = c.mode
	c.onEvent(ev)
}
