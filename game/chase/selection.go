package chase

import (
	"math/rand"

	"go.uber.org/zap"
)

// DefaultMaxSelectAttempts bounds random refuge sampling before the
// controller settles for whatever it drew last.
const DefaultMaxSelectAttempts = 100

// sample draws refuges uniformly until accept passes or maxAttempts draws
// have been rejected. In the second case the last draw is returned with
// degraded set.
func sample(rng *rand.Rand, refuges []Refuge, maxAttempts int, accept func(Refuge) bool) (r Refuge, attempts int, degraded bool) {
	for attempts = 1; ; attempts++ {
		r = refuges[rng.Intn(len(refuges))]
		if accept(r) {
			return r, attempts, false
		}
		if attempts >= maxAttempts {
			return r, attempts, true
		}
	}
}

func sameRefuge(a, b Refuge) bool {
	return a != nil && b != nil && a.ID() == b.ID()
}

// selectRefuge picks an open refuge other than the current target.
func (c *Controller) selectRefuge(refuges []Refuge) Refuge {
	r, attempts, degraded := sample(c.rng, refuges, c.cfg.MaxSelectAttempts, func(r Refuge) bool {
		return r.IsOpen() && !sameRefuge(r, c.target)
	})
	c.selected(r, attempts, degraded, false)
	return r
}

// selectRefugeMistake is used when at most one refuge is open. It ignores
// openness and only avoids the current target.
func (c *Controller) selectRefugeMistake(refuges []Refuge) Refuge {
	r, attempts, degraded := sample(c.rng, refuges, c.cfg.MaxSelectAttempts, func(r Refuge) bool {
		return !sameRefuge(r, c.target)
	})
	c.selected(r, attempts, degraded, true)
	return r
}

func (c *Controller) selected(r Refuge, attempts int, degraded, mistake bool) {
	if degraded {
		c.logger.Warn("refuge selection degraded",
			zap.String("refuge", r.ID()),
			zap.Int("attempts", attempts),
			zap.Bool("mistake", mistake))
		c.emit(Event{Kind: EventSelectionDegraded, RefugeID: r.ID(), Attempts: attempts})
	}
	c.logger.Debug("refuge selected",
		zap.String("refuge", r.ID()),
		zap.Int("attempts", attempts),
		zap.Bool("mistake", mistake))
	c.emit(Event{Kind: EventRefugeSelected, RefugeID: r.ID(), Attempts: attempts})
}

// attemptWarp relocates the agent straight to a random open refuge it can
// reach. It never fires while at most one refuge is open.
func (c *Controller) attemptWarp(refuges []Refuge) {
	if !c.cfg.WarpEnabled {
		return
	}
	if c.registry.OpenCount() <= 1 {
		return
	}
	for attempt := 1; attempt <= c.cfg.MaxSelectAttempts; attempt++ {
		r := refuges[c.rng.Intn(len(refuges))]
		if !r.IsOpen() {
			continue
		}
		if route := c.nav.CalculateRoute(r.Position()); route == nil || route.Status() != RouteComplete {
			continue
		}
		c.target = r
		c.nav.Warp(r.Position())
		c.logger.Debug("warped to refuge", zap.String("refuge", r.ID()), zap.Int("attempts", attempt))
		c.emit(Event{Kind: EventWarped, RefugeID: r.ID(), Attempts: attempt})
		return
	}
	c.logger.Warn("warp skipped, no reachable open refuge", zap.Int("attempts", c.cfg.MaxSelectAttempts))
}
