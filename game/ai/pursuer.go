package ai

import (
	"math/rand"
	"time"

	"github.com/sarahckohl/mousechase/game/chase"
)

// BrainConfig holds the pursuer's tunables.
type BrainConfig struct {
	SlowSpeed      float64
	FastSpeed      float64
	ViewRadius     float64
	StrikeDistance float64
	StrikeCooldown time.Duration
	RepathInterval time.Duration
}

// Brain drives the pursuer with a behavior tree:
//
//	strike when prey is within reach and the paw is ready,
//	otherwise chase the nearest visible prey at FastSpeed,
//	otherwise wander at SlowSpeed.
type Brain struct {
	cfg    BrainConfig
	tree   *BehaviorTree
	ctx    *AIContext
	strike func(PreyInfo)
}

// NewBrain builds the pursuer's tree. strike is called once per connecting
// strike with the prey that was hit.
func NewBrain(cfg BrainConfig, body Body, senses Senses, rng *rand.Rand, strike func(PreyInfo)) *Brain {
	b := &Brain{
		cfg:    cfg,
		ctx:    &AIContext{Body: body, Senses: senses, Rng: rng},
		strike: strike,
	}
	b.tree = &BehaviorTree{Root: &Selector{Children: []Node{
		&Sequence{Children: []Node{
			&Condition{Fn: b.preyInReach},
			&Inverter{Child: &Condition{Fn: b.coolingDown}},
			&Action{Fn: b.doStrike},
		}},
		&Sequence{Children: []Node{
			&Condition{Fn: b.preySpotted},
			&Action{Fn: b.doChase},
		}},
		&Action{Fn: b.doWander},
	}}}
	return b
}

// Tick senses the room and runs one frame of the tree.
func (b *Brain) Tick(dt float64) Status {
	c := b.ctx
	c.Delta = dt
	if c.cooldown > 0 {
		c.cooldown -= dt
	}
	if c.repath > 0 {
		c.repath -= dt
	}
	c.Prey = c.Senses.PreyInView(c.Body.Position(), b.cfg.ViewRadius)
	return b.tree.Tick(c)
}

// State is the state chosen on the last Tick.
func (b *Brain) State() State { return b.ctx.State }

// Chasing reports whether the last Tick was spent chasing or striking.
func (b *Brain) Chasing() bool { return b.ctx.State != StateWander }

func (b *Brain) preyInReach(c *AIContext) bool {
	_, d, ok := c.nearest()
	return ok && d <= b.cfg.StrikeDistance
}

func (b *Brain) coolingDown(c *AIContext) bool {
	return c.cooldown > 0
}

func (b *Brain) preySpotted(c *AIContext) bool {
	return len(c.Prey) > 0
}

func (b *Brain) doStrike(c *AIContext) Status {
	p, _, _ := c.nearest()
	c.State = StateStrike
	c.cooldown = b.cfg.StrikeCooldown.Seconds()
	if b.strike != nil {
		b.strike(p)
	}
	return StatusSuccess
}

func (b *Brain) doChase(c *AIContext) Status {
	p, _, _ := c.nearest()
	c.Body.SetSpeed(b.cfg.FastSpeed)
	retarget := c.Target == nil || c.Target.ID != p.ID
	if retarget || c.repath <= 0 {
		c.Body.SetDestination(p.Position)
		c.repath = b.cfg.RepathInterval.Seconds()
	}
	c.Target = &p
	c.State = StateChase
	c.hasGoal = false
	return StatusRunning
}

func (b *Brain) doWander(c *AIContext) Status {
	c.Body.SetSpeed(b.cfg.SlowSpeed)
	c.Target = nil
	c.State = StateWander
	if !c.hasGoal || c.Body.Arrived() || routeBroken(c.Body) {
		c.goal = c.Senses.RandomPoint(c.Rng)
		c.hasGoal = true
		c.Body.SetDestination(c.goal)
	}
	return StatusRunning
}

func routeBroken(body Body) bool {
	r := body.Route()
	return r == nil || r.Status() == chase.RouteInvalid
}
