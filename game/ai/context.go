package ai

import (
	"math/rand"

	"github.com/sarahckohl/mousechase/game/chase"
)

// State enumerates what the pursuer is doing.
type State int

const (
	StateWander State = iota // slow patrol between random points
	StateChase               // running at top speed towards prey
	StateStrike              // prey within reach, strike issued
)

func (s State) String() string {
	switch s {
	case StateWander:
		return "wander"
	case StateChase:
		return "chase"
	case StateStrike:
		return "strike"
	}
	return "unknown"
}

// Body is the movable part of the pursuer. Implemented by *nav.Mover.
type Body interface {
	Position() chase.Vec3
	SetSpeed(speed float64)
	SetDestination(to chase.Vec3) chase.Route
	Route() chase.Route
	Arrived() bool
}

// Senses abstracts the room for the AI layer.
// Implemented by *world.Room; declared here to avoid an import cycle.
type Senses interface {
	// PreyInView lists prey within radius of from that are in the open and
	// in line of sight.
	PreyInView(from chase.Vec3, radius float64) []PreyInfo
	// RandomPoint returns a walkable point to wander to.
	RandomPoint(rng *rand.Rand) chase.Vec3
}

// PreyInfo is the minimal prey data the AI needs.
type PreyInfo struct {
	ID       string
	Position chase.Vec3
}

// AIContext is passed to every node during a tick.
type AIContext struct {
	Body   Body
	Senses Senses
	Rng    *rand.Rand
	Delta  float64 // seconds since last tick

	State State
	Prey  []PreyInfo // sensed this tick
	// Target is the prey being chased, if any.
	Target *PreyInfo

	cooldown float64
	repath   float64
	goal     chase.Vec3
	hasGoal  bool
}

// nearest returns the closest sensed prey.
func (c *AIContext) nearest() (PreyInfo, float64, bool) {
	if len(c.Prey) == 0 {
		return PreyInfo{}, 0, false
	}
	pos := c.Body.Position()
	best, bestD := c.Prey[0], pos.HorizontalDistance(c.Prey[0].Position)
	for _, p := range c.Prey[1:] {
		if d := pos.HorizontalDistance(p.Position); d < bestD {
			best, bestD = p, d
		}
	}
	return best, bestD, true
}
