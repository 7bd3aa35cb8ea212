package ai

import (
	"math/rand"
	"testing"
	"time"

	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneRoute struct{ status chase.RouteStatus }

func (r doneRoute) Status() chase.RouteStatus { return r.status }
func (r doneRoute) Waypoints() []chase.Vec3   { return nil }

type fakeBody struct {
	pos     chase.Vec3
	speed   float64
	dests   []chase.Vec3
	route   chase.Route
	arrived bool
}

func (b *fakeBody) Position() chase.Vec3 { return b.pos }
func (b *fakeBody) SetSpeed(s float64)   { b.speed = s }
func (b *fakeBody) Route() chase.Route   { return b.route }
func (b *fakeBody) Arrived() bool        { return b.arrived }
func (b *fakeBody) SetDestination(to chase.Vec3) chase.Route {
	b.dests = append(b.dests, to)
	b.route = doneRoute{chase.RouteComplete}
	b.arrived = false
	return b.route
}

type fakeSenses struct {
	prey   []PreyInfo
	points int
}

func (s *fakeSenses) PreyInView(from chase.Vec3, radius float64) []PreyInfo {
	var out []PreyInfo
	for _, p := range s.prey {
		if from.HorizontalDistance(p.Position) <= radius {
			out = append(out, p)
		}
	}
	return out
}

func (s *fakeSenses) RandomPoint(rng *rand.Rand) chase.Vec3 {
	s.points++
	return chase.Vec3{X: float64(rng.Intn(10)), Z: float64(rng.Intn(10))}
}

func newBrain(body *fakeBody, senses *fakeSenses, strikes *[]string) *Brain {
	cfg := BrainConfig{
		SlowSpeed:      2,
		FastSpeed:      8,
		ViewRadius:     10,
		StrikeDistance: 1,
		StrikeCooldown: time.Second,
		RepathInterval: 500 * time.Millisecond,
	}
	return NewBrain(cfg, body, senses, rand.New(rand.NewSource(42)), func(p PreyInfo) {
		*strikes = append(*strikes, p.ID)
	})
}

func TestBrain_WandersWithoutPrey(t *testing.T) {
	body := &fakeBody{}
	senses := &fakeSenses{}
	var strikes []string
	b := newBrain(body, senses, &strikes)

	assert.Equal(t, StatusRunning, b.Tick(0.1))
	assert.Equal(t, StateWander, b.State())
	assert.False(t, b.Chasing())
	assert.Equal(t, 2.0, body.speed)
	require.Len(t, body.dests, 1)

	// Keeps the goal until arrival.
	b.Tick(0.1)
	assert.Len(t, body.dests, 1)
	body.arrived = true
	b.Tick(0.1)
	assert.Len(t, body.dests, 2)
	assert.Equal(t, 2, senses.points)
}

func TestBrain_WanderRepicksOnBrokenRoute(t *testing.T) {
	body := &fakeBody{}
	senses := &fakeSenses{}
	var strikes []string
	b := newBrain(body, senses, &strikes)
	b.Tick(0.1)
	body.route = doneRoute{chase.RouteInvalid}
	b.Tick(0.1)
	assert.Len(t, body.dests, 2)
}

func TestBrain_ChasesNearestAtFastSpeed(t *testing.T) {
	body := &fakeBody{}
	senses := &fakeSenses{prey: []PreyInfo{
		{ID: "far", Position: chase.Vec3{X: 9}},
		{ID: "near", Position: chase.Vec3{X: 4}},
		{ID: "out", Position: chase.Vec3{X: 40}},
	}}
	var strikes []string
	b := newBrain(body, senses, &strikes)

	b.Tick(0.1)
	assert.Equal(t, StateChase, b.State())
	assert.True(t, b.Chasing())
	assert.Equal(t, 8.0, body.speed)
	require.Len(t, body.dests, 1)
	assert.Equal(t, chase.Vec3{X: 4}, body.dests[0])
	assert.Empty(t, strikes)

	// Repaths only after the interval.
	b.Tick(0.1)
	assert.Len(t, body.dests, 1)
	for i := 0; i < 5; i++ {
		b.Tick(0.1)
	}
	assert.Len(t, body.dests, 2)
}

func TestBrain_StrikesWithCooldown(t *testing.T) {
	body := &fakeBody{}
	senses := &fakeSenses{prey: []PreyInfo{{ID: "m1", Position: chase.Vec3{X: 0.5}}}}
	var strikes []string
	b := newBrain(body, senses, &strikes)

	b.Tick(0.1)
	assert.Equal(t, StateStrike, b.State())
	assert.Equal(t, []string{"m1"}, strikes)

	// Cooling down: chase instead.
	b.Tick(0.1)
	assert.Equal(t, StateChase, b.State())
	assert.Len(t, strikes, 1)

	for i := 0; i < 10; i++ {
		b.Tick(0.1)
	}
	assert.Len(t, strikes, 2)
}

func TestBrain_LosesPrey(t *testing.T) {
	body := &fakeBody{}
	senses := &fakeSenses{prey: []PreyInfo{{ID: "m1", Position: chase.Vec3{X: 5}}}}
	var strikes []string
	b := newBrain(body, senses, &strikes)
	b.Tick(0.1)
	require.Equal(t, StateChase, b.State())

	senses.prey = nil
	b.Tick(0.1)
	assert.Equal(t, StateWander, b.State())
	assert.Equal(t, 2.0, body.speed)
}

func TestBehaviorTree_Composites(t *testing.T) {
	succeed := &Action{Fn: func(*AIContext) Status { return StatusSuccess }}
	fail := &Action{Fn: func(*AIContext) Status { return StatusFailure }}
	run := &Action{Fn: func(*AIContext) Status { return StatusRunning }}
	ctx := &AIContext{}

	assert.Equal(t, StatusSuccess, (&Selector{Children: []Node{fail, succeed}}).Tick(ctx))
	assert.Equal(t, StatusRunning, (&Selector{Children: []Node{fail, run, succeed}}).Tick(ctx))
	assert.Equal(t, StatusFailure, (&Selector{Children: []Node{fail}}).Tick(ctx))
	assert.Equal(t, StatusFailure, (&Sequence{Children: []Node{succeed, fail}}).Tick(ctx))
	assert.Equal(t, StatusRunning, (&Sequence{Children: []Node{succeed, run, fail}}).Tick(ctx))
	assert.Equal(t, StatusSuccess, (&Sequence{Children: []Node{succeed}}).Tick(ctx))
	assert.Equal(t, StatusFailure, (&Inverter{Child: succeed}).Tick(ctx))
	assert.Equal(t, StatusRunning, (&Inverter{Child: run}).Tick(ctx))
	assert.Equal(t, StatusFailure, (&BehaviorTree{}).Tick(ctx))
	assert.Equal(t, "running", StatusRunning.String())
}
