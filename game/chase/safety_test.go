package chase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHorizontalDistance_IgnoresHeight(t *testing.T) {
	a := Vec3{X: 0, Y: 0, Z: 0}
	b := Vec3{X: 3, Y: 50, Z: 4}
	assert.InDelta(t, 5.0, a.HorizontalDistance(b), 1e-9)
	assert.Greater(t, a.Distance(b), 50.0)
}

func TestPathLength(t *testing.T) {
	wps := []Vec3{{0, 0, 0}, {3, 0, 4}, {3, 0, 10}}
	assert.InDelta(t, 11.0, PathLength(wps), 1e-9)
	assert.Zero(t, PathLength(nil))
	assert.Zero(t, PathLength([]Vec3{{1, 2, 3}}))
}

func TestPathLength_StopsAtRepeatedEndPoint(t *testing.T) {
	// The first corner already equals the end point: nothing is accumulated.
	wps := []Vec3{{0, 0, 0}, {10, 0, 0}, {0, 0, 0}}
	assert.Zero(t, PathLength(wps))

	// The end point is already the second corner; accumulation stops there.
	wps = []Vec3{{0, 0, 0}, {5, 0, 0}, {5, 0, 5}, {5, 0, 0}}
	assert.InDelta(t, 5.0, PathLength(wps), 1e-9)
}

func TestPathIsSafe_Scenario(t *testing.T) {
	route := []Vec3{{0, 0, 0}, {40, 0, 0}}

	// Pursuer arrives in 50s, agent in 20s.
	assert.True(t, PathIsSafe(route, 2, Vec3{X: 0, Z: 100}, 2))
	// Pursuer arrives in 15s, agent in 20s.
	assert.False(t, PathIsSafe(route, 2, Vec3{X: 0, Z: 30}, 2))
}

func TestPathIsSafe_SingleSegmentMatchesClosedForm(t *testing.T) {
	cases := []struct {
		L, S, D, P float64
	}{
		{40, 2, 100, 2},
		{40, 2, 30, 2},
		{40, 2, 40, 2}, // tie: pursuer not strictly earlier
		{10, 1, 9.99, 1},
		{12, 3, 16, 4},
		{12, 3, 15.9, 4},
		{100, 0.2, 1000, 8},
		{5, 0.2, 150, 8},
		{5, 0.2, 250, 8},
	}
	for _, c := range cases {
		route := []Vec3{{0, 0, 0}, {c.L, 0, 0}}
		pursuer := Vec3{X: 0, Y: 7, Z: c.D}
		want := c.D/c.P >= c.L/c.S
		assert.Equal(t, want, PathIsSafe(route, c.S, pursuer, c.P), "%+v", c)
	}
}

func TestPathIsSafe_InterceptAtLaterCorner(t *testing.T) {
	// Far from the start, but sitting right next to the second corner.
	route := []Vec3{{0, 0, 0}, {10, 0, 0}, {10, 0, 10}, {10, 0, 20}}
	pursuer := Vec3{X: 11, Z: 10}
	assert.False(t, PathIsSafe(route, 1, pursuer, 1))

	// Same pursuer, route that turns away early.
	route = []Vec3{{0, 0, 0}, {-10, 0, 0}, {-10, 0, -10}}
	assert.True(t, PathIsSafe(route, 1, pursuer, 1))
}

func TestPathIsSafe_DegenerateRoutes(t *testing.T) {
	assert.True(t, PathIsSafe(nil, 1, Vec3{}, 1))
	assert.True(t, PathIsSafe([]Vec3{{1, 0, 1}}, 1, Vec3{}, 1))
}
