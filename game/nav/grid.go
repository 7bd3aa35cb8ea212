package nav

import (
	"math"
	"sync"

	"github.com/sarahckohl/mousechase/game/chase"
)

// Cell is a grid coordinate. X runs along world X, Y along world Z.
type Cell struct {
	X, Y int
}

// Grid is the walkable floor of a level. Static walls are fixed at load
// time; dynamic obstacles can be swapped at any moment and are read by
// route computations running on other goroutines.
type Grid struct {
	Width    int
	Height   int
	CellSize float64

	walls []bool // row-major, true = wall

	mu        sync.RWMutex
	obstacles map[Cell]struct{}
}

// NewGrid builds a grid. walls is row-major and may be nil for an open floor.
func NewGrid(width, height int, cellSize float64, walls []bool) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	w := make([]bool, width*height)
	copy(w, walls)
	return &Grid{
		Width:     width,
		Height:    height,
		CellSize:  cellSize,
		walls:     w,
		obstacles: make(map[Cell]struct{}),
	}
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// IsWall reports a static wall. Out-of-bounds cells count as walls.
func (g *Grid) IsWall(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.walls[c.Y*g.Width+c.X]
}

// Walkable is false for walls and for cells holding a dynamic obstacle.
func (g *Grid) Walkable(c Cell) bool {
	if g.IsWall(c) {
		return false
	}
	g.mu.RLock()
	_, blocked := g.obstacles[c]
	g.mu.RUnlock()
	return !blocked
}

// SetObstacles replaces the set of dynamic obstacles.
func (g *Grid) SetObstacles(cells ...Cell) {
	next := make(map[Cell]struct{}, len(cells))
	for _, c := range cells {
		next[c] = struct{}{}
	}
	g.mu.Lock()
	g.obstacles = next
	g.mu.Unlock()
}

// CellAt maps a world position onto the grid.
func (g *Grid) CellAt(p chase.Vec3) Cell {
	return Cell{
		X: int(math.Floor(p.X / g.CellSize)),
		Y: int(math.Floor(p.Z / g.CellSize)),
	}
}

// Center is the world position of the middle of c, on the ground plane.
func (g *Grid) Center(c Cell) chase.Vec3 {
	return chase.Vec3{
		X: (float64(c.X) + 0.5) * g.CellSize,
		Z: (float64(c.Y) + 0.5) * g.CellSize,
	}
}

// SegmentClear samples the straight segment a-b at half-cell steps and
// reports whether every cell touched is walkable. The cell containing a is
// skipped so an agent never blocks itself.
func (g *Grid) SegmentClear(a, b chase.Vec3) bool {
	start := g.CellAt(a)
	d := a.HorizontalDistance(b)
	step := g.CellSize / 2
	n := int(math.Ceil(d / step))
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		c := g.CellAt(chase.Vec3{X: a.X + (b.X-a.X)*t, Z: a.Z + (b.Z-a.Z)*t})
		if c == start {
			continue
		}
		if !g.Walkable(c) {
			return false
		}
	}
	return true
}
