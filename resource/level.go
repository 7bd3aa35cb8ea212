package resource

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/game/nav"
	"gopkg.in/yaml.v3"
)

// ErrInvalidLevel wraps every level validation failure.
var ErrInvalidLevel = errors.New("resource: invalid level")

// Point is a position on the ground plane.
type Point struct {
	X float64 `yaml:"x"`
	Z float64 `yaml:"z"`
}

// Vec3 lifts p onto the ground.
func (p Point) Vec3() chase.Vec3 { return chase.Vec3{X: p.X, Z: p.Z} }

// RefugeDef is a refuge placed in the level.
type RefugeDef struct {
	ID    string `yaml:"id"`
	Point `yaml:",inline"`
}

// Level is a level file. Grid rows use '#' for walls and any other
// character for floor; row 0 is at Z=0.
type Level struct {
	Name     string      `yaml:"name"`
	CellSize float64     `yaml:"cell_size"`
	Grid     []string    `yaml:"grid"`
	Refuges  []RefugeDef `yaml:"refuges"`
	Spawns   []Point     `yaml:"spawns"`
	Pursuer  Point       `yaml:"pursuer"`
}

// Loader reads one level file and builds its navigation grid.
type Loader struct {
	Path  string
	Level *Level
	Grid  *nav.Grid
}

// NewLoader creates a Loader for the level file at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads, parses and validates the level.
func (l *Loader) Load() error {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return fmt.Errorf("resource: read %s: %w", l.Path, err)
	}
	lv, err := ParseLevel(data)
	if err != nil {
		return fmt.Errorf("resource: %s: %w", l.Path, err)
	}
	l.Level = lv
	l.Grid = lv.BuildGrid()
	return nil
}

// ParseLevel decodes and validates level YAML.
func ParseLevel(data []byte) (*Level, error) {
	lv := &Level{CellSize: 1}
	if err := yaml.Unmarshal(data, lv); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	if err := lv.Validate(); err != nil {
		return nil, err
	}
	return lv, nil
}

// BuildGrid turns the grid rows into a nav.Grid.
func (lv *Level) BuildGrid() *nav.Grid {
	h := len(lv.Grid)
	w := 0
	if h > 0 {
		w = len(lv.Grid[0])
	}
	walls := make([]bool, w*h)
	for y, row := range lv.Grid {
		for x := 0; x < len(row) && x < w; x++ {
			walls[y*w+x] = row[x] == '#'
		}
	}
	return nav.NewGrid(w, h, lv.CellSize, walls)
}

// Validate checks the grid shape and that every placed point stands on
// floor.
func (lv *Level) Validate() error {
	if lv.CellSize <= 0 {
		return fmt.Errorf("%w: cell_size must be positive", ErrInvalidLevel)
	}
	if len(lv.Grid) == 0 {
		return fmt.Errorf("%w: empty grid", ErrInvalidLevel)
	}
	width := len(lv.Grid[0])
	for i, row := range lv.Grid {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has width %d, want %d", ErrInvalidLevel, i, len(row), width)
		}
	}
	if width == 0 || !strings.ContainsFunc(strings.Join(lv.Grid, ""), func(r rune) bool { return r != '#' }) {
		return fmt.Errorf("%w: no floor", ErrInvalidLevel)
	}
	if len(lv.Spawns) == 0 {
		return fmt.Errorf("%w: no spawns", ErrInvalidLevel)
	}

	g := lv.BuildGrid()
	onFloor := func(what string, p Point) error {
		if g.IsWall(g.CellAt(p.Vec3())) {
			return fmt.Errorf("%w: %s at (%g, %g) is not on floor", ErrInvalidLevel, what, p.X, p.Z)
		}
		return nil
	}
	seen := make(map[string]bool, len(lv.Refuges))
	for _, r := range lv.Refuges {
		if r.ID == "" {
			return fmt.Errorf("%w: refuge without id", ErrInvalidLevel)
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate refuge %q", ErrInvalidLevel, r.ID)
		}
		seen[r.ID] = true
		if err := onFloor("refuge "+r.ID, r.Point); err != nil {
			return err
		}
	}
	for i, s := range lv.Spawns {
		if err := onFloor(fmt.Sprintf("spawn %d", i), s); err != nil {
			return err
		}
	}
	return onFloor("pursuer", lv.Pursuer)
}
