package world

import (
	"time"

	"github.com/sarahckohl/mousechase/game/ai"
	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/game/nav"
)

// PursuerID identifies the pursuer as the source of hits.
const PursuerID = "pursuer"

// Pursuer is the chasing agent. It implements chase.Pursuer; the speed
// reported to fleeing agents is always the top speed.
type Pursuer struct {
	mover    *nav.Mover
	brain    *ai.Brain
	topSpeed float64
}

var _ chase.Pursuer = (*Pursuer)(nil)

func (p *Pursuer) Position() chase.Vec3 { return p.mover.Position() }

func (p *Pursuer) TopSpeed() float64 { return p.topSpeed }

// Mouse is one fleeing agent.
type Mouse struct {
	ID        string
	mover     *nav.Mover
	ctrl      *chase.Controller
	spawnedAt time.Time
}

// Position is the mouse's current position.
func (m *Mouse) Position() chase.Vec3 { return m.mover.Position() }

// Sheltered reports whether the mouse is inside a refuge.
func (m *Mouse) Sheltered() bool { return m.ctrl.Mode() == chase.ModeHiding }
