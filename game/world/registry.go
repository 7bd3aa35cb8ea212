package world

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sarahckohl/mousechase/game/chase"
)

var (
	ErrDuplicateRefuge = errors.New("world: refuge already exists")
	ErrUnknownRefuge   = errors.New("world: unknown refuge")
)

type refugeDef struct {
	id  string
	pos chase.Vec3
}

// Registry owns the refuges of a room. Every fleeing agent sees them
// through its own View, so one agent marking a refuge blocked does not
// affect any other agent. Guarding is shared: a refuge the pursuer stands
// near is closed to everybody.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	defs    map[string]refugeDef
	guarded map[string]bool
	blocked map[string]map[string]time.Time // agent -> refuge -> since
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:    make(map[string]refugeDef),
		guarded: make(map[string]bool),
		blocked: make(map[string]map[string]time.Time),
		now:     time.Now,
	}
}

// Add registers a refuge.
func (r *Registry) Add(id string, pos chase.Vec3) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[id]; ok {
		return ErrDuplicateRefuge
	}
	r.defs[id] = refugeDef{id: id, pos: pos}
	r.order = append(r.order, id)
	return nil
}

// Remove deletes a refuge and every flag attached to it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[id]; !ok {
		return ErrUnknownRefuge
	}
	delete(r.defs, id)
	delete(r.guarded, id)
	for _, flags := range r.blocked {
		delete(flags, id)
	}
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of refuges.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Guard closes every refuge within radius of the pursuer and reopens the
// rest. A radius of zero guards nothing.
func (r *Registry) Guard(pursuer chase.Vec3, radius float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, d := range r.defs {
		r.guarded[id] = radius > 0 && pursuer.HorizontalDistance(d.pos) <= radius
	}
}

// Sweep clears blocked flags older than ttl. A zero ttl keeps flags until
// the agent clears them itself.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, flags := range r.blocked {
		for id, since := range flags {
			if now.Sub(since) >= ttl {
				delete(flags, id)
			}
		}
	}
}

// Forget drops every flag an agent has set.
func (r *Registry) Forget(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocked, agentID)
}

// View returns the registry as seen by one agent.
func (r *Registry) View(agentID string) *View {
	return &View{reg: r, agent: agentID}
}

// RefugeInfo is a read-only description of a refuge.
type RefugeInfo struct {
	ID        string     `json:"id"`
	Position  chase.Vec3 `json:"position"`
	Guarded   bool       `json:"guarded"`
	BlockedBy []string   `json:"blocked_by,omitempty"`
}

// List describes every refuge in registration order.
func (r *Registry) List() []RefugeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RefugeInfo, 0, len(r.order))
	for _, id := range r.order {
		info := RefugeInfo{ID: id, Position: r.defs[id].pos, Guarded: r.guarded[id]}
		for agent, flags := range r.blocked {
			if _, ok := flags[id]; ok {
				info.BlockedBy = append(info.BlockedBy, agent)
			}
		}
		sort.Strings(info.BlockedBy)
		out = append(out, info)
	}
	return out
}

func (r *Registry) isBlocked(agent, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.defs[id]; !ok {
		return true
	}
	_, blocked := r.blocked[agent][id]
	return blocked
}

func (r *Registry) isOpen(agent, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.defs[id]; !ok {
		return false
	}
	_, blocked := r.blocked[agent][id]
	return !blocked && !r.guarded[id]
}

func (r *Registry) setBlocked(agent, id string, blocked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[id]; !ok {
		return
	}
	flags := r.blocked[agent]
	if !blocked {
		delete(flags, id)
		return
	}
	if flags == nil {
		flags = make(map[string]time.Time)
		r.blocked[agent] = flags
	}
	if _, already := flags[id]; !already {
		flags[id] = r.now()
	}
}

// View implements chase.Registry for one agent.
type View struct {
	reg   *Registry
	agent string
}

var _ chase.Registry = (*View)(nil)

func (v *View) Refuges() []chase.Refuge {
	v.reg.mu.RLock()
	defer v.reg.mu.RUnlock()
	out := make([]chase.Refuge, 0, len(v.reg.order))
	for _, id := range v.reg.order {
		out = append(out, &refugeView{view: v, def: v.reg.defs[id]})
	}
	return out
}

func (v *View) OpenCount() int {
	v.reg.mu.RLock()
	defer v.reg.mu.RUnlock()
	n := 0
	flags := v.reg.blocked[v.agent]
	for _, id := range v.reg.order {
		if _, blocked := flags[id]; !blocked && !v.reg.guarded[id] {
			n++
		}
	}
	return n
}

// refugeView implements chase.Refuge. A refuge removed from the registry
// reports itself blocked and closed.
type refugeView struct {
	view *View
	def  refugeDef
}

func (rv *refugeView) ID() string { return rv.def.id }
func (rv *refugeView) Position() chase.Vec3 { return rv.def.pos }
func (rv *refugeView) IsOpen() bool { return rv.view.reg.isOpen(rv.view.agent, rv.def.id) }
func (rv *refugeView) IsBlocked() bool { return rv.view.reg.isBlocked(rv.view.agent, rv.def.id) }
func (rv *refugeView) SetBlocked(blocked bool) { rv.view.reg.setBlocked(rv.view.agent, rv.def.id, blocked) }
