package event

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sarahckohl/mousechase/game/chase"
	"go.uber.org/zap"
)

// ErrConsumed signals that a handler has taken the event and no further
// handlers should see it.
var ErrConsumed = errors.New("event consumed")

// Kind names an event.
type Kind string

const (
	// PawHit is raised when the pursuer's strike connects with an object.
	PawHit Kind = "paw_hit"
	// JawPickup is raised when the pursuer picks an object up.
	JawPickup Kind = "jaw_pickup"
)

// Hit describes a contact between the pursuer and an object.
type Hit struct {
	Kind     Kind
	TargetID string
	SourceID string
	Position chase.Vec3
}

// Handler reacts to a Hit. Returning ErrConsumed stops propagation.
type Handler func(ctx context.Context, hit Hit) error

type entry struct {
	priority int
	name     string
	fn       Handler
}

// Bus dispatches hits to handlers registered by name, lower priority first.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]*entry
	logger   *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{handlers: make(map[Kind][]*entry), logger: logger}
}

// Register adds fn for kind. name is used for Unregister.
func (b *Bus) Register(kind Kind, priority int, name string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := append(b.handlers[kind], &entry{priority: priority, name: name, fn: fn})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	b.handlers[kind] = entries
}

// Unregister removes every handler with the given name for kind.
func (b *Bus) Unregister(kind Kind, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = without(b.handlers[kind], name)
}

// UnregisterAll removes the named handlers from every kind.
func (b *Bus) UnregisterAll(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for kind, entries := range b.handlers {
		b.handlers[kind] = without(entries, name)
	}
}

func without(entries []*entry, name string) []*entry {
	n := 0
	for _, e := range entries {
		if e.name != name {
			entries[n] = e
			n++
		}
	}
	return entries[:n]
}

// Count returns the number of handlers registered for kind.
func (b *Bus) Count(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}

// Publish runs the handlers for hit.Kind in order and reports whether one
// of them consumed it. Handlers may register or unregister while running.
// Other handler errors are logged and do not stop propagation.
func (b *Bus) Publish(ctx context.Context, hit Hit) bool {
	b.mu.RLock()
	entries := make([]*entry, len(b.handlers[hit.Kind]))
	copy(entries, b.handlers[hit.Kind])
	b.mu.RUnlock()

	for _, e := range entries {
		err := e.fn(ctx, hit)
		if errors.Is(err, ErrConsumed) {
			return true
		}
		if err != nil {
			b.logger.Warn("event handler failed",
				zap.String("kind", string(hit.Kind)),
				zap.String("handler", e.name),
				zap.Error(err))
		}
	}
	return false
}
