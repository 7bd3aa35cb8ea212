package world

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sarahckohl/mousechase/cache"
	"github.com/sarahckohl/mousechase/game/chase"
)

// Snapshot is a read-only picture of a room after one tick.
type Snapshot struct {
	Room     string       `json:"room"`
	Tick     uint64       `json:"tick"`
	GameTime string       `json:"game_time"`
	Captured int          `json:"captured"`
	Pursuer  PursuerInfo  `json:"pursuer"`
	Mice     []MouseInfo  `json:"mice"`
	Refuges  []RefugeInfo `json:"refuges"`
	At       time.Time    `json:"at"`
}

// PursuerInfo describes the pursuer in a snapshot.
type PursuerInfo struct {
	Position chase.Vec3 `json:"position"`
	State    string     `json:"state"`
}

// MouseInfo describes one mouse in a snapshot.
type MouseInfo struct {
	ID         string       `json:"id"`
	Position   chase.Vec3   `json:"position"`
	Mode       string       `json:"mode"`
	RefugeID   string       `json:"refuge_id,omitempty"`
	PathLength float64      `json:"path_length,omitempty"`
	Waypoints  []chase.Vec3 `json:"waypoints,omitempty"`
}

// Snapshot returns the picture taken after the latest tick. Safe for
// concurrent use.
func (r *Room) Snapshot() *Snapshot { return r.snap.Load() }

// Mouse returns the snapshot entry of one mouse.
func (r *Room) Mouse(id string) (MouseInfo, bool) {
	for _, m := range r.Snapshot().Mice {
		if m.ID == id {
			return m, true
		}
	}
	return MouseInfo{}, false
}

func (r *Room) publishSnapshot() {
	s := &Snapshot{
		Room:     r.cfg.Name,
		Tick:     r.tick,
		GameTime: r.gameTime.String(),
		Captured: r.captured,
		Pursuer: PursuerInfo{
			Position: r.pursuer.Position(),
			State:    r.pursuer.brain.State().String(),
		},
		Mice:    make([]MouseInfo, 0, len(r.order)),
		Refuges: r.registry.List(),
		At:      r.lastTick,
	}
	for _, id := range r.order {
		m := r.mice[id]
		info := MouseInfo{
			ID:         id,
			Position:   m.Position(),
			Mode:       m.ctrl.Mode().String(),
			PathLength: m.ctrl.PathLength(),
			Waypoints:  m.ctrl.Waypoints(),
		}
		if t := m.ctrl.Target(); t != nil {
			info.RefugeID = t.ID()
		}
		s.Mice = append(s.Mice, info)
	}
	r.snap.Store(s)
}

// SnapshotKey is the cache key holding the latest snapshot of a room.
func SnapshotKey(room string) string { return "room:" + room + ":snapshot" }

// ModesKey is the cache hash mapping agent ids to their mode.
func ModesKey(room string) string { return "room:" + room + ":modes" }

// CacheWriter mirrors room snapshots into a cache so other processes can
// read them.
type CacheWriter struct {
	mu    sync.Mutex
	room  *Room
	cache cache.Cache
	ttl   time.Duration
	known map[string]struct{}
}

// NewCacheWriter creates a writer. Snapshots expire after ttl.
func NewCacheWriter(room *Room, c cache.Cache, ttl time.Duration) *CacheWriter {
	return &CacheWriter{room: room, cache: c, ttl: ttl, known: make(map[string]struct{})}
}

// Flush writes the latest snapshot.
func (w *CacheWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.room.Snapshot()
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := w.cache.Set(ctx, SnapshotKey(s.Room), string(data), w.ttl); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(s.Mice))
	for _, m := range s.Mice {
		seen[m.ID] = struct{}{}
		if err := w.cache.HSet(ctx, ModesKey(s.Room), m.ID, m.Mode); err != nil {
			return err
		}
	}
	var gone []string
	for id := range w.known {
		if _, ok := seen[id]; !ok {
			gone = append(gone, id)
		}
	}
	if len(gone) > 0 {
		if err := w.cache.HDel(ctx, ModesKey(s.Room), gone...); err != nil {
			return err
		}
	}
	w.known = seen
	return nil
}
