package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sarahckohl/mousechase/game/ai"
	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/game/clock"
	"github.com/sarahckohl/mousechase/game/event"
	"github.com/sarahckohl/mousechase/game/nav"
	"github.com/sarahckohl/mousechase/journal"
	"github.com/sarahckohl/mousechase/resource"
	"go.uber.org/zap"
)

// Lifecycle event kinds journaled next to the controller's own.
const (
	EventSpawned  chase.EventKind = "spawned"
	EventCaptured chase.EventKind = "captured"
	EventRemoved  chase.EventKind = "removed"
)

var (
	ErrRoomStopped  = errors.New("world: room stopped")
	ErrUnknownAgent = errors.New("world: unknown agent")
	ErrNotWalkable  = errors.New("world: position is not walkable")
	ErrNoSpawn      = errors.New("world: level has no spawn points")
)

// Recorder receives journal entries. Implemented by *journal.Service.
type Recorder interface {
	Record(e journal.Entry)
}

// Config holds the tunables of a room.
type Config struct {
	Name         string
	Tick         time.Duration
	Mice         int
	Seed         int64
	SelfSpeed    float64
	Stopping     float64
	Chase        chase.Config
	Brain        ai.BrainConfig
	GuardRadius  float64
	BlockTTL     time.Duration
	RouteWorkers int64
}

// Room is one level with its own game loop. All simulation state is owned
// by the goroutine running Run; other goroutines go through Do or read the
// latest Snapshot.
type Room struct {
	cfg      Config
	level    *resource.Level
	grid     *nav.Grid
	routes   *nav.Service
	clock    *clock.Driver
	registry *Registry
	bus      *event.Bus
	rec      Recorder
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	pursuer  *Pursuer
	mice     map[string]*Mouse
	order    []string
	rng      *rand.Rand
	lastTick time.Time
	tick     uint64
	gameTime clock.GameTime
	captured int

	snap     atomic.Pointer[Snapshot]
	cmds     chan func()
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewRoom builds a room from a loaded level and spawns cfg.Mice mice. drv
// must already be initialized. rec may be nil.
func NewRoom(cfg Config, level *resource.Level, grid *nav.Grid, drv *clock.Driver, bus *event.Bus, rec Recorder, logger *zap.Logger) (*Room, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 50 * time.Millisecond
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gt, err := drv.Now()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Room{
		cfg:      cfg,
		level:    level,
		grid:     grid,
		routes:   nav.NewService(ctx, grid, cfg.RouteWorkers, logger.Named("nav")),
		clock:    drv,
		registry: NewRegistry(),
		bus:      bus,
		rec:      rec,
		logger:   logger.With(zap.String("room", cfg.Name)),
		ctx:      ctx,
		cancel:   cancel,
		mice:     make(map[string]*Mouse),
		rng:      rand.New(rand.NewSource(seed)),
		lastTick: time.Now(),
		gameTime: gt,
		cmds:     make(chan func()),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	r.registry.now = func() time.Time { return r.lastTick }

	for _, def := range level.Refuges {
		if err := r.registry.Add(def.ID, def.Vec3()); err != nil {
			cancel()
			return nil, fmt.Errorf("refuge %s: %w", def.ID, err)
		}
	}

	pm := nav.NewMover(r.routes, level.Pursuer.Vec3(), cfg.Brain.SlowSpeed, cfg.Stopping, r.logger.Named("pursuer"))
	r.pursuer = &Pursuer{mover: pm, topSpeed: cfg.Brain.FastSpeed}
	r.pursuer.brain = ai.NewBrain(cfg.Brain, pm, r, rand.New(rand.NewSource(r.rng.Int63())), r.strike)

	for i := 0; i < cfg.Mice; i++ {
		if _, err := r.spawn(nil); err != nil {
			cancel()
			return nil, err
		}
	}
	r.publishSnapshot()
	return r, nil
}

// Name returns the room name.
func (r *Room) Name() string { return r.cfg.Name }

// Run starts the game loop. Call in a goroutine.
func (r *Room) Run() {
	defer close(r.doneCh)
	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()
	r.logger.Info("room started", zap.Duration("tick", r.cfg.Tick), zap.Int("mice", len(r.mice)))
	for {
		select {
		case now := <-ticker.C:
			r.Step(now)
		case cmd := <-r.cmds:
			cmd()
			r.publishSnapshot()
		case <-r.stopCh:
			r.shutdown()
			return
		}
	}
}

// Stop signals the game loop to exit. Safe to call more than once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.cancel()
	})
}

// Done is closed once Run has returned.
func (r *Room) Done() <-chan struct{} { return r.doneCh }

func (r *Room) shutdown() {
	for _, id := range r.order {
		r.mice[id].ctrl.Stop()
	}
	r.routes.Wait()
	r.logger.Info("room stopped", zap.Uint64("ticks", r.tick))
}

// Do runs fn on the room goroutine and returns its error.
func (r *Room) Do(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	select {
	case r.cmds <- func() { errCh <- fn() }:
	case <-r.stopCh:
		return ErrRoomStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Step advances the simulation to now. Only the goroutine that owns the
// room may call it; Run does so on every tick.
func (r *Room) Step(now time.Time) {
	dt := now.Sub(r.lastTick).Seconds()
	if dt < 0 {
		dt = 0
	}
	r.lastTick = now
	r.tick++
	if gt, err := r.clock.Now(); err == nil {
		r.gameTime = gt
	}

	r.pursuer.brain.Tick(dt)
	r.pursuer.mover.Step(dt)
	ppos := r.pursuer.Position()
	r.grid.SetObstacles(r.grid.CellAt(ppos))
	r.registry.Guard(ppos, r.cfg.GuardRadius)
	r.registry.Sweep(now, r.cfg.BlockTTL)

	for _, id := range append([]string(nil), r.order...) {
		m, ok := r.mice[id]
		if !ok {
			continue
		}
		m.ctrl.Tick(now)
		m.mover.Step(dt)
	}
	r.publishSnapshot()
}

// ---- ai.Senses ----

// PreyInView lists mice in the open within radius of from and in line of
// sight.
func (r *Room) PreyInView(from chase.Vec3, radius float64) []ai.PreyInfo {
	var out []ai.PreyInfo
	for _, id := range r.order {
		m := r.mice[id]
		if m.Sheltered() {
			continue
		}
		p := m.Position()
		if from.HorizontalDistance(p) > radius || !r.grid.SegmentClear(from, p) {
			continue
		}
		out = append(out, ai.PreyInfo{ID: id, Position: p})
	}
	return out
}

// RandomPoint picks the center of a random walkable cell.
func (r *Room) RandomPoint(rng *rand.Rand) chase.Vec3 {
	for i := 0; i < 100; i++ {
		c := nav.Cell{X: rng.Intn(r.grid.Width), Y: rng.Intn(r.grid.Height)}
		if r.grid.Walkable(c) {
			return r.grid.Center(c)
		}
	}
	return r.pursuer.Position()
}

// ---- agents ----

func (r *Room) strike(p ai.PreyInfo) {
	r.bus.Publish(r.ctx, event.Hit{Kind: event.PawHit, TargetID: p.ID, SourceID: PursuerID, Position: p.Position})
}

func (r *Room) spawn(at *chase.Vec3) (string, error) {
	var pos chase.Vec3
	if at == nil {
		if len(r.level.Spawns) == 0 {
			return "", ErrNoSpawn
		}
		pos = r.level.Spawns[r.rng.Intn(len(r.level.Spawns))].Vec3()
	} else {
		if !r.grid.Walkable(r.grid.CellAt(*at)) {
			return "", ErrNotWalkable
		}
		pos = *at
	}

	id := uuid.NewString()
	logger := r.logger.With(zap.String("agent_id", id))
	mover := nav.NewMover(r.routes, pos, r.cfg.SelfSpeed, r.cfg.Stopping, logger)
	ctrl := chase.NewController(id, mover, r.pursuer, r.registry.View(id),
		rand.New(rand.NewSource(r.rng.Int63())), r.cfg.Chase, logger, r.onChaseEvent)
	m := &Mouse{ID: id, mover: mover, ctrl: ctrl, spawnedAt: r.lastTick}
	r.mice[id] = m
	r.order = append(r.order, id)

	handler := r.hitHandler(id)
	r.bus.Register(event.PawHit, 0, id, handler)
	r.bus.Register(event.JawPickup, 0, id, handler)

	logger.Info("mouse spawned", zap.Float64("x", pos.X), zap.Float64("z", pos.Z))
	r.record(journal.Entry{AgentID: id, Kind: string(EventSpawned), Mode: ctrl.Mode().String()})
	return id, nil
}

func (r *Room) hitHandler(id string) event.Handler {
	return func(_ context.Context, hit event.Hit) error {
		if hit.TargetID != id {
			return nil
		}
		m, ok := r.mice[id]
		if !ok {
			return nil
		}
		r.captured++
		r.remove(m, EventCaptured, string(hit.Kind))
		return event.ErrConsumed
	}
}

func (r *Room) remove(m *Mouse, kind chase.EventKind, cause string) {
	m.ctrl.Stop()
	r.bus.UnregisterAll(m.ID)
	r.registry.Forget(m.ID)
	delete(r.mice, m.ID)
	for i, id := range r.order {
		if id == m.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("mouse removed",
		zap.String("agent_id", m.ID),
		zap.String("kind", string(kind)),
		zap.String("cause", cause),
		zap.Duration("alive", r.lastTick.Sub(m.spawnedAt)))
	r.record(journal.Entry{AgentID: m.ID, Kind: string(kind), Mode: m.ctrl.Mode().String(), Cause: cause})
}

func (r *Room) onChaseEvent(ev chase.Event) {
	r.record(journal.FromEvent(r.cfg.Name, ev, r.gameTime.String()))
}

func (r *Room) record(e journal.Entry) {
	if r.rec == nil {
		return
	}
	e.Room = r.cfg.Name
	if e.GameTime == "" {
		e.GameTime = r.gameTime.String()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	r.rec.Record(e)
}

// ---- commands ----

// SpawnMouse adds a mouse at a random spawn point, or at *at when given.
func (r *Room) SpawnMouse(ctx context.Context, at *chase.Vec3) (string, error) {
	var id string
	err := r.Do(ctx, func() error {
		var err error
		id, err = r.spawn(at)
		return err
	})
	return id, err
}

// RemoveMouse takes a mouse out of the room without a capture.
func (r *Room) RemoveMouse(ctx context.Context, id string) error {
	return r.Do(ctx, func() error {
		m, ok := r.mice[id]
		if !ok {
			return ErrUnknownAgent
		}
		r.remove(m, EventRemoved, "admin")
		return nil
	})
}

// PickUp raises a jaw pickup on a mouse. Its own handler removes it.
func (r *Room) PickUp(ctx context.Context, id string) error {
	return r.Do(ctx, func() error {
		hit := event.Hit{Kind: event.JawPickup, TargetID: id, SourceID: PursuerID}
		if m, ok := r.mice[id]; ok {
			hit.Position = m.Position()
		}
		if !r.bus.Publish(ctx, hit) {
			return ErrUnknownAgent
		}
		return nil
	})
}

// Now advances and returns the game clock.
func (r *Room) Now(ctx context.Context) (clock.GameTime, error) {
	var gt clock.GameTime
	err := r.Do(ctx, func() error {
		var err error
		gt, err = r.clock.Now()
		if err == nil {
			r.gameTime = gt
		}
		return err
	})
	return gt, err
}

// WithinRange reports whether the current game time lies in (min, max].
func (r *Room) WithinRange(ctx context.Context, min, max clock.GameTime) (bool, error) {
	var in bool
	err := r.Do(ctx, func() error {
		if _, err := r.clock.Now(); err != nil {
			return err
		}
		in = r.clock.IsCurrentWithinRange(min, max)
		return nil
	})
	return in, err
}

// FastForward jumps the clock to target if it lies ahead. It reports
// whether the clock moved.
func (r *Room) FastForward(ctx context.Context, target clock.GameTime) (bool, error) {
	var moved bool
	err := r.Do(ctx, func() error {
		if _, err := r.clock.Now(); err != nil {
			return err
		}
		moved = r.clock.FastForwardTo(target)
		if moved {
			r.gameTime = r.clock.Current()
			r.logger.Info("clock fast-forwarded", zap.Stringer("to", target))
		}
		return nil
	})
	return moved, err
}

// AddRefuge registers a new refuge on a walkable cell.
func (r *Room) AddRefuge(ctx context.Context, id string, pos chase.Vec3) error {
	return r.Do(ctx, func() error {
		if !r.grid.Walkable(r.grid.CellAt(pos)) {
			return ErrNotWalkable
		}
		return r.registry.Add(id, pos)
	})
}

// RemoveRefuge deletes a refuge. Mice heading for it re-plan.
func (r *Room) RemoveRefuge(ctx context.Context, id string) error {
	return r.Do(ctx, func() error {
		return r.registry.Remove(id)
	})
}
