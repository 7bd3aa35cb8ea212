package nav

import (
	"context"
	"sync"

	"github.com/sarahckohl/mousechase/game/chase"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent bounds route computations running at once.
const DefaultMaxConcurrent = 4

// Service computes routes on a Grid.
type Service struct {
	ctx    context.Context
	grid   *Grid
	sem    *semaphore.Weighted
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewService creates a route service. Requests still queued when ctx is
// cancelled finish as invalid.
func NewService(ctx context.Context, grid *Grid, maxConcurrent int64, logger *zap.Logger) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ctx:    ctx,
		grid:   grid,
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: logger,
	}
}

// Grid returns the grid routes are computed on.
func (s *Service) Grid() *Grid { return s.grid }

// RequestRoute starts an asynchronous computation and returns immediately
// with a pending route.
func (s *Service) RequestRoute(from, to chase.Vec3) *Route {
	r := newRoute(from, to)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			r.finish(nil, 0, chase.RouteInvalid)
			return
		}
		defer s.sem.Release(1)
		s.compute(r)
	}()
	return r
}

// CalculateRoute computes a route on the calling goroutine.
func (s *Service) CalculateRoute(from, to chase.Vec3) *Route {
	r := newRoute(from, to)
	s.compute(r)
	return r
}

// Wait blocks until every outstanding request has finished.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) compute(r *Route) {
	if s.ctx.Err() != nil {
		r.finish(nil, 0, chase.RouteInvalid)
		return
	}
	start := s.grid.CellAt(r.from)
	goal := s.grid.CellAt(r.to)
	path := AStar(s.grid, start, goal)
	if path == nil {
		s.logger.Debug("no route",
			zap.Int("from_x", start.X), zap.Int("from_y", start.Y),
			zap.Int("to_x", goal.X), zap.Int("to_y", goal.Y))
		r.finish(nil, 0, chase.RouteInvalid)
		return
	}

	wps := []chase.Vec3{r.from}
	cs := corners(start, path)
	if len(cs) > 0 {
		for _, c := range cs[:len(cs)-1] {
			wps = append(wps, s.grid.Center(c))
		}
	}
	wps = append(wps, r.to)
	r.finish(wps, len(path), chase.RouteComplete)
}
