package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sarahckohl/mousechase/cache"
	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Channel is the pub/sub channel every recorded entry is published on.
const Channel = "chase.events"

const (
	batchSize     = 100
	flushInterval = 2 * time.Second
	queueSize     = 1024
)

// Entry is one journaled chase event, as published on Channel.
type Entry struct {
	Room       string       `json:"room"`
	AgentID    string       `json:"agent_id"`
	Kind       string       `json:"kind"`
	Mode       string       `json:"mode"`
	RefugeID   string       `json:"refuge_id,omitempty"`
	PathLength float64      `json:"path_length,omitempty"`
	Attempts   int          `json:"attempts,omitempty"`
	Waypoints  []chase.Vec3 `json:"waypoints,omitempty"`
	Cause      string       `json:"cause,omitempty"`
	GameTime   string       `json:"game_time"`
	At         time.Time    `json:"at"`
}

// FromEvent converts a controller event.
func FromEvent(room string, ev chase.Event, gameTime string) Entry {
	return Entry{
		Room:       room,
		AgentID:    ev.AgentID,
		Kind:       string(ev.Kind),
		Mode:       ev.Mode.String(),
		RefugeID:   ev.RefugeID,
		PathLength: ev.PathLength,
		Attempts:   ev.Attempts,
		Waypoints:  ev.Waypoints,
		GameTime:   gameTime,
		At:         time.Now(),
	}
}

// Service publishes entries and writes them to the database in batches.
// Either sink may be nil.
type Service struct {
	db     *gorm.DB
	ps     cache.PubSub
	ch     chan Entry
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a journal Service and starts its background worker.
func New(db *gorm.DB, ps cache.PubSub, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		db:     db,
		ps:     ps,
		ch:     make(chan Entry, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Record enqueues an entry. It never blocks; entries are dropped with a
// warning when the queue is full.
func (svc *Service) Record(e Entry) {
	select {
	case svc.ch <- e:
	default:
		svc.logger.Warn("journal queue full, dropping entry",
			zap.String("agent_id", e.AgentID),
			zap.String("kind", e.Kind))
	}
}

// Recent returns the newest persisted entries of a room, optionally
// filtered by agent, newest first.
func (svc *Service) Recent(ctx context.Context, room, agentID string, limit int) ([]model.ChaseEvent, error) {
	if svc.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := svc.db.WithContext(ctx).Where("room = ?", room)
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	var out []model.ChaseEvent
	err := q.Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) publish(e Entry) {
	if svc.ps == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		svc.logger.Error("journal marshal failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.ps.Publish(ctx, Channel, string(payload)); err != nil {
		svc.logger.Warn("journal publish failed", zap.Error(err))
	}
}

func toRecord(e Entry) *model.ChaseEvent {
	wps, _ := json.Marshal(e.Waypoints)
	return &model.ChaseEvent{
		Room:       e.Room,
		AgentID:    e.AgentID,
		Kind:       e.Kind,
		Mode:       e.Mode,
		RefugeID:   e.RefugeID,
		PathLength: e.PathLength,
		Attempts:   e.Attempts,
		Waypoints:  datatypes.JSON(wps),
		Cause:      e.Cause,
		GameTime:   e.GameTime,
	}
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.ChaseEvent, 0, batchSize)

	flush := func() {
		if len(batch) == 0 || svc.db == nil {
			batch = batch[:0]
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("journal batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}
	accept := func(e Entry) {
		svc.publish(e)
		batch = append(batch, toRecord(e))
		if len(batch) >= batchSize {
			flush()
		}
	}

	for {
		select {
		case e := <-svc.ch:
			accept(e)
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case e := <-svc.ch:
					accept(e)
				default:
					flush()
					return
				}
			}
		}
	}
}
