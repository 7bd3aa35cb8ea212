package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarahckohl/mousechase/game/clock"
	"github.com/sarahckohl/mousechase/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoSavedClock is returned by Load when nothing was saved.
var ErrNoSavedClock = errors.New("world: no saved clock")

// ClockStore persists the game clock of a room across restarts.
type ClockStore struct {
	db *gorm.DB
}

// NewClockStore creates a store. A nil db disables persistence.
func NewClockStore(db *gorm.DB) *ClockStore {
	return &ClockStore{db: db}
}

// Save upserts the clock state of room.
func (s *ClockStore) Save(ctx context.Context, room string, t clock.GameTime, scale float64) error {
	if s.db == nil {
		return nil
	}
	row := &model.ClockState{
		Room:   room,
		Hour:   t.Hour,
		Minute: t.Minute,
		Second: t.Second,
		Scale:  scale,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
}

// Load returns the saved clock of room and its scale.
func (s *ClockStore) Load(ctx context.Context, room string) (clock.GameTime, float64, error) {
	if s.db == nil {
		return clock.GameTime{}, 0, ErrNoSavedClock
	}
	var row model.ClockState
	err := s.db.WithContext(ctx).Where("room = ?", room).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return clock.GameTime{}, 0, ErrNoSavedClock
	}
	if err != nil {
		return clock.GameTime{}, 0, err
	}
	// The hour keeps counting past midnight, so only minute and second are
	// range checked.
	if _, err := clock.New(row.Hour%24, row.Minute, row.Second); err != nil || row.Hour < 0 {
		return clock.GameTime{}, 0, fmt.Errorf("world: corrupt clock for %s: %v", room, err)
	}
	return clock.GameTime{Hour: row.Hour, Minute: row.Minute, Second: row.Second}, row.Scale, nil
}

// Persist saves the current clock of a running room.
func (s *ClockStore) Persist(ctx context.Context, r *Room) error {
	var (
		t     clock.GameTime
		scale float64
	)
	err := r.Do(ctx, func() error {
		var err error
		t, err = r.clock.Now()
		scale = r.clock.Scale()
		return err
	})
	if err != nil {
		return err
	}
	return s.Save(ctx, r.Name(), t, scale)
}
