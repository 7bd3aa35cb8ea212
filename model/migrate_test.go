package model_test

import (
	"testing"

	"github.com/sarahckohl/mousechase/model"
	"github.com/sarahckohl/mousechase/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cs := &model.ClockState{Room: "kitchen", Hour: 7, Minute: 30, Second: 12.5, Scale: 60}
	require.NoError(t, db.Create(cs).Error)

	var found model.ClockState
	require.NoError(t, db.First(&found, "room = ?", "kitchen").Error)
	assert.Equal(t, 7, found.Hour)
	assert.Equal(t, 12.5, found.Second)

	ev := &model.ChaseEvent{
		Room:      "kitchen",
		AgentID:   "m1",
		Kind:      "route_committed",
		Waypoints: datatypes.JSON(`[{"X":0,"Y":0,"Z":0}]`),
	}
	require.NoError(t, db.Create(ev).Error)
	assert.Greater(t, ev.ID, int64(0))
}

func TestClockState_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)

	save := func(h int) {
		require.NoError(t, db.Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&model.ClockState{Room: "kitchen", Hour: h, Scale: 60}).Error)
	}
	save(6)
	save(9)

	var rows []model.ClockState
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].Hour)
}
