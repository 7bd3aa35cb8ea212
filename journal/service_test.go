package journal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/model"
	"github.com/sarahckohl/mousechase/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func sample(agent string, kind chase.EventKind) Entry {
	return FromEvent("kitchen", chase.Event{
		Kind:       kind,
		AgentID:    agent,
		RefugeID:   "pantry",
		Mode:       chase.ModeNormal,
		PathLength: 12.5,
		Waypoints:  []chase.Vec3{{X: 1}, {X: 2, Z: 3}},
	}, "6:00:00.00")
}

func TestRecord_PersistedOnStop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil, nop())

	svc.Record(sample("m1", chase.EventRouteCommitted))
	svc.Stop(context.Background())

	var rows []model.ChaseEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "m1", rows[0].AgentID)
	assert.Equal(t, "route_committed", rows[0].Kind)
	assert.Equal(t, "normal", rows[0].Mode)
	assert.Equal(t, 12.5, rows[0].PathLength)

	var wps []chase.Vec3
	require.NoError(t, json.Unmarshal(rows[0].Waypoints, &wps))
	assert.Equal(t, []chase.Vec3{{X: 1}, {X: 2, Z: 3}}, wps)
}

func TestRecord_BatchFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil, nop())
	for i := 0; i < batchSize; i++ {
		svc.Record(sample("m1", chase.EventRefugeSelected))
	}
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.ChaseEvent{}).Count(&count)
	assert.Equal(t, int64(batchSize), count)
}

func TestRecord_Published(t *testing.T) {
	_, ps := testutil.SetupTestCache(t)
	ch, cancel, err := ps.Subscribe(context.Background(), Channel)
	require.NoError(t, err)
	defer cancel()

	svc := New(nil, ps, nop())
	defer svc.Stop(context.Background())
	svc.Record(sample("m2", chase.EventArrived))

	select {
	case msg := <-ch:
		var got Entry
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "m2", got.AgentID)
		assert.Equal(t, "arrived", got.Kind)
		assert.Equal(t, "kitchen", got.Room)
	case <-time.After(time.Second):
		t.Fatal("entry not published")
	}
}

func TestRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil, nop())
	svc.Record(sample("m1", chase.EventRefugeSelected))
	svc.Record(sample("m2", chase.EventRefugeSelected))
	svc.Record(sample("m1", chase.EventArrived))
	svc.Stop(context.Background())

	rows, err := svc.Recent(context.Background(), "kitchen", "m1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "arrived", rows[0].Kind)

	rows, err = svc.Recent(context.Background(), "kitchen", "", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = svc.Recent(context.Background(), "attic", "", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNoSinks(t *testing.T) {
	svc := New(nil, nil, nil)
	svc.Record(sample("m1", chase.EventEmerged))
	svc.Stop(context.Background())
	svc.Stop(context.Background())

	rows, err := svc.Recent(context.Background(), "kitchen", "", 10)
	assert.NoError(t, err)
	assert.Nil(t, rows)
}

func TestRecord_DropsWhenFull(t *testing.T) {
	svc := New(nil, nil, nop())
	for i := 0; i < queueSize+10; i++ {
		svc.Record(sample("m1", chase.EventRefugeSelected))
	}
	svc.Stop(context.Background())
}
