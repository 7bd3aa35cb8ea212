package world

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sarahckohl/mousechase/cache"
	"github.com/sarahckohl/mousechase/game/clock"
	"github.com/sarahckohl/mousechase/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockStore_SaveLoad(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewClockStore(db)
	ctx := context.Background()

	_, _, err := store.Load(ctx, "den")
	assert.ErrorIs(t, err, ErrNoSavedClock)

	require.NoError(t, store.Save(ctx, "den", clock.MustNew(6, 30, 15.5), 60))
	require.NoError(t, store.Save(ctx, "den", clock.GameTime{Hour: 25, Minute: 5}, 120))

	gt, scale, err := store.Load(ctx, "den")
	require.NoError(t, err)
	assert.Equal(t, clock.GameTime{Hour: 25, Minute: 5}, gt)
	assert.Equal(t, 120.0, scale)
}

func TestClockStore_Disabled(t *testing.T) {
	store := NewClockStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "den", clock.MustNew(1, 0, 0), 1))
	_, _, err := store.Load(ctx, "den")
	assert.ErrorIs(t, err, ErrNoSavedClock)
}

func TestClockStore_Persist(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewClockStore(db)
	f := newFixture(t, calmConfig())
	f.run(t)
	ctx := context.Background()

	f.src.Advance(30 * time.Second)
	require.NoError(t, store.Persist(ctx, f.room))

	gt, scale, err := store.Load(ctx, "den")
	require.NoError(t, err)
	assert.Equal(t, clock.MustNew(6, 30, 0), gt)
	assert.Equal(t, 60.0, scale)
}

func TestCacheWriter_Flush(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	cfg := calmConfig()
	cfg.Mice = 2
	f := newFixture(t, cfg)
	f.run(t)
	ctx := context.Background()
	w := NewCacheWriter(f.room, c, time.Minute)

	require.NoError(t, w.Flush(ctx))
	raw, err := c.Get(ctx, SnapshotKey("den"))
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Len(t, snap.Mice, 2)

	modes, err := c.HGetAll(ctx, ModesKey("den"))
	require.NoError(t, err)
	require.Len(t, modes, 2)

	gone := snap.Mice[0].ID
	require.NoError(t, f.room.RemoveMouse(ctx, gone))
	require.Eventually(t, func() bool {
		return len(f.room.Snapshot().Mice) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Flush(ctx))

	_, err = c.HGet(ctx, ModesKey("den"), gone)
	assert.True(t, cache.IsNotFound(err))
	modes, err = c.HGetAll(ctx, ModesKey("den"))
	require.NoError(t, err)
	assert.Len(t, modes, 1)
}

func TestLease(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	ctx := context.Background()
	a := NewLease(c, "den", "a", time.Minute)
	b := NewLease(c, "den", "b", time.Minute)

	require.NoError(t, a.Acquire(ctx))
	require.NoError(t, a.Acquire(ctx))
	assert.ErrorIs(t, b.Acquire(ctx), ErrRoomOwned)
	assert.ErrorIs(t, b.Refresh(ctx), ErrRoomOwned)
	require.NoError(t, a.Refresh(ctx))

	require.NoError(t, b.Release(ctx))
	assert.ErrorIs(t, b.Acquire(ctx), ErrRoomOwned, "release by a non-holder is a no-op")

	require.NoError(t, a.Release(ctx))
	require.NoError(t, b.Acquire(ctx))
	assert.ErrorIs(t, a.Refresh(ctx), ErrRoomOwned)
}

func TestLease_RefreshRetakesLapsedLease(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	ctx := context.Background()
	a := NewLease(c, "den", "a", 10*time.Millisecond)

	require.NoError(t, a.Acquire(ctx))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, a.Refresh(ctx))
	holder, err := c.Get(ctx, "room:den:owner")
	require.NoError(t, err)
	assert.Equal(t, "a", holder)
}

// takeoverCache hands the lease to another owner just before each
// compare-and-set step runs.
type takeoverCache struct {
	cache.Cache
	takeover func()
}

func (t *takeoverCache) ExpireIfEqual(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	t.takeover()
	return t.Cache.ExpireIfEqual(ctx, key, value, ttl)
}

func (t *takeoverCache) DelIfEqual(ctx context.Context, key, value string) (bool, error) {
	t.takeover()
	return t.Cache.DelIfEqual(ctx, key, value)
}

func TestLease_TakeoverBetweenStepsIsDetected(t *testing.T) {
	inner, _ := testutil.SetupTestCache(t)
	ctx := context.Background()
	const key = "room:den:owner"
	tc := &takeoverCache{Cache: inner, takeover: func() {
		require.NoError(t, inner.Set(ctx, key, "b", 30*time.Millisecond))
	}}
	a := NewLease(tc, "den", "a", time.Minute)
	require.NoError(t, inner.Set(ctx, key, "a", time.Minute))

	assert.ErrorIs(t, a.Refresh(ctx), ErrRoomOwned)
	assert.ErrorIs(t, a.Acquire(ctx), ErrRoomOwned)
	require.NoError(t, a.Release(ctx))

	holder, err := inner.Get(ctx, key)
	require.NoError(t, err, "release must not delete the new holder's key")
	assert.Equal(t, "b", holder)

	time.Sleep(50 * time.Millisecond)
	ok, err := inner.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "the new holder's TTL must not be extended by a")
}
