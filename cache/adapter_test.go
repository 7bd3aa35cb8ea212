package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_LocalFallback(t *testing.T) {
	c, err := NewCache(CacheConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))
	_, err = c.HGet(ctx, "missing", "f")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(nil))
}

func TestNewPubSub_LocalRoundTrip(t *testing.T) {
	ps, err := NewPubSub(CacheConfig{LocalPubSubBuf: 4})
	require.NoError(t, err)

	ctx := context.Background()
	ch, cancel, err := ps.Subscribe(ctx, "chase.events")
	require.NoError(t, err)

	require.NoError(t, ps.Publish(ctx, "chase.events", `{"kind":"arrived"}`))
	select {
	case msg := <-ch:
		assert.Equal(t, "chase.events", msg.Channel)
		assert.JSONEq(t, `{"kind":"arrived"}`, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNewCache_RedisUnreachable(t *testing.T) {
	_, err := NewCache(CacheConfig{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
