package world

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sarahckohl/mousechase/cache"
)

// ErrRoomOwned is returned by Lease.Acquire when another process runs the
// room.
var ErrRoomOwned = errors.New("world: room is owned by another process")

// Lease marks one process as the owner of a room in a shared cache, so two
// servers pointed at the same Redis do not simulate the same room.
type Lease struct {
	cache cache.Cache
	key   string
	owner string
	ttl   time.Duration
}

// NewLease creates a lease on room for owner. The lease lapses after ttl
// unless refreshed.
func NewLease(c cache.Cache, room, owner string, ttl time.Duration) *Lease {
	return &Lease{cache: c, key: "room:" + room + ":owner", owner: owner, ttl: ttl}
}

// Acquire takes the lease. Re-acquiring a lease already held by the same
// owner succeeds and extends it.
func (l *Lease) Acquire(ctx context.Context) error {
	ok, err := l.cache.SetNX(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return l.extend(ctx)
}

// Refresh extends the lease, taking it again if it lapsed. It fails with
// ErrRoomOwned if someone else holds it.
func (l *Lease) Refresh(ctx context.Context) error {
	held, err := l.cache.ExpireIfEqual(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return err
	}
	if held {
		return nil
	}
	ok, err := l.cache.SetNX(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return l.owned(ctx)
}

// Release gives the lease up if this owner still holds it.
func (l *Lease) Release(ctx context.Context) error {
	_, err := l.cache.DelIfEqual(ctx, l.key, l.owner)
	return err
}

func (l *Lease) extend(ctx context.Context) error {
	held, err := l.cache.ExpireIfEqual(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return err
	}
	if held {
		return nil
	}
	return l.owned(ctx)
}

// owned builds the ErrRoomOwned error naming the current holder. The read
// is informational only.
func (l *Lease) owned(ctx context.Context) error {
	holder, err := l.cache.Get(ctx, l.key)
	if err != nil && !cache.IsNotFound(err) {
		return err
	}
	return fmt.Errorf("%w: %s", ErrRoomOwned, holder)
}
