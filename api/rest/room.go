package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/game/clock"
	"github.com/sarahckohl/mousechase/game/world"
)

// Room is the part of *world.Room the handlers use.
type Room interface {
	Name() string
	Snapshot() *world.Snapshot
	Mouse(id string) (world.MouseInfo, bool)
	SpawnMouse(ctx context.Context, at *chase.Vec3) (string, error)
	RemoveMouse(ctx context.Context, id string) error
	PickUp(ctx context.Context, id string) error
	Now(ctx context.Context) (clock.GameTime, error)
	WithinRange(ctx context.Context, min, max clock.GameTime) (bool, error)
	FastForward(ctx context.Context, target clock.GameTime) (bool, error)
	AddRefuge(ctx context.Context, id string, pos chase.Vec3) error
	RemoveRefuge(ctx context.Context, id string) error
}

var _ Room = (*world.Room)(nil)

// abortWithError maps room errors onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, world.ErrUnknownAgent), errors.Is(err, world.ErrUnknownRefuge):
		status = http.StatusNotFound
	case errors.Is(err, world.ErrDuplicateRefuge):
		status = http.StatusConflict
	case errors.Is(err, world.ErrNotWalkable), errors.Is(err, world.ErrNoSpawn),
		errors.Is(err, clock.ErrOutOfRange), errors.Is(err, clock.ErrBadFormat):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, world.ErrRoomStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
