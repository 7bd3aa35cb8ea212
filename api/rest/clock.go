package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/game/clock"
	"go.uber.org/zap"
)

// ClockHandler exposes the room's game clock.
type ClockHandler struct {
	room   Room
	logger *zap.Logger
}

// NewClockHandler creates a ClockHandler.
func NewClockHandler(room Room, logger *zap.Logger) *ClockHandler {
	return &ClockHandler{room: room, logger: logger}
}

type clockResponse struct {
	Time   string         `json:"time"`
	Fields clock.GameTime `json:"fields"`
}

// Now returns the current game time.
// GET /api/clock
func (h *ClockHandler) Now(c *gin.Context) {
	gt, err := h.room.Now(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, clockResponse{Time: gt.String(), Fields: gt})
}

// Range reports whether the current time lies after min and no later
// than max.
// GET /api/clock/range?min=H:MM&max=H:MM
func (h *ClockHandler) Range(c *gin.Context) {
	min, err := clock.Parse(c.Query("min"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	max, err := clock.Parse(c.Query("max"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	in, err := h.room.WithinRange(c.Request.Context(), min, max)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"within": in, "min": min.String(), "max": max.String()})
}

type fastForwardRequest struct {
	To string `json:"to" binding:"required"`
}

// FastForward jumps the clock ahead. Targets at or before the current time
// leave it unchanged.
// POST /api/clock/fast-forward
func (h *ClockHandler) FastForward(c *gin.Context) {
	var req fastForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := clock.Parse(req.To)
	if err != nil {
		abortWithError(c, err)
		return
	}
	moved, err := h.room.FastForward(c.Request.Context(), target)
	if err != nil {
		abortWithError(c, err)
		return
	}
	gt, err := h.room.Now(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved, "time": gt.String()})
}
