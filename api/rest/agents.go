package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/model"
	"go.uber.org/zap"
)

// EventLog reads journaled chase events. Implemented by *journal.Service.
type EventLog interface {
	Recent(ctx context.Context, room, agentID string, limit int) ([]model.ChaseEvent, error)
}

// AgentHandler manages the fleeing agents of the room.
type AgentHandler struct {
	room   Room
	events EventLog
	logger *zap.Logger
}

// NewAgentHandler creates an AgentHandler. events may be nil when no
// database is configured.
func NewAgentHandler(room Room, events EventLog, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{room: room, events: events, logger: logger}
}

// List returns every agent with the pursuer.
// GET /api/agents
func (h *AgentHandler) List(c *gin.Context) {
	s := h.room.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"agents":    s.Mice,
		"count":     len(s.Mice),
		"pursuer":   s.Pursuer,
		"captured":  s.Captured,
		"game_time": s.GameTime,
	})
}

// Get returns one agent.
// GET /api/agents/:id
func (h *AgentHandler) Get(c *gin.Context) {
	m, ok := h.room.Mouse(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type spawnRequest struct {
	X *float64 `json:"x"`
	Z *float64 `json:"z"`
}

// Spawn adds an agent at a spawn point, or at x/z when both are given.
// POST /api/agents
func (h *AgentHandler) Spawn(c *gin.Context) {
	var req spawnRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	var at *chase.Vec3
	if req.X != nil && req.Z != nil {
		at = &chase.Vec3{X: *req.X, Z: *req.Z}
	}
	id, err := h.room.SpawnMouse(c.Request.Context(), at)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Remove takes an agent out of the room.
// DELETE /api/agents/:id
func (h *AgentHandler) Remove(c *gin.Context) {
	if err := h.room.RemoveMouse(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PickUp captures an agent as if the pursuer grabbed it.
// POST /api/agents/:id/pickup
func (h *AgentHandler) PickUp(c *gin.Context) {
	if err := h.room.PickUp(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Events returns the journaled events of one agent, newest first.
// GET /api/agents/:id/events?limit=N
func (h *AgentHandler) Events(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event journal disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	events, err := h.events.Recent(c.Request.Context(), h.room.Name(), c.Param("id"), limit)
	if err != nil {
		h.logger.Error("read journal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
