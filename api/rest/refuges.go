package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/game/chase"
	"go.uber.org/zap"
)

// RefugeHandler lists and edits the room's refuges.
type RefugeHandler struct {
	room   Room
	logger *zap.Logger
}

// NewRefugeHandler creates a RefugeHandler.
func NewRefugeHandler(room Room, logger *zap.Logger) *RefugeHandler {
	return &RefugeHandler{room: room, logger: logger}
}

// List returns every refuge with its guard and block state.
// GET /api/refuges
func (h *RefugeHandler) List(c *gin.Context) {
	refuges := h.room.Snapshot().Refuges
	c.JSON(http.StatusOK, gin.H{"refuges": refuges, "count": len(refuges)})
}

type addRefugeRequest struct {
	ID string   `json:"id" binding:"required,max=64"`
	X  *float64 `json:"x" binding:"required"`
	Z  *float64 `json:"z" binding:"required"`
}

// Add registers a refuge.
// POST /api/refuges
func (h *RefugeHandler) Add(c *gin.Context) {
	var req addRefugeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.room.AddRefuge(c.Request.Context(), req.ID, chase.Vec3{X: *req.X, Z: *req.Z}); err != nil {
		abortWithError(c, err)
		return
	}
	h.logger.Info("refuge added", zap.String("refuge", req.ID), zap.Float64("x", *req.X), zap.Float64("z", *req.Z))
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

// Remove deletes a refuge.
// DELETE /api/refuges/:id
func (h *RefugeHandler) Remove(c *gin.Context) {
	id := c.Param("id")
	if err := h.room.RemoveRefuge(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	h.logger.Info("refuge removed", zap.String("refuge", id))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
