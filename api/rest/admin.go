package rest

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/scheduler"
	"go.uber.org/zap"
)

// AdminHandler serves operational endpoints.
type AdminHandler struct {
	room    Room
	sched   *scheduler.Scheduler
	started time.Time
	logger  *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(room Room, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{room: room, sched: sched, started: time.Now(), logger: logger}
}

// Health reports liveness. It is unauthenticated.
// GET /health
func (h *AdminHandler) Health(c *gin.Context) {
	s := h.room.Snapshot()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "room": s.Room, "tick": s.Tick})
}

// Metrics returns room and process metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	s := h.room.Snapshot()
	modes := make(map[string]int)
	for _, m := range s.Mice {
		modes[m.Mode]++
	}
	guarded := 0
	for _, r := range s.Refuges {
		if r.Guarded {
			guarded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"room":            s.Room,
		"tick":            s.Tick,
		"game_time":       s.GameTime,
		"agents":          len(s.Mice),
		"agents_by_mode":  modes,
		"captured":        s.Captured,
		"refuges":         len(s.Refuges),
		"refuges_guarded": guarded,
		"pursuer_state":   s.Pursuer.State,
		"goroutines":      runtime.NumGoroutine(),
		"uptime_s":        int64(time.Since(h.started).Seconds()),
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// RunTask fires a scheduler ticker immediately.
// POST /api/admin/scheduler/:name/run
func (h *AdminHandler) RunTask(c *gin.Context) {
	name := c.Param("name")
	if !h.sched.Trigger(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	h.logger.Info("admin triggered task", zap.String("task", name))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
