package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/cache"
	"github.com/sarahckohl/mousechase/journal"
	mw "github.com/sarahckohl/mousechase/middleware"
	"go.uber.org/zap"
)

const keepaliveEvery = 30 * time.Second

// Handler streams journaled chase events as server-sent events.
type Handler struct {
	pubsub    cache.PubSub
	c         cache.Cache
	secret    string
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, secret string, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, c: c, secret: secret, keepalive: keepaliveEvery, logger: logger}
}

// ServeSSE handles GET /sse?token=<jwt>[&agent=<id>].
// Every entry published on the journal channel is sent as an event named
// after its kind. With agent set only that agent's entries are sent.
func (h *Handler) ServeSSE(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := mw.ParseToken(tokenStr, h.secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	exists, err := h.c.Exists(ctx, mw.SessionKey(claims.ID))
	if err != nil || !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}
	agent := c.Query("agent")

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()
	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, journal.Channel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			var e journal.Entry
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				h.logger.Warn("sse: bad journal payload", zap.Error(err))
				continue
			}
			if agent != "" && e.AgentID != agent {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", e.Kind, msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
