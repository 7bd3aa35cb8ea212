package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/cache"
	"github.com/sarahckohl/mousechase/config"
	mw "github.com/sarahckohl/mousechase/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler exchanges the admin key for session tokens.
type AuthHandler struct {
	cache  cache.Cache
	srv    config.ServerConfig
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(c cache.Cache, srv config.ServerConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{cache: c, srv: srv, logger: logger}
}

type tokenRequest struct {
	Key string `json:"key" binding:"required,max=128"`
}

// Token handles POST /api/auth/token.
func (h *AuthHandler) Token(c *gin.Context) {
	if !adminEnabled(h.srv) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin access disabled"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.srv.AdminKeyHash), []byte(req.Key)); err != nil {
		h.logger.Warn("admin key rejected", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, claims, err := mw.GenerateToken(c.ClientIP(), mw.RoleAdmin, h.srv.TokenSecret, h.srv.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := mw.StoreSession(ctx, h.cache, claims); err != nil {
		h.logger.Error("store session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time,
	})
}

// Logout handles POST /api/auth/logout. The route must sit behind
// AdminAuth.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = mw.RevokeSession(ctx, h.cache, claims.ID)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func adminEnabled(srv config.ServerConfig) bool {
	return strings.TrimSpace(srv.AdminKeyHash) != "" && srv.TokenSecret != ""
}

// AdminAuth is the handler chain guarding admin routes. With no admin key
// hash or token secret configured every admin route answers 503.
func AdminAuth(srv config.ServerConfig, c cache.Cache) gin.HandlersChain {
	gate := func(ctx *gin.Context) {
		if !adminEnabled(srv) {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin access disabled: set server.admin_key_hash and server.token_secret"})
			return
		}
		ctx.Next()
	}
	return gin.HandlersChain{
		gate,
		mw.IPWhitelist(srv.AllowedIPs),
		mw.Auth(srv.TokenSecret, mw.RoleAdmin, c),
	}
}
