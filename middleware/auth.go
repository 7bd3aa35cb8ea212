package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/cache"
)

const ClaimsKey = "claims"

// SessionKey is the cache key that keeps a token's session alive.
func SessionKey(id string) string { return "session:" + id }

// StoreSession records a freshly issued token so Auth accepts it.
func StoreSession(ctx context.Context, c cache.Cache, claims *Claims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	return c.Set(ctx, SessionKey(claims.ID), claims.Subject, ttl)
}

// RevokeSession invalidates a token before it expires.
func RevokeSession(ctx context.Context, c cache.Cache, id string) error {
	return c.Del(ctx, SessionKey(id))
}

// Auth validates the Bearer token, checks its session in the cache and
// requires role.
func Auth(secret, role string, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		exists, err := c.Exists(cacheCtx, SessionKey(claims.ID))
		if err != nil || !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		if claims.Role != role {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		ctx.Set(ClaimsKey, claims)
		ctx.Next()
	}
}

// GetClaims retrieves the authenticated claims from the Gin context.
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(ClaimsKey); exists {
		return v.(*Claims)
	}
	return nil
}
