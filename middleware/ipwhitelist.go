package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// IPWhitelist only lets through requests from the listed addresses or
// CIDR blocks. An empty list allows everyone. Unparseable entries are
// ignored.
func IPWhitelist(entries []string) gin.HandlerFunc {
	exact := make(map[string]bool)
	var nets []*net.IPNet
	for _, e := range entries {
		if strings.Contains(e, "/") {
			if _, n, err := net.ParseCIDR(e); err == nil {
				nets = append(nets, n)
			}
			continue
		}
		if ip := net.ParseIP(e); ip != nil {
			exact[ip.String()] = true
		}
	}
	open := len(entries) == 0

	allowed := func(raw string) bool {
		ip := net.ParseIP(raw)
		if ip == nil {
			return false
		}
		if exact[ip.String()] {
			return true
		}
		for _, n := range nets {
			if n.Contains(ip) {
				return true
			}
		}
		return false
	}

	return func(c *gin.Context) {
		if open || allowed(c.ClientIP()) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}
