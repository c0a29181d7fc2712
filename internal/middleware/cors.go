package middleware

import (
	"net/http"
	"strings"

	"cribbage-rooms/backend/internal/config"

	"github.com/gin-gonic/gin"
)

// CORS answers cross-origin requests from loopback origins in development and
// from WS_ALLOWED_ORIGINS everywhere.
func CORS(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin == "" {
			c.Next()
			return
		}

		if originAllowed(cfg, origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Seat-Token")
			h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(cfg config.Config, origin string) bool {
	for _, o := range cfg.WSAllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	if !cfg.IsDevelopment() {
		return false
	}
	// Port varies for Vite; host may be localhost or 127.0.0.1.
	for _, p := range []string{
		"http://localhost:", "http://127.0.0.1:", "http://[::1]:",
		"https://localhost:", "https://127.0.0.1:", "https://[::1]:",
	} {
		if strings.HasPrefix(origin, p) {
			return true
		}
	}
	return false
}
