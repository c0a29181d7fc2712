package middleware

import (
	"net/http"
	"strings"

	"cribbage-rooms/backend/internal/auth"
	"cribbage-rooms/backend/internal/config"

	"github.com/gin-gonic/gin"
)

const SeatClaimsKey = "seatClaims"

// RequireSeat accepts only requests carrying a seat token for the room named
// by the :id path parameter.
func RequireSeat(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := auth.ParseSeatToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if room := strings.TrimSpace(c.Param("id")); room != "" && room != claims.RoomID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is for another room"})
			return
		}

		c.Set(SeatClaimsKey, claims)
		c.Next()
	}
}

// SeatFromContext returns the claims stored by RequireSeat.
func SeatFromContext(c *gin.Context) (*auth.SeatClaims, bool) {
	v, ok := c.Get(SeatClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.SeatClaims)
	return claims, ok
}

func tokenFromRequest(c *gin.Context) string {
	// Authorization: Bearer <token>
	authz := c.GetHeader("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(c.GetHeader(auth.SeatTokenHeader))
}
