package handlers

import (
	"database/sql"
	"net/http"

	"cribbage-rooms/backend/internal/config"
	"cribbage-rooms/backend/internal/middleware"
	"cribbage-rooms/backend/internal/rooms"

	"github.com/gin-gonic/gin"
)

// RegisterRoomRoutes wires the read-only room endpoints. All mutations arrive
// over the websocket.
func RegisterRoomRoutes(rg *gin.RouterGroup, store *rooms.Store, db *sql.DB, cfg config.Config) {
	rg.GET("/rooms/:id", GetRoomHandler(store))
	rg.GET("/rooms/:id/hand", middleware.RequireSeat(cfg), GetHandHandler(store))
	rg.GET("/rooms/:id/events", RoomEventsHandler(db))
	rg.GET("/rooms/:id/events/:eventId", RoomEventHandler(db))
}

// HealthHandler reports liveness and, when db is set, that the journal answers.
func HealthHandler(store *rooms.Store, db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "rooms": store.Len()})
	}
}
