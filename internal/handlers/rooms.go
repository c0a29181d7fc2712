package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"cribbage-rooms/backend/internal/game/cribbage"
	"cribbage-rooms/backend/internal/middleware"
	"cribbage-rooms/backend/internal/models"
	"cribbage-rooms/backend/internal/rooms"

	"github.com/gin-gonic/gin"
)

// GetRoomHandler returns the public snapshot of a room.
func GetRoomHandler(store *rooms.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, ok := store.Get(c.Param("id"))
		if !ok {
			writeAPIError(c, models.ErrRoomNotFound)
			return
		}
		c.JSON(http.StatusOK, room.View())
	}
}

// GetHandHandler returns the caller's private hand. Requires RequireSeat.
func GetHandHandler(store *rooms.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.SeatFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		room, ok := store.Get(claims.RoomID)
		if !ok {
			writeAPIError(c, models.ErrRoomNotFound)
			return
		}

		var hand handView
		err := room.Do(func(st *cribbage.State) error {
			if _, ok := st.Player(claims.SeatID); !ok {
				return models.ErrNotSeated
			}
			hand = handFor(st, claims.SeatID)
			return nil
		})
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, hand)
	}
}

// RoomEventHandler returns one journal entry of the room.
func RoomEventHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, err := rooms.NormalizeID(c.Param("id"))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		id, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}
		e, err := models.GetRoomEventByID(c.Request.Context(), db, id)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		if e.RoomID != roomID {
			writeAPIError(c, models.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// RoomEventsHandler pages through the action journal, newest first.
func RoomEventsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, err := rooms.NormalizeID(c.Param("id"))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		limit := int64(0)
		if v := c.Query("limit"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}
		events, err := models.ListRoomEvents(c.Request.Context(), db, roomID, limit)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}
