package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"cribbage-rooms/backend/internal/game/common"
	"cribbage-rooms/backend/internal/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type rejection struct {
	err    error
	code   string
	status int
}

// Known rejections, with the reason code sent to clients. Order matters only
// where one error wraps another.
var rejections = []rejection{
	{models.ErrInvalidJSON, "INVALID_JSON", http.StatusBadRequest},
	{models.ErrInvalidCard, "INVALID_CARD", http.StatusBadRequest},
	{common.ErrInvalidCardFormat, "INVALID_CARD", http.StatusBadRequest},
	{models.ErrInvalidPlayer, "INVALID_PLAYER", http.StatusBadRequest},
	{models.ErrInvalidRoom, "INVALID_ROOM", http.StatusBadRequest},
	{models.ErrInvalidDiscardCount, "INVALID_DISCARD_COUNT", http.StatusBadRequest},
	{models.ErrDuplicateCard, "DUPLICATE_CARD", http.StatusBadRequest},
	{models.ErrInvalidDelta, "INVALID_DELTA", http.StatusBadRequest},
	{models.ErrUnknownMessageType, "UNKNOWN_MESSAGE_TYPE", http.StatusBadRequest},
	{models.ErrNotSeated, "NOT_SEATED", http.StatusForbidden},
	{models.ErrSeatMismatch, "SEAT_MISMATCH", http.StatusForbidden},
	{models.ErrNotDealer, "NOT_DEALER", http.StatusForbidden},
	{models.ErrWrongPhase, "WRONG_PHASE", http.StatusConflict},
	{models.ErrWinnerDeclared, "WINNER_DECLARED", http.StatusConflict},
	{models.ErrNotEnoughPlayers, "NOT_ENOUGH_PLAYERS", http.StatusConflict},
	{models.ErrRoomFull, "ROOM_FULL", http.StatusConflict},
	{models.ErrCribAlreadyContributed, "CRIB_ALREADY_CONTRIBUTED", http.StatusConflict},
	{models.ErrCardNotInHand, "CARD_NOT_IN_HAND", http.StatusConflict},
	{models.ErrCardAlreadyShown, "CARD_ALREADY_SHOWN", http.StatusConflict},
	{models.ErrWouldExceed31, "EXCEEDS_31", http.StatusConflict},
	{models.ErrPeggingIncomplete, "PEGGING_INCOMPLETE", http.StatusConflict},
	{models.ErrEmptyDeck, "EMPTY_DECK", http.StatusConflict},
	{models.ErrRoomNotFound, "ROOM_NOT_FOUND", http.StatusNotFound},
	{models.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{sql.ErrNoRows, "NOT_FOUND", http.StatusNotFound},
}

// classify maps err to a client-safe reason code. ok is false for internal
// errors, whose text must not reach clients.
func classify(err error) (code string, status int, ok bool) {
	for _, r := range rejections {
		if errors.Is(err, r.err) {
			return r.code, r.status, true
		}
	}
	return "INTERNAL", http.StatusInternalServerError, false
}

func writeAPIError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	code, status, ok := classify(err)
	if !ok {
		log.WithError(err).WithField("path", c.FullPath()).Error("internal error")
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}
