package handlers

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"cribbage-rooms/backend/internal/game/cribbage"
	"cribbage-rooms/backend/internal/models"

	log "github.com/sirupsen/logrus"
)

const journalRetries = 3

// journalEntry builds the audit row for an accepted action.
func journalEntry(roomID, action string, seat *int, card string, out cribbage.Outcome) models.RoomEvent {
	e := models.RoomEvent{RoomID: roomID, Action: action}
	if seat != nil {
		v := int64(*seat)
		e.SeatID = &v
	}
	if card != "" {
		e.Card = &card
	}
	var labels []string
	for _, ev := range out.Scoring {
		e.Points += int64(ev.Points)
		labels = append(labels, ev.Label)
	}
	e.Detail = strings.Join(labels, ", ")
	return e
}

// recordEvent appends e to the journal. The journal is best effort: a failed
// write is logged and never undoes the action.
func recordEvent(ctx context.Context, db *sql.DB, e models.RoomEvent) {
	if db == nil {
		return
	}
	for attempt := 1; ; attempt++ {
		_, err := models.InsertRoomEvent(ctx, db, e)
		if err == nil {
			return
		}
		if models.IsBusy(err) && attempt < journalRetries {
			time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
			continue
		}
		log.WithError(err).WithFields(log.Fields{
			"room_id": e.RoomID,
			"action":  e.Action,
		}).Warn("journal write failed")
		return
	}
}
