package cribbage

import (
	"fmt"

	"cribbage-rooms/backend/internal/game/common"
	"cribbage-rooms/backend/internal/models"
)

// PlayRejectedError is returned by ShowCard when the evaluator refuses a play.
// It matches models.ErrWouldExceed31 with errors.Is.
type PlayRejectedError struct {
	SeatID int
	Card   common.Card
	Reason string
	Total  int
}

func (e *PlayRejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s (count %d)", e.Card, e.Reason, e.Total)
}

func (e *PlayRejectedError) Unwrap() error {
	return models.ErrWouldExceed31
}
