package models

import "errors"

// Rejections returned by the cribbage state machine. None of them mutate room state.
var (
	ErrInvalidJSON            = errors.New("invalid json")
	ErrInvalidCard            = errors.New("invalid card")
	ErrInvalidPlayer          = errors.New("invalid player")
	ErrNotSeated              = errors.New("not seated in this room")
	ErrSeatMismatch           = errors.New("seat does not belong to this connection")
	ErrNotDealer              = errors.New("only the dealer may deal")
	ErrWrongPhase             = errors.New("action not allowed in this phase")
	ErrWinnerDeclared         = errors.New("game already has a winner")
	ErrNotEnoughPlayers       = errors.New("four seated players required")
	ErrRoomFull               = errors.New("room full")
	ErrInvalidRoom            = errors.New("invalid room")
	ErrInvalidDiscardCount    = errors.New("invalid discard count")
	ErrDuplicateCard          = errors.New("duplicate card")
	ErrCribAlreadyContributed = errors.New("crib already contributed")
	ErrCardNotInHand          = errors.New("card not in hand")
	ErrCardAlreadyShown       = errors.New("card already shown")
	ErrWouldExceed31          = errors.New("would exceed 31")
	ErrPeggingIncomplete      = errors.New("pegging not complete")
	ErrInvalidDelta           = errors.New("invalid score delta")
	ErrEmptyDeck              = errors.New("empty deck")
	ErrUnknownMessageType     = errors.New("unknown message type")
	ErrRoomNotFound           = errors.New("room not found")
)
