package handlers

import (
	"cribbage-rooms/backend/internal/game/common"
	"cribbage-rooms/backend/internal/game/cribbage"
)

// handView is the private hand of one seat. It is only ever sent to that seat.
type handView struct {
	RoomID string        `json:"room_id"`
	SeatID int           `json:"seat_id"`
	Cards  []common.Card `json:"cards"`
}

type joinedView struct {
	RoomID    string `json:"room_id"`
	SeatID    int    `json:"seat_id"`
	Name      string `json:"name"`
	SeatToken string `json:"seat_token,omitempty"`
	SessionID string `json:"session_id"`
}

type rejectedView struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type pegRejectedView struct {
	RoomID string      `json:"room_id"`
	SeatID int         `json:"seat_id"`
	Card   common.Card `json:"card"`
	Reason string      `json:"reason"`
	Total  int         `json:"total"`
}

func handFor(st *cribbage.State, seat int) handView {
	return handView{RoomID: st.RoomID(), SeatID: seat, Cards: st.Hand(seat)}
}

func pegRejectedFor(roomID string, e *cribbage.PlayRejectedError) pegRejectedView {
	return pegRejectedView{RoomID: roomID, SeatID: e.SeatID, Card: e.Card, Reason: e.Reason, Total: e.Total}
}
