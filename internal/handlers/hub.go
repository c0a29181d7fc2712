package handlers

import (
	"cribbage-rooms/backend/internal/game/cribbage"
	ws "cribbage-rooms/backend/pkg/websocket"
)

// Outbound message types.
const (
	msgStateUpdate = "state:update"
	msgHandYour    = "hand:your"
	msgRoomJoined  = "room:joined"
	msgPegRejected = "peg:rejected"
	msgRejected    = "action:rejected"
	msgConnected   = "connected"
)

// publish queues the public snapshot for the whole room and the private hand
// of every seat in out.HandsChanged. Callers hold the room lock, so snapshots
// leave in the order the actions were applied.
func publish(hub *ws.Hub, st *cribbage.State, out cribbage.Outcome) {
	if hub == nil {
		return
	}
	room := st.RoomID()
	hub.Broadcast(room, msgStateUpdate, st.PublicView())
	for _, seat := range out.HandsChanged {
		hub.SendToSeat(room, seat, msgHandYour, handFor(st, seat))
	}
}
