package websocket

import (
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Hub tracks which connections watch which room and fans messages out to
// them. All membership changes and sends happen on the Run goroutine, so
// messages reach each client in the order they were queued.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	join       chan joinReq
	broadcast  chan Broadcast
	done       chan struct{}
	stopOnce   sync.Once

	rooms   map[string]map[*Client]bool
	members map[*Client]string
}

type joinReq struct {
	Client *Client
	Room   string
}

// Broadcast is one outbound message. With Client set it goes to that
// connection only; with Seat set it goes to the room's connections bound to
// that seat; otherwise to the whole room.
type Broadcast struct {
	Room    string
	Type    string
	Payload any
	Seat    *int
	Client  *Client
}

// Envelope is the wire format of every outbound message.
type Envelope struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinReq),
		broadcast:  make(chan Broadcast, 256),
		done:       make(chan struct{}),
		rooms:      map[string]map[*Client]bool{},
		members:    map[*Client]string{},
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for c := range h.members {
				h.removeClient(c)
			}
			return
		case c := <-h.register:
			h.members[c] = ""
		case c := <-h.unregister:
			h.removeClient(c)
		case jr := <-h.join:
			h.moveClientToRoom(jr.Client, jr.Room)
		case b := <-h.broadcast:
			h.deliver(b)
		}
	}
}

// Stop ends Run and closes every client's send channel. Calls made after
// Stop are dropped.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Join makes c a watcher of room, leaving any previous room. When Join
// returns the hub has taken the request, so anything queued afterwards for
// room reaches c.
func (h *Hub) Join(c *Client, room string) {
	select {
	case h.join <- joinReq{Client: c, Room: room}:
	case <-h.done:
	}
}

func (h *Hub) Broadcast(room, typ string, payload any) {
	h.Enqueue(Broadcast{Room: room, Type: typ, Payload: payload})
}

// SendToSeat queues a message for the connections bound to one seat.
func (h *Hub) SendToSeat(room string, seat int, typ string, payload any) {
	h.Enqueue(Broadcast{Room: room, Type: typ, Payload: payload, Seat: &seat})
}

// SendTo queues a message for a single connection.
func (h *Hub) SendTo(c *Client, typ string, payload any) {
	h.Enqueue(Broadcast{Type: typ, Payload: payload, Client: c})
}

func (h *Hub) Enqueue(b Broadcast) {
	select {
	case h.broadcast <- b:
	case <-h.done:
	}
}

func (h *Hub) removeClient(c *Client) {
	if c == nil {
		return
	}
	if room, ok := h.members[c]; ok {
		h.leaveRoom(c, room)
		delete(h.members, c)
	}
	c.closeSend()
}

func (h *Hub) leaveRoom(c *Client, room string) {
	if room == "" || h.rooms[room] == nil {
		return
	}
	delete(h.rooms[room], c)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) moveClientToRoom(c *Client, room string) {
	if c == nil {
		return
	}
	if prev, ok := h.members[c]; ok {
		h.leaveRoom(c, prev)
	}
	h.members[c] = room
	if room == "" {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = map[*Client]bool{}
	}
	h.rooms[room][c] = true
}

func (h *Hub) deliver(b Broadcast) {
	var targets []*Client
	switch {
	case b.Client != nil:
		if _, ok := h.members[b.Client]; ok {
			targets = []*Client{b.Client}
		}
	default:
		for c := range h.rooms[b.Room] {
			// A client rebinding to another room stays in this set until its
			// Join is processed; its bound room must match too.
			if b.Seat != nil && (c.roomID() != b.Room || c.seatID() != *b.Seat) {
				continue
			}
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(Envelope{
		Type:      b.Type,
		Payload:   b.Payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"room": b.Room, "type": b.Type}).Error("ws broadcast marshal error")
		return
	}

	for _, c := range targets {
		select {
		case c.Send <- data:
		default:
			// Backpressure / dead client.
			log.WithFields(log.Fields{"room": b.Room, "session": c.SessionID}).Warn("ws client too slow, dropping")
			h.removeClient(c)
		}
	}
}
