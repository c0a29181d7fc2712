package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// NoSeat marks a connection that is not bound to any seat yet.
const NoSeat = -1

// Client is a single websocket connection. It is bound to at most one seat in
// one room at a time.
type Client struct {
	Conn      *websocket.Conn
	Hub       *Hub
	SessionID string

	mu   sync.RWMutex
	room string
	seat int

	closeOnce sync.Once
	Send      chan []byte
}

func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Conn:      conn,
		Hub:       hub,
		SessionID: uuid.NewString(),
		seat:      NoSeat,
		Send:      make(chan []byte, 256),
	}
}

// Bind records the room and seat this connection acts for.
func (c *Client) Bind(room string, seat int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
	c.seat = seat
}

// Binding returns the bound room and seat. ok is false until Bind is called.
func (c *Client) Binding() (room string, seat int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room, c.seat, c.room != "" && c.seat != NoSeat
}

func (c *Client) seatID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seat
}

func (c *Client) roomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *Client) ReadPump(onMessage func([]byte)) {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("session", c.SessionID).Debug("ws read closed")
			}
			return
		}
		if onMessage != nil {
			onMessage(message)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithError(err).WithField("session", c.SessionID).Debug("ws ping error")
				return
			}
		}
	}
}
