package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cribbage-rooms/backend/internal/auth"
	"cribbage-rooms/backend/internal/game/common"
	"cribbage-rooms/backend/internal/game/cribbage"
	"cribbage-rooms/backend/internal/models"
	"cribbage-rooms/backend/internal/rooms"
	ws "cribbage-rooms/backend/pkg/websocket"
)

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type testConn struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server) *testConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	tc := &testConn{t: t, conn: conn}
	tc.expect(msgConnected)
	return tc
}

func (c *testConn) send(typ string, payload any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(gin.H{"type": typ, "payload": payload}))
}

// until reads messages, skipping any that do not match.
func (c *testConn) until(match func(wireMessage) bool) wireMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var m wireMessage
		require.NoError(c.t, c.conn.ReadJSON(&m))
		if match(m) {
			return m
		}
	}
}

func (c *testConn) expect(typ string) wireMessage {
	c.t.Helper()
	return c.until(func(m wireMessage) bool { return m.Type == typ })
}

func (c *testConn) rejection() rejectedView {
	c.t.Helper()
	var rv rejectedView
	require.NoError(c.t, json.Unmarshal(c.expect(msgRejected).Payload, &rv))
	return rv
}

func (c *testConn) join(room, name string) joinedView {
	c.t.Helper()
	c.send(msgRoomJoin, gin.H{"room_id": room, "display_name": name})
	var jv joinedView
	require.NoError(c.t, json.Unmarshal(c.expect(msgRoomJoined).Payload, &jv))
	return jv
}

func (c *testConn) handOf(size int) handView {
	c.t.Helper()
	var hv handView
	c.until(func(m wireMessage) bool {
		if m.Type != msgHandYour {
			return false
		}
		require.NoError(c.t, json.Unmarshal(m.Payload, &hv))
		return len(hv.Cards) == size
	})
	return hv
}

func startServer(t *testing.T, store *rooms.Store, db *sql.DB) *httptest.Server {
	t.Helper()
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	r := gin.New()
	r.GET("/ws", WebSocketHandler(func() (*ws.Hub, bool) { return hub, true }, store, db, testConfig()))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocket_JoinAndDeal(t *testing.T) {
	store := rooms.NewStore()
	srv := startServer(t, store, nil)

	names := []string{"Ann", "Ben", "Cy", "Di"}
	conns := make([]*testConn, len(names))
	for i, n := range names {
		conns[i] = dial(t, srv)
		jv := conns[i].join("alpha", n)
		assert.Equal(t, i, jv.SeatID)
		assert.Equal(t, n, jv.Name)
		assert.NotEmpty(t, jv.SeatToken)
		assert.NotEmpty(t, jv.SessionID)
	}

	// seat 0 deals; seat 1 may not
	conns[1].send(msgHostDeal, nil)
	assert.Equal(t, rejectedView{Type: msgHostDeal, Reason: "NOT_DEALER"}, conns[1].rejection())

	conns[0].send(msgHostDeal, nil)

	// the snapshot goes out before the private hands
	var view cribbage.PublicState
	conns[3].until(func(m wireMessage) bool {
		if m.Type != msgStateUpdate {
			return false
		}
		require.NoError(t, json.Unmarshal(m.Payload, &view))
		return view.Phase == cribbage.PhaseCrib
	})
	for seat := 0; seat < 4; seat++ {
		assert.Equal(t, 6, view.HandCounts[seat])
	}

	for i, c := range conns {
		hv := c.handOf(6)
		assert.Equal(t, i, hv.SeatID)
		assert.Equal(t, "alpha", hv.RoomID)
	}

	// cards outside the hand are refused and the hand is unchanged
	hand := mustHand(t, store, "alpha", 2)
	other := mustHand(t, store, "alpha", 3)
	conns[2].send(msgCribSelect, gin.H{"cards": []string{other[0].String(), other[1].String()}})
	assert.Equal(t, "CARD_NOT_IN_HAND", conns[2].rejection().Reason)

	conns[2].send(msgCribSelect, gin.H{"cards": []string{hand[0].String(), hand[1].String()}})
	hv := conns[2].handOf(4)
	assert.Equal(t, hand[2:], hv.Cards)

	conns[2].send(msgCribSelect, gin.H{"cards": []string{hand[2].String(), hand[3].String()}})
	assert.Equal(t, "CRIB_ALREADY_CONTRIBUTED", conns[2].rejection().Reason)
}

func TestWebSocket_Rejections(t *testing.T) {
	srv := startServer(t, rooms.NewStore(), nil)
	c := dial(t, srv)

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "INVALID_JSON", c.rejection().Reason)

	c.send(msgPegShow, gin.H{"card": "5♠"})
	assert.Equal(t, rejectedView{Type: msgPegShow, Reason: "NOT_SEATED"}, c.rejection())

	c.send(msgPegShow, gin.H{"card": "Z♠"})
	assert.Equal(t, "INVALID_CARD", c.rejection().Reason)

	c.send("peg:dance", nil)
	assert.Equal(t, "UNKNOWN_MESSAGE_TYPE", c.rejection().Reason)

	c.send(msgRoomJoin, gin.H{"room_id": "  ", "display_name": "Ann"})
	assert.Equal(t, "INVALID_ROOM", c.rejection().Reason)

	c.join("alpha", "Ann")
	c.send(msgHostDeal, nil)
	assert.Equal(t, "NOT_ENOUGH_PLAYERS", c.rejection().Reason)

	c.send(msgPegAdd, gin.H{"seat_id": 0, "delta": 0})
	assert.Equal(t, "INVALID_DELTA", c.rejection().Reason)

	c.send(msgPegShow, gin.H{"room_id": "beta", "card": "5♠"})
	assert.Equal(t, "SEAT_MISMATCH", c.rejection().Reason)
}

func TestWebSocket_RejoinWithSeatToken(t *testing.T) {
	store := rooms.NewStore()
	srv := startServer(t, store, nil)

	first := dial(t, srv)
	first.join("alpha", "Ann")
	ben := dial(t, srv).join("alpha", "Ben")

	again := dial(t, srv)
	again.send(msgRoomRejoin, gin.H{"room_id": "alpha", "seat_token": ben.SeatToken})
	var jv joinedView
	require.NoError(t, json.Unmarshal(again.expect(msgRoomJoined).Payload, &jv))
	assert.Equal(t, 1, jv.SeatID)
	assert.Equal(t, "Ben", jv.Name)

	// the rejoined connection acts for seat 1
	again.send(msgPegAdd, gin.H{"seat_id": 1, "delta": 5})
	var view cribbage.PublicState
	first.until(func(m wireMessage) bool {
		if m.Type != msgStateUpdate {
			return false
		}
		require.NoError(t, json.Unmarshal(m.Payload, &view))
		return len(view.Players) == 2 && view.Players[1].Score == 5
	})

	// a token for another room is refused
	stranger := dial(t, srv)
	stranger.send(msgRoomRejoin, gin.H{"room_id": "beta", "seat_token": ben.SeatToken})
	assert.Equal(t, "SEAT_MISMATCH", stranger.rejection().Reason)
	stranger.send(msgRoomRejoin, gin.H{"room_id": "beta", "seat_token": "not-a-token"})
	assert.Equal(t, "SEAT_MISMATCH", stranger.rejection().Reason)

	// a valid token for a room the server no longer holds
	tok, err := auth.GenerateSeatToken("gamma", 0, "Ann", testConfig())
	require.NoError(t, err)
	stranger.send(msgRoomRejoin, gin.H{"room_id": "gamma", "seat_token": tok})
	assert.Equal(t, "ROOM_NOT_FOUND", stranger.rejection().Reason)

	// refused rejoins leave no rooms behind
	assert.Equal(t, 1, store.Len())
}

func TestWebSocket_Journal(t *testing.T) {
	db := openTestDB(t)
	srv := startServer(t, rooms.NewStore(), db)

	c := dial(t, srv)
	c.join("alpha", "Ann")
	c.send(msgPegAdd, gin.H{"seat_id": 0, "delta": 3})

	assert.Eventually(t, func() bool {
		events, err := models.ListRoomEvents(context.Background(), db, "alpha", 10)
		return err == nil && len(events) == 2 && events[0].Action == msgPegAdd
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWebSocket_HubUnavailable(t *testing.T) {
	r := gin.New()
	r.GET("/ws", WebSocketHandler(func() (*ws.Hub, bool) { return nil, false }, rooms.NewStore(), nil, testConfig()))
	w := serve(r, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func mustHand(t *testing.T, store *rooms.Store, roomID string, seat int) []common.Card {
	t.Helper()
	room, ok := store.Get(roomID)
	require.True(t, ok)
	var hand []common.Card
	require.NoError(t, room.Do(func(st *cribbage.State) error {
		hand = st.Hand(seat)
		return nil
	}))
	return hand
}
