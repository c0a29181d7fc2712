package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(h *Hub) *Client {
	return &Client{Hub: h, SessionID: "s", seat: NoSeat, Send: make(chan []byte, 8)}
}

func recv(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Envelope{}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoomAndSeatDelivery(t *testing.T) {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	a, b, other := testClient(h), testClient(h), testClient(h)
	for _, c := range []*Client{a, b, other} {
		h.Register(c)
	}
	a.Bind("r1", 0)
	b.Bind("r1", 1)
	other.Bind("r2", 0)
	h.Join(a, "r1")
	h.Join(b, "r1")
	h.Join(other, "r2")

	h.Broadcast("r1", "state:update", map[string]int{"n": 1})
	h.SendToSeat("r1", 1, "hand:your", []string{"5♣"})
	h.SendTo(a, "room:joined", map[string]int{"seat_id": 0})

	env := recv(t, a)
	assert.Equal(t, "state:update", env.Type)
	assert.NotEmpty(t, env.Timestamp)
	assert.Equal(t, "room:joined", recv(t, a).Type)

	assert.Equal(t, "state:update", recv(t, b).Type)
	env = recv(t, b)
	assert.Equal(t, "hand:your", env.Type)
	assert.Equal(t, []any{"5♣"}, env.Payload)

	assertNothing(t, other)
}

func TestHub_SeatMessagesFollowBoundRoom(t *testing.T) {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	c := testClient(h)
	h.Register(c)
	c.Bind("A", 2)
	h.Join(c, "A")

	// rebound to B, but the hub has not yet moved it out of A
	c.Bind("B", 2)
	h.SendToSeat("A", 2, "hand:your", []string{"secret"})
	h.Broadcast("A", "state:update", 1)

	env := recv(t, c)
	assert.Equal(t, "state:update", env.Type)
	assertNothing(t, c)

	h.Join(c, "B")
	h.SendToSeat("B", 2, "hand:your", []string{"5♣"})
	env = recv(t, c)
	assert.Equal(t, "hand:your", env.Type)
	assert.Equal(t, []any{"5♣"}, env.Payload)
}

func TestHub_JoinMovesRooms(t *testing.T) {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	c := testClient(h)
	h.Register(c)
	h.Join(c, "old")
	h.Join(c, "new")

	h.Broadcast("old", "state:update", nil)
	h.Broadcast("new", "state:update", 2)
	env := recv(t, c)
	assert.Equal(t, float64(2), env.Payload)
	assertNothing(t, c)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	c := testClient(h)
	h.Register(c)
	h.Join(c, "r")
	h.Unregister(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_StopIsSafe(t *testing.T) {
	h := NewHub()
	go h.Run()
	c := testClient(h)
	h.Register(c)
	h.Stop()
	h.Stop()

	// calls after Stop must not block
	done := make(chan struct{})
	go func() {
		h.Join(c, "r")
		h.Broadcast("r", "x", nil)
		h.Unregister(c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after Stop")
	}
}

func TestHubRef(t *testing.T) {
	first := NewHub()
	ref := NewHubRef(first)
	got, ok := ref.Get()
	require.True(t, ok)
	assert.Same(t, first, got)

	second := NewHub()
	ref.Set(second)
	got, _ = ref.Get()
	assert.Same(t, second, got)
}
