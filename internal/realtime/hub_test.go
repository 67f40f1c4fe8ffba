package realtime

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, buffer int) *Client {
	c := &Client{
		hub:   h,
		send:  make(chan []byte, buffer),
		rooms: make(map[string]struct{}),
	}
	h.register(c)
	return c
}

func receive(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	default:
		t.Fatal("expected a pending message")
		return envelope{}
	}
}

func TestEmitReachesAllClients(t *testing.T) {
	h := NewHub(slog.New(slog.DiscardHandler))
	a := newTestClient(h, 4)
	b := newTestClient(h, 4)

	h.Emit("userJoinedEvent", map[string]string{"username": "mario"})

	for _, c := range []*Client{a, b} {
		env := receive(t, c)
		assert.Equal(t, "userJoinedEvent", env.Event)
	}
}

func TestEmitToRoomIsScoped(t *testing.T) {
	h := NewHub(slog.New(slog.DiscardHandler))
	member := newTestClient(h, 4)
	outsider := newTestClient(h, 4)
	h.joinRoom(member, "event:abc")

	h.EmitToRoom("event:abc", "newMessage", map[string]string{"message": "ciao"})

	env := receive(t, member)
	assert.Equal(t, "newMessage", env.Event)
	assert.Empty(t, outsider.send)
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	h := NewHub(slog.New(slog.DiscardHandler))
	c := newTestClient(h, 4)
	h.joinRoom(c, "event:abc")
	h.leaveRoom(c, "event:abc")

	h.EmitToRoom("event:abc", "newMessage", "ciao")
	assert.Empty(t, c.send)
}

func TestFullBufferNeverBlocks(t *testing.T) {
	h := NewHub(slog.New(slog.DiscardHandler))
	c := newTestClient(h, 1)

	// second emission overflows the buffer and must be dropped, not block
	h.Emit("userJoinedEvent", 1)
	h.Emit("userJoinedEvent", 2)

	assert.Len(t, c.send, 1)
}

func TestUnregisterCleansRooms(t *testing.T) {
	h := NewHub(slog.New(slog.DiscardHandler))
	c := newTestClient(h, 4)
	h.joinRoom(c, "event:abc")

	h.unregister(c)

	assert.Equal(t, 0, h.ClientCount())
	h.mu.RLock()
	_, exists := h.rooms["event:abc"]
	h.mu.RUnlock()
	assert.False(t, exists)

	// double unregister is a no-op
	h.unregister(c)
}

func TestJoinAfterUnregisterIgnored(t *testing.T) {
	h := NewHub(slog.New(slog.DiscardHandler))
	c := newTestClient(h, 4)
	h.unregister(c)

	h.joinRoom(c, "event:abc")
	h.mu.RLock()
	_, exists := h.rooms["event:abc"]
	h.mu.RUnlock()
	assert.False(t, exists)
}
