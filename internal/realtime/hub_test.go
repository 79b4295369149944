package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeConn records written frames; failWrites makes every write fail.
type fakeConn struct {
	mu         sync.Mutex
	messages   [][]byte
	failWrites bool
	closed     bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("write failed")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.messages = append(c.messages, buf)
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHubBroadcastAll(t *testing.T) {
	h := NewHub()
	a, b := &fakeConn{}, &fakeConn{}
	h.Register(a)
	h.Register(b)

	h.BroadcastAll(map[string]string{"type": "hello"})

	if a.messageCount() != 1 || b.messageCount() != 1 {
		t.Errorf("message counts = %d, %d; want 1, 1", a.messageCount(), b.messageCount())
	}
	var decoded map[string]string
	if err := json.Unmarshal(a.messages[0], &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["type"] != "hello" {
		t.Errorf("payload = %v", decoded)
	}
}

func TestHubLotScopedBroadcast(t *testing.T) {
	h := NewHub()
	subscribed, other := &fakeConn{}, &fakeConn{}
	h.Register(subscribed)
	h.Register(other)
	h.Subscribe(subscribed, 7)

	h.BroadcastToLot(7, map[string]int{"parking_lot_id": 7})

	if subscribed.messageCount() != 1 {
		t.Errorf("subscriber got %d messages, want 1", subscribed.messageCount())
	}
	if other.messageCount() != 0 {
		t.Errorf("non-subscriber got %d messages, want 0", other.messageCount())
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register(conn)
	h.Subscribe(conn, 7)
	h.Unsubscribe(conn, 7)

	h.BroadcastToLot(7, "x")
	if conn.messageCount() != 0 {
		t.Errorf("got %d messages after unsubscribe, want 0", conn.messageCount())
	}
}

func TestHubFailingConnIsEvictedOthersUnaffected(t *testing.T) {
	h := NewHub()
	healthy, broken := &fakeConn{}, &fakeConn{failWrites: true}
	h.Register(healthy)
	h.Register(broken)

	h.BroadcastAll("first")

	if healthy.messageCount() != 1 {
		t.Errorf("healthy conn got %d messages, want 1", healthy.messageCount())
	}
	if !broken.isClosed() {
		t.Error("failing conn was not closed")
	}
	if h.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1 after eviction", h.ClientCount())
	}

	// The evicted connection gets no further attempts.
	h.BroadcastAll("second")
	if healthy.messageCount() != 2 {
		t.Errorf("healthy conn got %d messages, want 2", healthy.messageCount())
	}
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register(conn)
	h.Subscribe(conn, 3)

	h.Unregister(conn)
	h.Unregister(conn)

	if h.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", h.ClientCount())
	}
	h.BroadcastToLot(3, "x")
	if conn.messageCount() != 0 {
		t.Error("unregistered conn received a message")
	}
}

func TestHubNoDeliveryAfterUnregister(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register(conn)
	c := h.clients[conn]

	h.Unregister(conn)

	// A dispatch that snapshotted the connection before it disconnected and
	// still sees it in the registry must not write to it.
	h.clients[conn] = c
	h.deliver(conn, []byte(`"late"`))

	if conn.messageCount() != 0 {
		t.Errorf("got %d messages after unregister, want 0", conn.messageCount())
	}
}

func TestHubOrderingPerConnection(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register(conn)

	for i := 0; i < 20; i++ {
		h.BroadcastAll(i)
	}

	if conn.messageCount() != 20 {
		t.Fatalf("got %d messages, want 20", conn.messageCount())
	}
	for i, raw := range conn.messages {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if n != i {
			t.Fatalf("message %d carries %d, deliveries reordered", i, n)
		}
	}
}

func TestHubShutdownClosesAndRejects(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register(conn)

	h.Shutdown()

	if !conn.isClosed() {
		t.Error("connection not closed on shutdown")
	}
	late := &fakeConn{}
	h.Register(late)
	if !late.isClosed() {
		t.Error("registration after shutdown not rejected")
	}
	if h.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", h.ClientCount())
	}
}
