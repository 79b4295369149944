// Package realtime fans state-change events out to live viewer connections.
// It owns no spot or reservation data: just the registry of connections,
// their lot subscriptions, and delivery.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FuatYavas/ParkVision/internal/metrics"
)

// Conn is the slice of a websocket connection the hub needs: deadline-bounded
// writes and close. *websocket.Conn satisfies it; tests inject fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

const defaultWriteTimeout = 5 * time.Second

// Hub is the subscription registry and broadcast dispatcher. A Hub is
// constructed per process and shut down with it; nothing here is a package
// singleton, so tests build isolated instances.
type Hub struct {
	writeTimeout time.Duration

	mu      sync.RWMutex
	clients map[Conn]*client
	lotSubs map[int]map[Conn]struct{}
	closed  bool
}

type client struct {
	// writeMu serializes writes to one connection so events delivered to it
	// preserve dispatch order even when broadcasts run concurrently per
	// connection. closed is set under writeMu on unregister, so an in-flight
	// delivery that snapshotted the connection earlier never writes to it.
	writeMu sync.Mutex
	closed  bool
	subs    map[int]struct{}
}

func NewHub() *Hub {
	return NewHubWithTimeout(defaultWriteTimeout)
}

// NewHubWithTimeout builds a hub whose per-connection writes are bounded by
// the given deadline. Non-positive values fall back to the default.
func NewHubWithTimeout(writeTimeout time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Hub{
		writeTimeout: writeTimeout,
		clients:      make(map[Conn]*client),
		lotSubs:      make(map[int]map[Conn]struct{}),
	}
}

// Register adds a connection. Every registered connection belongs to the
// implicit all-connections topic and receives global broadcasts.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		conn.Close()
		return
	}
	if _, ok := h.clients[conn]; ok {
		return
	}
	h.clients[conn] = &client{subs: make(map[int]struct{})}
	metrics.WSConnections.Set(float64(len(h.clients)))
	log.Printf("realtime: client connected, total=%d", len(h.clients))
}

// Unregister removes a connection from every topic and closes it. Safe to
// call repeatedly and concurrently with in-progress broadcasts; once it
// returns, the registry holds no reference to the connection.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		for lotID := range c.subs {
			delete(h.lotSubs[lotID], conn)
			if len(h.lotSubs[lotID]) == 0 {
				delete(h.lotSubs, lotID)
			}
		}
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.writeMu.Lock()
		c.closed = true
		c.writeMu.Unlock()
		conn.Close()
		log.Printf("realtime: client disconnected, total=%d", total)
	}
}

// Subscribe adds the connection to a lot's topic. Unknown connections are
// ignored; the caller registers first.
func (h *Hub) Subscribe(conn Conn, lotID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	c.subs[lotID] = struct{}{}
	if h.lotSubs[lotID] == nil {
		h.lotSubs[lotID] = make(map[Conn]struct{})
	}
	h.lotSubs[lotID][conn] = struct{}{}
}

func (h *Hub) Unsubscribe(conn Conn, lotID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(c.subs, lotID)
	delete(h.lotSubs[lotID], conn)
	if len(h.lotSubs[lotID]) == 0 {
		delete(h.lotSubs, lotID)
	}
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll delivers the event to every registered connection.
func (h *Hub) BroadcastAll(event any) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.clients))
	for conn := range h.clients {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()
	metrics.WSBroadcasts.WithLabelValues("all").Inc()
	h.dispatch(targets, event)
}

// BroadcastToLot delivers the event to the connections subscribed to one lot.
func (h *Hub) BroadcastToLot(lotID int, event any) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.lotSubs[lotID]))
	for conn := range h.lotSubs[lotID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()
	metrics.WSBroadcasts.WithLabelValues("lot").Inc()
	h.dispatch(targets, event)
}

// dispatch attempts delivery to each target independently and concurrently,
// bounded by the write timeout, and returns once every attempt finished.
// A failed or timed-out attempt evicts that connection only; the others are
// unaffected.
func (h *Hub) dispatch(targets []Conn, event any) {
	if len(targets) == 0 {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: marshal event: %v", err)
		return
	}

	var wg sync.WaitGroup
	for _, conn := range targets {
		wg.Add(1)
		go func(conn Conn) {
			defer wg.Done()
			h.deliver(conn, payload)
		}(conn)
	}
	wg.Wait()
}

func (h *Hub) deliver(conn Conn, payload []byte) {
	h.mu.RLock()
	c, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		// Removed since the target snapshot; never write to it again.
		return
	}

	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return
	}
	conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	err := conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()

	if err != nil {
		log.Printf("realtime: delivery failed, evicting client: %v", err)
		metrics.WSEvictions.Inc()
		h.Unregister(conn)
	}
}

// Shutdown closes every connection and rejects new registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := make([]Conn, 0, len(h.clients))
	for conn, c := range h.clients {
		c.writeMu.Lock()
		c.closed = true
		c.writeMu.Unlock()
		conns = append(conns, conn)
	}
	h.clients = make(map[Conn]*client)
	h.lotSubs = make(map[int]map[Conn]struct{})
	metrics.WSConnections.Set(0)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
