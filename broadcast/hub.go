// Package broadcast manages the set of live duplex connections for a
// workspace and is the single place fan-out happens: other components
// emit one logical message and never iterate connections themselves.
package broadcast

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/inkhaven/easel/log"
)

// Conn is one live duplex connection. Send delivers an encoded frame;
// implementations own their own write synchronization.
type Conn interface {
	// ID uniquely identifies the connection within its hub.
	ID() string
	// Send delivers one encoded message to the peer.
	Send(data []byte) error
	// Close tears down the connection.
	Close() error
}

// Hub is the per-workspace connection set with fan-out delivery.
// A send failure on one connection evicts that connection and never
// aborts delivery to the rest.
type Hub struct {
	logger *log.Logger

	mu    sync.Mutex
	conns map[string]Conn
	order []string // registration order, for deterministic fan-out
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger: logger,
		conns:  make(map[string]Conn),
	}
}

// Register adds a connection to the set.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.conns[conn.ID()]; exists {
		return
	}
	h.conns[conn.ID()] = conn
	h.order = append(h.order, conn.ID())
	h.logger.Info("connection registered", map[string]any{
		"conn_id": conn.ID(),
		"total":   len(h.conns),
	})
}

// Unregister removes a connection from the set. Unknown ids are a no-op.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(conn.ID())
}

// removeLocked deletes a connection by id. Caller must hold mu.
func (h *Hub) removeLocked(id string) {
	if _, exists := h.conns[id]; !exists {
		return
	}
	delete(h.conns, id)
	for i, oid := range h.order {
		if oid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.logger.Info("connection unregistered", map[string]any{
		"conn_id": id,
		"total":   len(h.conns),
	})
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast serializes the message once and delivers it to every
// registered connection. A failing connection is logged and evicted;
// the remaining deliveries proceed. An empty set is a no-op.
//
// The hub mutex is held across the fan-out, which both serializes
// concurrent broadcasters (send order per connection matches issue
// order) and provides the single-writer discipline connection
// implementations require.
func (h *Hub) Broadcast(message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode broadcast message: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var failed []string
	for _, id := range h.order {
		conn := h.conns[id]
		if err := conn.Send(data); err != nil {
			h.logger.Warn("broadcast send failed, dropping connection", map[string]any{
				"conn_id": id,
				"error":   err.Error(),
			})
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		conn := h.conns[id]
		h.removeLocked(id)
		if conn != nil {
			_ = conn.Close()
		}
	}
	return nil
}

// SendTo delivers a message to a single connection. A send failure
// evicts the connection, mirroring Broadcast semantics.
func (h *Hub) SendTo(conn Conn, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := conn.Send(data); err != nil {
		h.logger.Warn("send failed, dropping connection", map[string]any{
			"conn_id": conn.ID(),
			"error":   err.Error(),
		})
		h.removeLocked(conn.ID())
		_ = conn.Close()
		return fmt.Errorf("send to %s: %w", conn.ID(), err)
	}
	return nil
}

// CloseAll tears down every connection and empties the set.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, id)
	}
	h.order = nil
}
