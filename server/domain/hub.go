package domain

import "sync"

// Hub is the connection registry and broadcast channel shared by every
// connection lifecycle. It maps each canonical identity to its single active
// handle; a new connection for the same identity replaces the old one
// (last write wins).
type Hub struct {
	mu    sync.RWMutex
	conns map[Identity]*Conn
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[Identity]*Conn),
	}
}

// Register maps identity to conn, unconditionally replacing any existing
// handle. The superseded handle is not notified; it becomes orphaned and its
// deliveries fail from then on.
func (h *Hub) Register(identity Identity, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[identity] = conn
}

// Lookup returns the currently registered handle for identity. Absence means
// the identity is offline for routing purposes.
func (h *Hub) Lookup(identity Identity) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, ok := h.conns[identity]
	return conn, ok
}

// Unregister removes the mapping only if conn is still the registered handle
// for identity, and reports whether it did. A disconnect from a handle that
// was already superseded by a newer connection is a no-op; disconnect order
// versus reconnect order is not guaranteed by the transport, so the
// compare-and-remove must happen under one lock.
func (h *Hub) Unregister(identity Identity, conn *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.conns[identity]
	if !ok || current != conn {
		return false
	}
	delete(h.conns, identity)
	return true
}

// Count returns the number of distinct online identities. Diagnostic only.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.conns)
}

// SendTo delivers event to a single handle. ErrHandleGone means the handle
// disconnected or backed up between lookup and send.
func (h *Hub) SendTo(conn *Conn, event Event) error {
	return conn.deliver(event)
}

// Broadcast delivers event to every registered handle, fire-and-forget.
// Handles that fail are skipped; they are cleaned up by their own disconnect.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.deliver(event)
	}
}
