package domain

import "sync"

// Conn is the handle for one live client connection. The hub owns the mapping
// from identity to handle; the transport adaptor drains Events and writes them
// to the socket. A handle superseded by a reconnect is never notified, its
// deliveries simply start failing with ErrHandleGone.
type Conn struct {
	id     string
	remote string

	mu     sync.Mutex
	closed bool
	events chan Event
}

func NewConn(id, remote string, buffer int) *Conn {
	return &Conn{
		id:     id,
		remote: remote,
		events: make(chan Event, buffer),
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Remote() string {
	return c.remote
}

// Events is the stream the transport write pump drains. It is closed by Close.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// deliver enqueues an event without blocking. A closed handle or a handle
// whose buffer is full reports ErrHandleGone; the caller treats that as a
// normal, non-fatal condition.
func (c *Conn) deliver(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrHandleGone
	}
	select {
	case c.events <- event:
		return nil
	default:
		return ErrHandleGone
	}
}

// Close shuts the event stream. Safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}
