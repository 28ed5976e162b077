// Package session provides the transport-neutral boundary between live
// connections and the game core. Matches and the cluster address
// participants only through opaque session IDs; the actual transport (a
// WebSocket connection in production, a channel in tests) lives behind the
// Handle interface and is the only place allowed to send on the wire.
package session

import "sync"

// ID uniquely identifies a live connection.
type ID string

// Event is an outbound event deliverable to a session. EventName returns
// the wire-level event name the gateway publishes it under.
type Event interface {
	EventName() string
}

// Handle is the transport-neutral interface for communicating with one
// connected client.
type Handle interface {
	// ID returns the unique session identifier.
	ID() ID

	// Send delivers an event to the session asynchronously.
	// Must be non-blocking; implementations should use buffered channels.
	Send(evt Event)

	// Done returns a channel that closes when the session ends.
	Done() <-chan struct{}
}

// ChannelHandle is a Handle implementation backed by a Go channel. The
// gateway uses it to bridge write pumps, and tests use it to observe what
// a match emitted without a live transport.
type ChannelHandle struct {
	id       ID
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelHandle creates a channel-backed session handle. bufferSize
// controls how many events can be buffered before old ones are dropped.
func NewChannelHandle(id ID, bufferSize int) *ChannelHandle {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &ChannelHandle{
		id:     id,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier.
func (h *ChannelHandle) ID() ID {
	return h.id
}

// Send delivers an event to the session. If the buffer is full the oldest
// event is dropped so a slow consumer never blocks the tick loop.
func (h *ChannelHandle) Send(evt Event) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.events <- evt:
	default:
		select {
		case <-h.events:
		default:
		}
		select {
		case h.events <- evt:
		default:
		}
	}
}

// Events returns the channel the transport layer reads from.
func (h *ChannelHandle) Events() <-chan Event {
	return h.events
}

// Done returns the done channel.
func (h *ChannelHandle) Done() <-chan struct{} {
	return h.done
}

// Close marks the session as done. Safe to call multiple times.
func (h *ChannelHandle) Close() {
	h.doneOnce.Do(func() {
		close(h.done)
	})
}

// Hub tracks live sessions and fans events out to them. It is the only
// component that maps session IDs back to transports.
type Hub struct {
	mu       sync.RWMutex
	sessions map[ID]Handle
}

// NewHub creates an empty session hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[ID]Handle)}
}

// Register adds a session to the hub.
func (h *Hub) Register(s Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID()] = s
}

// Unregister removes a session from the hub.
func (h *Hub) Unregister(id ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Get retrieves a session by ID.
func (h *Hub) Get(id ID) (Handle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Count returns the number of registered sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends an event to every listed session. Unknown IDs are
// skipped; a participant may disconnect between snapshot build and send.
func (h *Hub) Broadcast(to []ID, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range to {
		if s, ok := h.sessions[id]; ok {
			s.Send(evt)
		}
	}
}
