package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Event is one message fanned out to live subscribers. Events are fire and
// forget: nothing is stored or replayed for connections arriving later.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SubjectRoom names the room that receives subject-wide events. Enrolled
// students join it for the lifetime of their stream connection.
func SubjectRoom(subjectID string) string {
	return "subject_" + subjectID
}

// Subscription is one live connection's receive side. Drain Events until it
// closes, and call Cancel exactly once when done.
type Subscription struct {
	UserID string
	Events chan Event
	cancel func()
	once   sync.Once
}

// Cancel detaches the subscription from the hub and closes Events.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Hub is the registry of live subscriber connections and named rooms. All
// state is process-local; restarting the process drops every subscription.
type Hub struct {
	mu     sync.RWMutex
	closed bool
	// conns holds every open subscription per user; one user may hold
	// several (multiple tabs).
	conns  map[string]map[*Subscription]struct{}
	rooms  map[string]map[string]struct{}
	logger *zap.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		conns:  make(map[string]map[*Subscription]struct{}),
		rooms:  make(map[string]map[string]struct{}),
		logger: logger,
	}
}

// Subscribe registers a connection for the user and returns its
// subscription. Returns nil when the hub has shut down.
func (h *Hub) Subscribe(userID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	sub := &Subscription{UserID: userID, Events: make(chan Event, 16)}
	sub.cancel = func() { h.drop(userID, sub) }

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*Subscription]struct{})
	}
	h.conns[userID][sub] = struct{}{}
	h.logger.Debug("subscriber attached", zap.String("user_id", userID))
	return sub
}

func (h *Hub) drop(userID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.conns[userID]; ok {
		if _, live := subs[sub]; live {
			delete(subs, sub)
			close(sub.Events)
		}
		if len(subs) == 0 {
			delete(h.conns, userID)
		}
	}
}

// JoinRoom adds the user to a named room.
func (h *Hub) JoinRoom(room, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][userID] = struct{}{}
}

// LeaveRoom removes the user from a named room.
func (h *Hub) LeaveRoom(room, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// PublishToUser delivers an event to every live connection of one user.
// Slow consumers with a full buffer are skipped rather than blocked on.
func (h *Hub) PublishToUser(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for sub := range h.conns[userID] {
		select {
		case sub.Events <- event:
		default:
			h.logger.Debug("subscriber buffer full, event dropped", zap.String("user_id", userID))
		}
	}
}

// PublishToRoom delivers an event to every member of a room.
func (h *Hub) PublishToRoom(room string, event Event) {
	h.mu.RLock()
	members := make([]string, 0, len(h.rooms[room]))
	for userID := range h.rooms[room] {
		members = append(members, userID)
	}
	h.mu.RUnlock()
	for _, userID := range members {
		h.PublishToUser(userID, event)
	}
}

// Subscribers reports the number of live connections for a user.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Close shuts the hub down, closing every open subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for userID, subs := range h.conns {
		for sub := range subs {
			close(sub.Events)
		}
		delete(h.conns, userID)
	}
	h.rooms = make(map[string]map[string]struct{})
}
