package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Hub tracks one live connection per participant and fans messages out to them.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection
	logger      zerolog.Logger
	onChange    func(active int)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		logger:      logger,
	}
}

// OnConnectionCountChange registers a callback invoked with the live connection count.
func (h *Hub) OnConnectionCountChange(fn func(active int)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// RegisterConnection adds a connection for a participant, closing any previous one.
func (h *Hub) RegisterConnection(participantID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	if old, exists := h.connections[participantID]; exists && old != conn {
		old.Close()
	}
	h.connections[participantID] = conn
	count, fn := len(h.connections), h.onChange
	h.mu.Unlock()

	if fn != nil {
		fn(count)
	}
	h.logger.Info().Str("participant_id", participantID.String()).Msg("connection registered")
}

// UnregisterConnection removes conn if it is still the participant's current connection.
// It reports whether the participant has no live connection left.
func (h *Hub) UnregisterConnection(participantID uuid.UUID, conn *Connection) bool {
	h.mu.Lock()
	current, exists := h.connections[participantID]
	if !exists {
		h.mu.Unlock()
		return true
	}
	if conn != nil && current != conn {
		h.mu.Unlock()
		conn.Close()
		return false
	}
	delete(h.connections, participantID)
	count, fn := len(h.connections), h.onChange
	h.mu.Unlock()

	current.Close()
	if fn != nil {
		fn(count)
	}
	h.logger.Info().Str("participant_id", participantID.String()).Msg("connection unregistered")
	return true
}

// SendToParticipant delivers a message to a specific participant.
func (h *Hub) SendToParticipant(participantID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[participantID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// Broadcast sends msg to every listed participant and returns the first failure.
func (h *Hub) Broadcast(participantIDs []uuid.UUID, msg Message) error {
	var firstErr error
	for _, id := range participantIDs {
		if err := h.SendToParticipant(id, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BroadcastAll sends a message to every connected participant.
func (h *Hub) BroadcastAll(msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for participantID, conn := range h.connections {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
			h.logger.Warn().Err(err).Str("participant_id", participantID.String()).Msg("broadcast_all_send_failed")
		}
	}
	return firstErr
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Participant connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
