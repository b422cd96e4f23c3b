package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/trivia-rooms/pkg/http/errors"
	ws "github.com/gokatarajesh/trivia-rooms/pkg/http/ws"
)

// TokenValidator resolves an optional session token to a stable participant.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Handler manages WebSocket connections and routes room messages.
type Handler struct {
	coordinator *Coordinator
	hub         *ws.Hub
	sessions    TokenValidator
	upgrader    websocket.Upgrader
	logger      zerolog.Logger
}

// NewHandler creates a room WebSocket handler. sessions may be nil.
func NewHandler(coordinator *Coordinator, hub *ws.Hub, sessions TokenValidator, upgrader websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		hub:         hub,
		sessions:    sessions,
		upgrader:    upgrader,
		logger:      logger.With().Str("component", "room_ws").Logger(),
	}
}

// HandleConnection serves one participant until the socket closes, then removes
// them from every room unless a newer connection replaced this one.
func (h *Handler) HandleConnection(conn *websocket.Conn, participantID uuid.UUID, displayName string) {
	logger := h.logger.With().Str("participant_id", participantID.String()).Logger()
	wsConn := ws.NewConnection(conn, logger)
	h.hub.RegisterConnection(participantID, wsConn)

	go wsConn.WritePump()

	h.send(participantID, ws.TypeSession, ws.SessionPayload{ParticipantID: participantID.String()})

	ctx := context.Background()
	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(ctx, participantID, displayName, msg)
	})

	if h.hub.UnregisterConnection(participantID, wsConn) {
		h.coordinator.Disconnect(participantID)
	}
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, participantID uuid.UUID, displayName string, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeCreateRoom:
		return h.handleCreateRoom(participantID, displayName, msg.Payload)
	case ws.TypeJoinRoom:
		return h.handleJoinRoom(participantID, displayName, msg.Payload)
	case ws.TypeLeaveRoom:
		return h.handleLeaveRoom(participantID, msg.Payload)
	case ws.TypeStartGame:
		return h.handleStartGame(ctx, participantID, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(participantID, msg.Payload)
	case ws.TypePing:
		return h.send(participantID, ws.TypePong, struct{}{})
	default:
		return h.sendError(participantID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleCreateRoom(participantID uuid.UUID, displayName string, payload json.RawMessage) error {
	var req ws.CreateRoomPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return h.sendError(participantID, httperrors.ErrCodeInvalidPayload, "Invalid create_room payload")
		}
	}
	name := req.Name
	if name == "" {
		name = displayName
	}

	room, err := h.coordinator.Registry().CreateRoom(participantID, name)
	if err != nil {
		return h.sendRoomError(participantID, err)
	}

	if err := h.send(participantID, ws.TypeRoomCreated, ws.RoomCreatedPayload{Code: room.Code(), IsHost: true}); err != nil {
		return err
	}
	h.coordinator.AnnouncePlayers(room)
	return nil
}

func (h *Handler) handleJoinRoom(participantID uuid.UUID, displayName string, payload json.RawMessage) error {
	var req ws.JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil || NormalizeCode(req.Code) == "" {
		return h.sendError(participantID, httperrors.ErrCodeInvalidRoomCode, "Invalid join_room payload")
	}
	name := req.Name
	if name == "" {
		name = displayName
	}

	room, err := h.coordinator.Registry().JoinRoom(req.Code, participantID, name)
	if err != nil {
		return h.sendRoomError(participantID, err)
	}

	snap := room.Snapshot()
	if err := h.send(participantID, ws.TypeJoinedRoom, ws.JoinedRoomPayload{
		Code:          snap.Code,
		ParticipantID: participantID.String(),
		IsHost:        snap.HostID == participantID,
	}); err != nil {
		return err
	}
	h.coordinator.AnnouncePlayers(room)
	return nil
}

func (h *Handler) handleLeaveRoom(participantID uuid.UUID, payload json.RawMessage) error {
	var req ws.LeaveRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(participantID, httperrors.ErrCodeInvalidPayload, "Invalid leave_room payload")
	}
	if err := h.coordinator.Leave(req.Code, participantID); err != nil {
		return h.sendRoomError(participantID, err)
	}
	return nil
}

func (h *Handler) handleStartGame(ctx context.Context, participantID uuid.UUID, payload json.RawMessage) error {
	var req ws.StartGamePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(participantID, httperrors.ErrCodeInvalidPayload, "Invalid start_game payload")
	}
	if err := h.coordinator.StartGame(ctx, req.Code, participantID, req.QuestionCount); err != nil {
		return h.sendRoomError(participantID, err)
	}
	return nil
}

// handleSubmitAnswer never replies: late, early and non-member answers are dropped silently.
func (h *Handler) handleSubmitAnswer(participantID uuid.UUID, payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil
	}
	if err := h.coordinator.SubmitAnswer(req.Code, participantID, req.Choice); err != nil {
		h.logger.Debug().Err(err).
			Str("room_code", req.Code).
			Str("participant_id", participantID.String()).
			Msg("answer dropped")
	}
	return nil
}

func (h *Handler) sendRoomError(participantID uuid.UUID, err error) error {
	code, message := roomErrorCode(err)
	return h.sendError(participantID, code, message)
}

// roomErrorCode maps registry and coordinator errors to wire codes.
func roomErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return httperrors.ErrCodeRoomNotFound, "Room does not exist"
	case errors.Is(err, ErrAlreadyStarted):
		return httperrors.ErrCodeAlreadyStarted, "Game already started"
	case errors.Is(err, ErrNotHost):
		return httperrors.ErrCodeNotHost, "Only the host can start the game"
	case errors.Is(err, ErrNotAPlayer):
		return httperrors.ErrCodeNotAPlayer, "You are not in this room"
	case errors.Is(err, ErrRoomFull):
		return httperrors.ErrCodeRoomFull, "Room is full"
	case errors.Is(err, ErrNoCodeAvailable):
		return httperrors.ErrCodeNoCodeAvailable, "No room codes available, try again later"
	default:
		return httperrors.ErrCodeInternalError, "Something went wrong"
	}
}

func (h *Handler) send(participantID uuid.UUID, msgType string, payload any) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return h.hub.SendToParticipant(participantID, msg)
}

// sendError replies to the requester only; errors are never broadcast to the room.
func (h *Handler) sendError(participantID uuid.UUID, code, message string) error {
	return h.send(participantID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}
