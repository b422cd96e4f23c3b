package match

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/trivia-rooms/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for room lookups and game history.
type HTTPHandlers struct {
	registry *Registry
	history  HistoryStore
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for room endpoints. history may be nil when
// persistence is disabled.
func NewHTTPHandlers(registry *Registry, history HistoryStore, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		registry: registry,
		history:  history,
		logger:   logger.With().Str("component", "room_http").Logger(),
	}
}

// RoomResponse is the public summary of a room shown on join screens.
type RoomResponse struct {
	Code        string   `json:"code"`
	State       State    `json:"state"`
	Joinable    bool     `json:"joinable"`
	Round       int      `json:"round"`
	TotalRounds int      `json:"total_rounds"`
	Players     []Player `json:"players"`
}

// GetRoom handles GET /v1/rooms/{code}
func (h *HTTPHandlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	code := NormalizeCode(strings.TrimPrefix(r.URL.Path, "/v1/rooms/"))
	if code == "" || strings.Contains(code, "/") {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRoomCode, "Room code is required")
		return
	}

	room := h.registry.Get(code)
	if room == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeRoomNotFound, "Room does not exist")
		return
	}

	snap := room.Snapshot()
	httperrors.RespondJSON(w, http.StatusOK, RoomResponse{
		Code:        snap.Code,
		State:       snap.State,
		Joinable:    snap.State == StateLobby,
		Round:       snap.Round,
		TotalRounds: snap.TotalRounds,
		Players:     snap.Players,
	})
}

// GetHistory handles GET /v1/players/{participant_id}/games?limit=20
func (h *HTTPHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	if h.history == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeFeatureNotAvailable, "Game history is not enabled")
		return
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/players/"), "/games")
	participantID, err := uuid.Parse(raw)
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "Invalid participant ID", "participant_id")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	games, err := h.history.ListByParticipant(r.Context(), participantID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("participant_id", participantID.String()).Msg("history lookup failed")
		httperrors.RespondInternalError(w, "Failed to load game history")
		return
	}
	if games == nil {
		games = []GameSummary{}
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]any{
		"participant_id": participantID,
		"games":          games,
	})
}
