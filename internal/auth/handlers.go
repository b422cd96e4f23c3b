package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/trivia-rooms/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for guest sessions.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		logger:  logger.With().Str("component", "auth_http").Logger(),
	}
}

// CreateSession handles POST /v1/sessions
func (h *HTTPHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	if !h.authSvc.Enabled() {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeSessionUnavailable, "Sessions are not configured")
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	session, err := h.authSvc.CreateSession(req)
	if err != nil {
		if errors.Is(err, ErrDisplayNameRequired) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, err.Error(), "display_name")
			return
		}
		h.logger.Error().Err(err).Msg("create session failed")
		httperrors.RespondInternalError(w, "Could not create session")
		return
	}

	httperrors.RespondJSON(w, http.StatusCreated, session)
}

// GetMe handles GET /v1/sessions/me (requires auth middleware)
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		httperrors.RespondError(w, http.StatusUnauthorized, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"participant_id": claims.ParticipantID.String(),
		"display_name":   claims.DisplayName,
		"expires_at":     claims.ExpiresAt.Time,
	})
}
