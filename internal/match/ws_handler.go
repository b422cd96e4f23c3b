package match

import (
	"net/http"

	"github.com/google/uuid"
)

// HandleWebSocket upgrades the request. A valid ?token= session reuses its participant
// ID and display name; otherwise the connection gets a fresh anonymous ID.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	participantID := uuid.New()
	displayName := ""

	if token := r.URL.Query().Get("token"); token != "" && h.sessions != nil {
		claims, err := h.sessions.ValidateToken(token)
		if err != nil {
			h.logger.Warn().Err(err).Msg("websocket session token rejected, issuing anonymous id")
		} else {
			participantID = claims.ParticipantID
			displayName = claims.DisplayName
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn, participantID, displayName)
}
