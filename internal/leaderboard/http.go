package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/db/repository"
	httperrors "github.com/gokatarajesh/trivia-rooms/pkg/http/errors"
	ws "github.com/gokatarajesh/trivia-rooms/pkg/http/ws"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// HTTPHandler exposes REST endpoints for leaderboard queries. Either dependency may be nil.
type HTTPHandler struct {
	svc       *Service
	snapshots SnapshotStore
	logger    zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, snapshots SnapshotStore, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// Response is the body of GET /v1/leaderboards/{window}.
type Response struct {
	Window      string                `json:"window"`
	Top         []ws.LeaderboardEntry `json:"top"`
	Source      string                `json:"source"`
	RetrievedAt string                `json:"retrieved_at"`
}

// HandleGet responds with the current leaderboard for a window.
// Route: GET /v1/leaderboards/{window}?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	window := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/leaderboards/"), "/")
	if !IsValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "Unknown leaderboard window")
		return
	}
	if h.svc == nil && h.snapshots == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeFeatureNotAvailable, "Leaderboards are not enabled")
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxLimit {
			limit = parsed
		}
	}

	ctx := r.Context()
	var (
		top       []ws.LeaderboardEntry
		source    = "redis"
		redisDown bool
	)

	if h.svc != nil {
		if entries, err := h.svc.Top(ctx, window, limit); err == nil {
			top = ToWSEntries(entries)
		} else {
			redisDown = true
			h.logger.Warn().Err(err).Str("window", window).Msg("redis leaderboard fetch failed")
		}
	}

	if len(top) == 0 && h.snapshots != nil {
		snap, err := h.snapshotFallback(ctx, window, limit)
		switch {
		case err == nil:
			source = "snapshot"
			top = snap
		case redisDown && !errors.Is(err, repository.ErrSnapshotNotFound):
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeLeaderboardFetchFailed, "Failed to load leaderboard")
			return
		}
	}
	if top == nil {
		top = []ws.LeaderboardEntry{}
	}

	httperrors.RespondJSON(w, http.StatusOK, Response{
		Window:      window,
		Top:         top,
		Source:      source,
		RetrievedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HTTPHandler) snapshotFallback(ctx context.Context, window string, limit int) ([]ws.LeaderboardEntry, error) {
	snap, err := h.snapshots.Latest(ctx, window)
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			h.logger.Warn().Err(err).Str("window", window).Msg("snapshot fetch failed")
		}
		return nil, err
	}

	var entries []ws.LeaderboardEntry
	if err := json.Unmarshal(snap.Entries, &entries); err != nil {
		h.logger.Warn().Err(err).Msg("snapshot payload decode failed")
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
