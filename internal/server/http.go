package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/config"
	"github.com/gokatarajesh/trivia-rooms/internal/logging"
)

// NewWSUpgrader builds an upgrader that only accepts the listed origins.
// "*" (or an empty list) accepts any origin; requests without an Origin header are allowed.
func NewWSUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(o)] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			_, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
			return ok
		},
	}
}

// Routes are the feature handlers mounted on the API mux. Nil handlers are skipped.
type Routes struct {
	WebSocket     http.HandlerFunc
	RoomSummary   http.HandlerFunc
	CreateSession http.HandlerFunc
	SessionMe     http.Handler
	Leaderboard   http.HandlerFunc
	PlayerHistory http.HandlerFunc
}

// NewHTTPServer wires base routes (health, metrics, ping) plus feature routes.
// pool and redis may be nil when those dependencies are disabled.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, routes Routes) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewMux(cfg, logger, pool, redis, routes),
	}
}

// NewMux builds the route table; split out so tests can mount it on httptest.
func NewMux(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, routes Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, pool, redis); err != nil {
			log := logging.FromContext(ctx)
			log.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if routes.WebSocket != nil {
		mux.HandleFunc("/ws", routes.WebSocket)
	}
	if routes.RoomSummary != nil {
		mux.HandleFunc("/v1/rooms/", routes.RoomSummary)
	}
	if routes.CreateSession != nil {
		mux.HandleFunc("/v1/sessions", routes.CreateSession)
	}
	if routes.SessionMe != nil {
		mux.Handle("/v1/sessions/me", routes.SessionMe)
	}
	if routes.Leaderboard != nil {
		mux.HandleFunc("/v1/leaderboards/", routes.Leaderboard)
	}

	if routes.PlayerHistory != nil {
		mux.HandleFunc("/v1/players/", routes.PlayerHistory)
	}

	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return mux
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
	}
	if redis != nil {
		if err := redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
