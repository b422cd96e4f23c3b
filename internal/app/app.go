package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/auth"
	"github.com/gokatarajesh/trivia-rooms/internal/auth/jwt"
	"github.com/gokatarajesh/trivia-rooms/internal/config"
	"github.com/gokatarajesh/trivia-rooms/internal/db/repository"
	"github.com/gokatarajesh/trivia-rooms/internal/leaderboard"
	"github.com/gokatarajesh/trivia-rooms/internal/logging"
	"github.com/gokatarajesh/trivia-rooms/internal/match"
	"github.com/gokatarajesh/trivia-rooms/internal/match/scoring"
	"github.com/gokatarajesh/trivia-rooms/internal/metrics"
	"github.com/gokatarajesh/trivia-rooms/internal/question"
	"github.com/gokatarajesh/trivia-rooms/internal/question/ai"
	"github.com/gokatarajesh/trivia-rooms/internal/question/external"
	"github.com/gokatarajesh/trivia-rooms/internal/server"
	ws "github.com/gokatarajesh/trivia-rooms/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server) and the room runtime.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	coordinator    *match.Coordinator
	fetcher        *question.FetcherWorker
	lbBroadcaster  *leaderboard.Broadcaster
	snapshotWorker *leaderboard.SnapshotWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps the logger, optional Postgres and Redis, the room runtime and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	collector := metrics.New(prometheus.DefaultRegisterer)

	var pool *pgxpool.Pool
	if cfg.Postgres.Enabled() {
		p, err := pgxpool.New(ctx, cfg.Postgres.DSN()+" pool_max_conns=10")
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pool = p
	} else {
		logger.Warn().Msg("PG_HOST not set; game history and leaderboard snapshots disabled")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping failed; continuing")
		}
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; question cache and leaderboards disabled")
	}

	authSvc := auth.NewService(auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			Secret: []byte(cfg.Security.SessionSecret),
			TTL:    cfg.Security.SessionTTL,
			Issuer: cfg.Name,
		},
	}, logger)
	if !authSvc.Enabled() {
		logger.Warn().Msg("SESSION_JWT_SECRET not set; every WebSocket gets an anonymous participant")
	}
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	questionSvc := buildQuestionService(cfg, redisClient, collector, logger)
	var fetcher *question.FetcherWorker
	if cfg.Game.PrefetchInterval > 0 {
		fetcher = question.NewFetcherWorker(questionSvc, cfg.Game.Topic, cfg.Game.DefaultQuestionCount,
			cfg.Game.PrefetchInterval, cfg.Game.QuestionFetchTimeout, logger)
	}

	var (
		recorders []match.ResultRecorder
		history   match.HistoryStore
		snapshots leaderboard.SnapshotStore
	)
	if pool != nil {
		gameRepo := repository.NewGameRepository(pool)
		recorders = append(recorders, gameRepo)
		history = gameRepo
		snapshots = repository.NewSnapshotRepository(pool)
	}

	var (
		leaderboardSvc *leaderboard.Service
		lbBroadcaster  *leaderboard.Broadcaster
		snapshotWorker *leaderboard.SnapshotWorker
	)
	wsHub := ws.NewHub(logger.With().Str("component", "ws_hub").Logger())
	wsHub.OnConnectionCountChange(collector.ConnectionCount)

	if redisClient != nil {
		leaderboardSvc = leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
			TopN: cfg.Leaderboard.SnapshotTopN,
		})
		recorders = append(recorders, leaderboardSvc)
		lbBroadcaster = leaderboard.NewBroadcaster(redisClient, wsHub, leaderboardSvc.Channel(), logger)
		if snapshots != nil && cfg.Leaderboard.SnapshotInterval > 0 {
			snapshotWorker = leaderboard.NewSnapshotWorker(leaderboardSvc, snapshots,
				cfg.Leaderboard.SnapshotInterval, cfg.Leaderboard.SnapshotTopN, logger)
		}
	}

	registry := match.NewRegistry(match.RegistryConfig{
		CodeLength: cfg.Game.RoomCodeLength,
		Alphabet:   cfg.Game.RoomCodeAlphabet,
		MaxPlayers: cfg.Game.MaxPlayers,
	}, collector, logger)

	coordinator := match.NewCoordinator(registry, questionSvc, wsHub, logger, match.CoordinatorOptions{
		Timings:      roundTimings(cfg.Game),
		Topic:        cfg.Game.Topic,
		DefaultCount: cfg.Game.DefaultQuestionCount,
		Scorer:       scoring.NewEngine(cfg.Game.ScoreIncrement),
		Recorders:    recorders,
		Observer:     collector,
	})

	roomWS := match.NewHandler(coordinator, wsHub, authSvc, server.NewWSUpgrader(cfg.CORS.AllowedOrigins), logger)
	roomHTTP := match.NewHTTPHandlers(registry, history, logger)
	lbHTTP := leaderboard.NewHTTPHandler(leaderboardSvc, snapshots, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Routes{
		WebSocket:     roomWS.HandleWebSocket,
		RoomSummary:   roomHTTP.GetRoom,
		CreateSession: authHandlers.CreateSession,
		SessionMe:     auth.AuthMiddleware(authSvc, logger)(auth.RequireAuth(http.HandlerFunc(authHandlers.GetMe))),
		Leaderboard:   lbHTTP.HandleGet,
		PlayerHistory: roomHTTP.GetHistory,
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		coordinator:    coordinator,
		fetcher:        fetcher,
		lbBroadcaster:  lbBroadcaster,
		snapshotWorker: snapshotWorker,
		bgCancels:      make([]context.CancelFunc, 0, 2),
	}, nil
}

// buildQuestionService chains the configured providers: AI generator, OpenTDB, The Trivia API.
func buildQuestionService(cfg *config.App, redisClient *redis.Client, collector *metrics.Collector, logger zerolog.Logger) *question.Service {
	var sources []question.Source
	if cfg.AI.APIKey != "" {
		sources = append(sources, ai.NewGenerator(ai.Config{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.HTTPTimeout,
		}, logger))
	}
	if cfg.External.OpenTDBEnabled {
		sources = append(sources, external.NewOpenTDBClient(cfg.External.OpenTDBBaseURL, nil))
	}
	if cfg.External.TriviaAPIEnabled {
		sources = append(sources, external.NewTriviaAPIClient(cfg.External.TriviaAPIBaseURL, cfg.External.TriviaAPIKey, nil))
	}
	if len(sources) == 0 {
		logger.Warn().Msg("no question providers configured; serving the built-in question list")
	}

	var cache question.PackCache
	if redisClient != nil {
		cache = question.NewCache(redisClient, cfg.Redis.QuestionCacheTTL)
	}

	return question.NewService(cache, sources, logger, question.ServiceOptions{
		FetchTimeout: cfg.Game.QuestionFetchTimeout,
		Metrics:      collector,
	})
}

func roundTimings(g config.Game) match.Timings {
	return match.Timings{
		Intro:         g.IntroDwell,
		Tick:          g.TickInterval,
		WindowSeconds: g.AnswerWindowSeconds,
		Reveal:        g.RevealDwell,
	}
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	if err := a.coordinator.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("round loops did not stop in time")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}
	if a.fetcher != nil {
		a.fetcher.Stop()
	}

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.fetcher != nil {
		go a.fetcher.Run()
	}

	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}

	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("leaderboard snapshot worker stopped")
			}
		}()
	}
}
