package leaderboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/db/repository"
)

// SnapshotStore persists and loads leaderboard snapshots; repository.SnapshotRepository
// satisfies it.
type SnapshotStore interface {
	Insert(ctx context.Context, snap repository.Snapshot) (bool, error)
	Latest(ctx context.Context, window string) (repository.Snapshot, error)
}

// SnapshotWorker periodically persists Redis leaderboards into Postgres.
type SnapshotWorker struct {
	svc      *Service
	store    SnapshotStore
	logger   zerolog.Logger
	interval time.Duration
	topN     int
}

func NewSnapshotWorker(svc *Service, store SnapshotStore, interval time.Duration, topN int, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if topN <= 0 {
		topN = 50
	}
	return &SnapshotWorker{
		svc:      svc,
		store:    store,
		logger:   logger.With().Str("component", "leaderboard_snapshot_worker").Logger(),
		interval: interval,
		topN:     topN,
	}
}

// Run blocks until context cancellation.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.svc == nil || w.store == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	for _, window := range DefaultWindows {
		if err := w.snapshotWindow(ctx, window); err != nil {
			w.logger.Warn().Err(err).Str("window", window).Msg("snapshot failed")
		}
	}
}

func (w *SnapshotWorker) snapshotWindow(ctx context.Context, window string) error {
	entries, err := w.svc.Top(ctx, window, w.topN)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := json.Marshal(ToWSEntries(entries))
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	now := time.Now().UTC()

	inserted, err := w.store.Insert(ctx, repository.Snapshot{
		Window:      window,
		GeneratedAt: now,
		Entries:     data,
		SourceHash:  hex.EncodeToString(sum[:]),
	})
	if err != nil {
		return err
	}
	if !inserted {
		w.logger.Debug().Str("window", window).Msg("leaderboard unchanged, snapshot skipped")
		return nil
	}

	w.logger.Info().
		Str("window", window).
		Int("entries", len(entries)).
		Time("generated_at", now).
		Msg("leaderboard snapshot persisted")
	return nil
}
