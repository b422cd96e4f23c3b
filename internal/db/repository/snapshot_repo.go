package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	sqlcgen "github.com/gokatarajesh/trivia-rooms/internal/db/sqlc"
)

// ErrSnapshotNotFound is returned when a window has never been snapshotted.
var ErrSnapshotNotFound = errors.New("leaderboard snapshot not found")

type snapshotStore interface {
	InsertLeaderboardSnapshot(ctx context.Context, arg sqlcgen.InsertLeaderboardSnapshotParams) (int64, error)
	ListRecentSnapshots(ctx context.Context, arg sqlcgen.ListRecentSnapshotsParams) ([]sqlcgen.LeaderboardSnapshot, error)
}

// Snapshot is one persisted copy of a leaderboard window. Entries is the JSON array
// served to clients.
type Snapshot struct {
	Window      string
	GeneratedAt time.Time
	Entries     []byte
	SourceHash  string
}

// SnapshotRepository stores periodic leaderboard snapshots.
type SnapshotRepository struct {
	store snapshotStore
}

// NewSnapshotRepository constructs a repository backed by pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return newSnapshotRepository(sqlcgen.New(pool))
}

func newSnapshotRepository(store snapshotStore) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// Insert stores snap. It reports false when an identical snapshot already exists.
func (r *SnapshotRepository) Insert(ctx context.Context, snap Snapshot) (bool, error) {
	n, err := r.store.InsertLeaderboardSnapshot(ctx, sqlcgen.InsertLeaderboardSnapshotParams{
		TimeWindow:  snap.Window,
		GeneratedAt: pgTime(snap.GeneratedAt),
		Entries:     snap.Entries,
		SourceHash:  snap.SourceHash,
	})
	if err != nil {
		return false, fmt.Errorf("insert snapshot %s: %w", snap.Window, err)
	}
	return n > 0, nil
}

// Latest returns the newest snapshot for window.
func (r *SnapshotRepository) Latest(ctx context.Context, window string) (Snapshot, error) {
	rows, err := r.store.ListRecentSnapshots(ctx, sqlcgen.ListRecentSnapshotsParams{
		TimeWindow: window,
		Limit:      1,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("list snapshots %s: %w", window, err)
	}
	if len(rows) == 0 {
		return Snapshot{}, ErrSnapshotNotFound
	}
	row := rows[0]
	return Snapshot{
		Window:      row.TimeWindow,
		GeneratedAt: row.GeneratedAt.Time,
		Entries:     row.Entries,
		SourceHash:  row.SourceHash,
	}, nil
}
