package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sqlcgen "github.com/gokatarajesh/trivia-rooms/internal/db/sqlc"
)

type mockSnapshotStore struct {
	mock.Mock
}

func (m *mockSnapshotStore) InsertLeaderboardSnapshot(ctx context.Context, arg sqlcgen.InsertLeaderboardSnapshotParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSnapshotStore) ListRecentSnapshots(ctx context.Context, arg sqlcgen.ListRecentSnapshotsParams) ([]sqlcgen.LeaderboardSnapshot, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]sqlcgen.LeaderboardSnapshot), args.Error(1)
}

func TestSnapshotRepository_Insert(t *testing.T) {
	store := new(mockSnapshotStore)
	repo := newSnapshotRepository(store)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	params := sqlcgen.InsertLeaderboardSnapshotParams{
		TimeWindow:  "daily",
		GeneratedAt: pgTime(now),
		Entries:     []byte(`[]`),
		SourceHash:  "abc",
	}
	store.On("InsertLeaderboardSnapshot", mock.Anything, params).Return(int64(1), nil).Once()
	store.On("InsertLeaderboardSnapshot", mock.Anything, params).Return(int64(0), nil).Once()

	snap := Snapshot{Window: "daily", GeneratedAt: now, Entries: []byte(`[]`), SourceHash: "abc"}
	inserted, err := repo.Insert(context.Background(), snap)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Insert(context.Background(), snap)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate hash is skipped")
	store.AssertExpectations(t)
}

func TestSnapshotRepository_Latest(t *testing.T) {
	store := new(mockSnapshotStore)
	repo := newSnapshotRepository(store)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	store.On("ListRecentSnapshots", mock.Anything, sqlcgen.ListRecentSnapshotsParams{TimeWindow: "weekly", Limit: 1}).
		Return([]sqlcgen.LeaderboardSnapshot{{TimeWindow: "weekly", GeneratedAt: pgTime(now), Entries: []byte(`[{"rank":1}]`)}}, nil)
	store.On("ListRecentSnapshots", mock.Anything, sqlcgen.ListRecentSnapshotsParams{TimeWindow: "daily", Limit: 1}).
		Return([]sqlcgen.LeaderboardSnapshot{}, nil)

	snap, err := repo.Latest(context.Background(), "weekly")
	require.NoError(t, err)
	assert.Equal(t, now, snap.GeneratedAt)
	assert.JSONEq(t, `[{"rank":1}]`, string(snap.Entries))

	_, err = repo.Latest(context.Background(), "daily")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}
