package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-rooms/internal/db/repository"
	"github.com/gokatarajesh/trivia-rooms/internal/match"
	"github.com/gokatarajesh/trivia-rooms/internal/match/scoring"
	ws "github.com/gokatarajesh/trivia-rooms/pkg/http/ws"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis, *redis.Client, *clock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	clk := &clock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	svc := NewService(client, zerolog.Nop(), ServiceOptions{Now: clk.Now})
	return svc, mr, client, clk
}

func game(rounds int, standings ...scoring.Standing) match.GameResult {
	return match.GameResult{GameID: uuid.New(), Code: "4821", Rounds: rounds, Standings: scoring.Rank(standings)}
}

func TestRecordGameAggregatesAcrossGames(t *testing.T) {
	svc, mr, _, _ := newTestService(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, svc.RecordGame(ctx, game(4,
		scoring.Standing{ID: alice, Name: "Alice", Score: 3, Correct: 3},
		scoring.Standing{ID: bob, Name: "Bob", Score: 1, Correct: 1},
	)))
	require.NoError(t, svc.RecordGame(ctx, game(4,
		scoring.Standing{ID: alice, Name: "Alice", Score: 0, Correct: 0},
		scoring.Standing{ID: bob, Name: "Bobby", Score: 4, Correct: 4},
	)))

	for _, window := range DefaultWindows {
		top, err := svc.Top(ctx, window, 10)
		require.NoError(t, err)
		require.Len(t, top, 2, window)

		assert.Equal(t, bob, top[0].ParticipantID)
		assert.Equal(t, "Bobby", top[0].DisplayName)
		assert.Equal(t, 5, top[0].Score)
		assert.Equal(t, 1, top[0].Wins)
		assert.Equal(t, 2, top[0].Games)
		assert.InDelta(t, 5.0/8.0, top[0].Accuracy, 1e-9)

		assert.Equal(t, alice, top[1].ParticipantID)
		assert.Equal(t, 3, top[1].Score)
		assert.Equal(t, 1, top[1].Wins)
	}

	assert.Positive(t, mr.TTL("lb:daily:2024-05-01"))
	assert.Positive(t, mr.TTL("lb:weekly:2024-W18"))
	assert.Zero(t, mr.TTL("lb:all_time"))
}

func TestDailyBoardRollsOver(t *testing.T) {
	svc, _, _, clk := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordGame(ctx, game(2, scoring.Standing{ID: uuid.New(), Name: "Alice", Score: 2, Correct: 2})))

	clk.Set(clk.Now().Add(24 * time.Hour))
	daily, err := svc.Top(ctx, WindowDaily, 10)
	require.NoError(t, err)
	assert.Empty(t, daily)

	weekly, err := svc.Top(ctx, WindowWeekly, 10)
	require.NoError(t, err)
	assert.Len(t, weekly, 1)

	allTime, err := svc.Top(ctx, WindowAllTime, 10)
	require.NoError(t, err)
	assert.Len(t, allTime, 1)
}

func TestTopRejectsUnknownWindow(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Top(context.Background(), "monthly", 10)
	assert.ErrorIs(t, err, ErrUnknownWindow)
}

func TestRecordGamePublishesUpdates(t *testing.T) {
	svc, _, client, _ := newTestService(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, svc.Channel())
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	alice := uuid.New()
	require.NoError(t, svc.RecordGame(ctx, game(1, scoring.Standing{ID: alice, Name: "Alice", Score: 1, Correct: 1})))

	seen := map[string]ws.LeaderboardUpdatePayload{}
	for len(seen) < len(DefaultWindows) {
		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)
		var evt ws.LeaderboardUpdatePayload
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
		seen[evt.Window] = evt
	}
	evt := seen[WindowAllTime]
	assert.Equal(t, "4821", evt.Code)
	require.Len(t, evt.Top, 1)
	assert.Equal(t, alice.String(), evt.Top[0].ParticipantID)
	assert.Equal(t, 1, evt.Top[0].Rank)
}

type recordingFanout struct {
	mu   sync.Mutex
	msgs []ws.Message
}

func (f *recordingFanout) BroadcastAll(msg ws.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *recordingFanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func TestBroadcasterRelaysPubSub(t *testing.T) {
	svc, _, client, _ := newTestService(t)
	fanout := &recordingFanout{}
	b := NewBroadcaster(client, fanout, svc.Channel(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	payload := `{"window":"daily","top":[]}`
	require.Eventually(t, func() bool {
		client.Publish(context.Background(), svc.Channel(), payload)
		return fanout.count() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	fanout.mu.Lock()
	defer fanout.mu.Unlock()
	assert.Equal(t, ws.TypeLeaderboardUpdate, fanout.msgs[0].Type)
	assert.JSONEq(t, payload, string(fanout.msgs[0].Payload))
}

func TestBroadcasterDropsBadPayloads(t *testing.T) {
	fanout := &recordingFanout{}
	b := NewBroadcaster(nil, fanout, "", zerolog.Nop())

	b.forward("not json")
	b.forward(`{"window":"monthly"}`)
	assert.Zero(t, fanout.count())
}

type memorySnapshots struct {
	mu    sync.Mutex
	saved map[string]repository.Snapshot
	err   error
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{saved: make(map[string]repository.Snapshot)}
}

func (m *memorySnapshots) Insert(_ context.Context, snap repository.Snapshot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.saved[snap.Window]; ok && prev.SourceHash == snap.SourceHash {
		return false, nil
	}
	m.saved[snap.Window] = snap
	return true, nil
}

func (m *memorySnapshots) Latest(_ context.Context, window string) (repository.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return repository.Snapshot{}, m.err
	}
	snap, ok := m.saved[window]
	if !ok {
		return repository.Snapshot{}, repository.ErrSnapshotNotFound
	}
	return snap, nil
}

func TestSnapshotWorkerPersistsWindows(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	store := newMemorySnapshots()
	w := NewSnapshotWorker(svc, store, time.Minute, 5, zerolog.Nop())

	w.tick(context.Background())
	assert.Empty(t, store.saved, "empty boards are not snapshotted")

	require.NoError(t, svc.RecordGame(context.Background(), game(1, scoring.Standing{ID: uuid.New(), Name: "Alice", Score: 1, Correct: 1})))
	w.tick(context.Background())
	require.Len(t, store.saved, len(DefaultWindows))

	var entries []ws.LeaderboardEntry
	require.NoError(t, json.Unmarshal(store.saved[WindowDaily].Entries, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Alice", entries[0].DisplayName)
	assert.NotEmpty(t, store.saved[WindowDaily].SourceHash)
}

func TestHTTPHandlerServesRedisThenSnapshot(t *testing.T) {
	svc, mr, _, _ := newTestService(t)
	store := newMemorySnapshots()
	h := NewHTTPHandler(svc, store, zerolog.Nop())

	require.NoError(t, svc.RecordGame(context.Background(), game(1, scoring.Standing{ID: uuid.New(), Name: "Alice", Score: 1, Correct: 1})))
	NewSnapshotWorker(svc, store, time.Minute, 5, zerolog.Nop()).tick(context.Background())

	get := func(path string) (*httptest.ResponseRecorder, Response) {
		rec := httptest.NewRecorder()
		h.HandleGet(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body Response
		if rec.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		}
		return rec, body
	}

	rec, body := get("/v1/leaderboards/all_time?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "redis", body.Source)
	require.Len(t, body.Top, 1)

	mr.Close()
	rec, body = get("/v1/leaderboards/all_time")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "snapshot", body.Source)
	require.Len(t, body.Top, 1)
	assert.Equal(t, "Alice", body.Top[0].DisplayName)

	rec, _ = get("/v1/leaderboards/monthly")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPHandlerDisabled(t *testing.T) {
	h := NewHTTPHandler(nil, nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/v1/leaderboards/daily", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
