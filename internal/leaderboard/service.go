package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/match"
	"github.com/gokatarajesh/trivia-rooms/internal/match/scoring"
	ws "github.com/gokatarajesh/trivia-rooms/pkg/http/ws"
)

// Supported leaderboard windows. Daily and weekly boards live in dated buckets.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowAllTime = "all_time"
)

const (
	defaultChannel = "lb:updates"
	defaultPrefix  = "lb"
	updateTopN     = 10
)

var (
	DefaultWindows = []string{WindowDaily, WindowWeekly, WindowAllTime}

	ErrUnknownWindow = errors.New("unknown leaderboard window")
)

// Entry is one participant's aggregate on a board.
type Entry struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Score         int       `json:"score"`
	Wins          int       `json:"wins"`
	Games         int       `json:"games"`
	Accuracy      float64   `json:"accuracy"`
	Correct       int       `json:"-"`
	Rounds        int       `json:"-"`
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN          int
	PubSubChannel string
	KeyPrefix     string
	Now           func() time.Time
}

// Service aggregates finished games into Redis sorted sets and announces changes over Pub/Sub.
type Service struct {
	redis   *redis.Client
	logger  zerolog.Logger
	topN    int
	channel string
	prefix  string
	now     func() time.Time
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	if opts.TopN <= 0 {
		opts.TopN = 50
	}
	if opts.PubSubChannel == "" {
		opts.PubSubChannel = defaultChannel
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultPrefix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		redis:   redis,
		logger:  logger.With().Str("component", "leaderboard").Logger(),
		topN:    opts.TopN,
		channel: opts.PubSubChannel,
		prefix:  opts.KeyPrefix,
		now:     opts.Now,
	}
}

// Channel is the Pub/Sub channel updates are published on.
func (s *Service) Channel() string { return s.channel }

// RecordGame adds every player's final score to each window. Players who scored nothing
// still count a game played.
func (s *Service) RecordGame(ctx context.Context, result match.GameResult) error {
	if len(result.Standings) == 0 {
		return nil
	}
	winners := make(map[uuid.UUID]struct{})
	for _, id := range scoring.Winners(result.Standings) {
		winners[id] = struct{}{}
	}

	now := s.now().UTC()
	pipe := s.redis.TxPipeline()
	for _, window := range DefaultWindows {
		key := s.boardKey(window, now)
		ttl := bucketTTL(window)
		for _, st := range result.Standings {
			_, won := winners[st.ID]
			meta := s.metaKey(key, st.ID)

			pipe.ZIncrBy(ctx, key, float64(st.Score), st.ID.String())
			pipe.HIncrBy(ctx, meta, "games", 1)
			pipe.HIncrBy(ctx, meta, "wins", int64(boolToInt(won)))
			pipe.HIncrBy(ctx, meta, "correct", int64(st.Correct))
			pipe.HIncrBy(ctx, meta, "rounds", int64(result.Rounds))
			pipe.HSet(ctx, meta, "display_name", st.Name)
			if ttl > 0 {
				pipe.Expire(ctx, meta, ttl)
			}
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboards: %w", err)
	}

	s.logger.Debug().
		Str("room_code", result.Code).
		Int("players", len(result.Standings)).
		Msg("game recorded on leaderboards")

	s.publishUpdates(ctx, result.Code)
	return nil
}

// Top returns up to limit entries of the current bucket of window, best first.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if !IsValidWindow(window) {
		return nil, ErrUnknownWindow
	}
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	key := s.boardKey(window, s.now().UTC())
	results, err := s.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard %s: %w", window, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(results))
	metas := make([]*redis.MapStringStringCmd, 0, len(results))
	pipe := s.redis.Pipeline()
	for _, z := range results {
		member, _ := z.Member.(string)
		id, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("skipping malformed leaderboard member")
			continue
		}
		entries = append(entries, Entry{ParticipantID: id, Score: int(z.Score)})
		metas = append(metas, pipe.HGetAll(ctx, s.metaKey(key, id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("fetch leaderboard metadata %s: %w", window, err)
	}

	for i := range entries {
		applyMeta(&entries[i], metas[i].Val())
	}
	return entries, nil
}

func (s *Service) publishUpdates(ctx context.Context, code string) {
	for _, window := range DefaultWindows {
		entries, err := s.Top(ctx, window, updateTopN)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to collect leaderboard update")
			continue
		}
		if len(entries) == 0 {
			continue
		}
		data, err := json.Marshal(ws.LeaderboardUpdatePayload{
			Window: window,
			Code:   code,
			Top:    ToWSEntries(entries),
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
			continue
		}
		if err := s.redis.Publish(ctx, s.channel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
		}
	}
}

// boardKey names the sorted set for window at t: lb:daily:2024-05-01, lb:weekly:2024-W18, lb:all_time.
func (s *Service) boardKey(window string, t time.Time) string {
	switch window {
	case WindowDaily:
		return fmt.Sprintf("%s:%s:%s", s.prefix, window, t.Format(time.DateOnly))
	case WindowWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%s:%s:%d-W%02d", s.prefix, window, year, week)
	default:
		return fmt.Sprintf("%s:%s", s.prefix, window)
	}
}

func (s *Service) metaKey(boardKey string, id uuid.UUID) string {
	return boardKey + ":meta:" + id.String()
}

// bucketTTL keeps a dated bucket around a little past its window so late readers still see it.
func bucketTTL(window string) time.Duration {
	switch window {
	case WindowDaily:
		return 48 * time.Hour
	case WindowWeekly:
		return 15 * 24 * time.Hour
	default:
		return 0
	}
}

// IsValidWindow reports whether window names a supported board.
func IsValidWindow(window string) bool {
	switch window {
	case WindowDaily, WindowWeekly, WindowAllTime:
		return true
	default:
		return false
	}
}

// ToWSEntries ranks entries for the wire, 1-based in input order.
func ToWSEntries(entries []Entry) []ws.LeaderboardEntry {
	out := make([]ws.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = ws.LeaderboardEntry{
			Rank:          i + 1,
			ParticipantID: e.ParticipantID.String(),
			DisplayName:   e.DisplayName,
			Score:         e.Score,
			Wins:          e.Wins,
			Games:         e.Games,
			Accuracy:      e.Accuracy,
		}
	}
	return out
}

func applyMeta(entry *Entry, data map[string]string) {
	entry.DisplayName = data["display_name"]
	entry.Wins = parseInt(data["wins"])
	entry.Games = parseInt(data["games"])
	entry.Correct = parseInt(data["correct"])
	entry.Rounds = parseInt(data["rounds"])
	entry.Accuracy = scoring.Accuracy(entry.Correct, entry.Rounds)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
