package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/trivia-rooms/internal/match/scoring"
)

// State is a room's lifecycle phase. Transitions only move forward.
type State string

const (
	StateLobby      State = "lobby"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
)

const (
	DefaultHostName = "Host"
	defaultPlayer   = "Player"
	maxNameLength   = 32
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrAlreadyStarted  = errors.New("game already started")
	ErrNotHost         = errors.New("only the host can start the game")
	ErrNotAPlayer      = errors.New("participant is not in this room")
	ErrRoomFull        = errors.New("room is full")
	ErrNoCodeAvailable = errors.New("no room code available")
	ErrWindowClosed    = errors.New("answer window closed")
	ErrInvalidChoice   = errors.New("choice out of range")
)

// Player is a read-only view of one room member.
type Player struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Score  int       `json:"score"`
	IsHost bool      `json:"is_host"`
}

// Snapshot is a point-in-time copy of a room for HTTP summaries and tests.
type Snapshot struct {
	Code             string    `json:"code"`
	State            State     `json:"state"`
	HostID           uuid.UUID `json:"host_id"`
	Players          []Player  `json:"players"`
	Round            int       `json:"round"`
	TotalRounds      int       `json:"total_rounds"`
	AcceptingAnswers bool      `json:"accepting_answers"`
	CreatedAt        time.Time `json:"created_at"`
}

// Departure describes the effect of one participant leaving a room.
type Departure struct {
	Code        string
	Room        *Room
	Deleted     bool
	HostChanged bool
	NewHostID   uuid.UUID
}

// GameResult is handed to every ResultRecorder once a room finishes all rounds.
type GameResult struct {
	GameID     uuid.UUID
	Code       string
	Topic      string
	Rounds     int
	StartedAt  time.Time
	FinishedAt time.Time
	Standings  []scoring.Standing
}

// GameSummary is one finished game from a single participant's point of view.
type GameSummary struct {
	GameID     uuid.UUID `json:"game_id"`
	Code       string    `json:"code"`
	Topic      string    `json:"topic"`
	Rounds     int       `json:"rounds"`
	FinishedAt time.Time `json:"finished_at"`
	Score      int       `json:"score"`
	Correct    int       `json:"correct"`
	Placement  int       `json:"placement"`
	Won        bool      `json:"won"`
}

// HistoryStore lists finished games per participant.
type HistoryStore interface {
	ListByParticipant(ctx context.Context, participantID uuid.UUID, limit int) ([]GameSummary, error)
}

// ResultRecorder persists or aggregates finished games.
type ResultRecorder interface {
	RecordGame(ctx context.Context, result GameResult) error
}

// ResultRecorderFunc adapts a function to ResultRecorder.
type ResultRecorderFunc func(ctx context.Context, result GameResult) error

func (f ResultRecorderFunc) RecordGame(ctx context.Context, result GameResult) error {
	return f(ctx, result)
}

// Observer receives lifecycle counters; metrics.Collector satisfies it.
type Observer interface {
	RoomCount(n int)
	GameStarted()
	GameFinished()
	AnswerRecorded()
	AnswerDropped()
}

type nopObserver struct{}

func (nopObserver) RoomCount(int)   {}
func (nopObserver) GameStarted()    {}
func (nopObserver) GameFinished()   {}
func (nopObserver) AnswerRecorded() {}
func (nopObserver) AnswerDropped()  {}
