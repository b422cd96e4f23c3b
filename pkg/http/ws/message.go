package ws

import (
	"encoding/json"
	"fmt"
)

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypeStartGame    = "start_game"
	TypeSubmitAnswer = "submit_answer"
	TypePing         = "ping"

	// Server -> Client
	TypeSession           = "session"
	TypeRoomCreated       = "room_created"
	TypeJoinedRoom        = "joined_room"
	TypePlayerList        = "player_list"
	TypeGameStarted       = "game_started"
	TypeRoundAnnounced    = "round_announced"
	TypeChoicesOpened     = "choices_opened"
	TypeCountdownTick     = "countdown_tick"
	TypeRoundRevealed     = "round_revealed"
	TypeGameFinished      = "game_finished"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
	TypePong              = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed envelope.
func NewMessage(msgType string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Client Messages (incoming)

type CreateRoomPayload struct {
	Name string `json:"name,omitempty"`
}

type JoinRoomPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type LeaveRoomPayload struct {
	Code string `json:"code"`
}

type StartGamePayload struct {
	Code          string `json:"code"`
	QuestionCount int    `json:"question_count,omitempty"`
}

type SubmitAnswerPayload struct {
	Code   string `json:"code"`
	Choice int    `json:"choice"`
}

// Server Messages (outgoing)

type SessionPayload struct {
	ParticipantID string `json:"participant_id"`
}

type RoomCreatedPayload struct {
	Code   string `json:"code"`
	IsHost bool   `json:"is_host"`
}

type JoinedRoomPayload struct {
	Code          string `json:"code"`
	ParticipantID string `json:"participant_id"`
	IsHost        bool   `json:"is_host"`
}

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"is_host"`
}

type PlayerListPayload struct {
	Code    string   `json:"code"`
	Players []Player `json:"players"`
}

type GameStartedPayload struct {
	Code        string `json:"code"`
	TotalRounds int    `json:"total_rounds"`
}

type RoundAnnouncedPayload struct {
	Prompt      string `json:"prompt"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"total_rounds"`
}

type ChoicesOpenedPayload struct {
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"`
	WindowSeconds int      `json:"window_seconds"`
}

type CountdownTickPayload struct {
	SecondsRemaining int `json:"seconds_remaining"`
}

type ScoreEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RoundRevealedPayload is sent once per participant; YourAnswer is null when
// that participant did not answer inside the window.
type RoundRevealedPayload struct {
	Prompt       string       `json:"prompt"`
	Choices      []string     `json:"choices"`
	CorrectIndex int          `json:"correct_index"`
	Fact         string       `json:"fact,omitempty"`
	Scores       []ScoreEntry `json:"scores"`
	YourAnswer   *int         `json:"your_answer"`
}

type GameFinishedPayload struct {
	FinalScores []ScoreEntry `json:"final_scores"`
}

type LeaderboardUpdatePayload struct {
	Window string             `json:"window"`
	Top    []LeaderboardEntry `json:"top"`
	Code   string             `json:"code,omitempty"`
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	ParticipantID string  `json:"participant_id"`
	DisplayName   string  `json:"display_name"`
	Score         int     `json:"score"`
	Wins          int     `json:"wins"`
	Games         int     `json:"games"`
	Accuracy      float64 `json:"accuracy"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
