package sqlcgen

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Game struct {
	GameID     pgtype.UUID        `json:"game_id"`
	RoomCode   string             `json:"room_code"`
	Topic      string             `json:"topic"`
	Rounds     int32              `json:"rounds"`
	StartedAt  pgtype.Timestamptz `json:"started_at"`
	FinishedAt pgtype.Timestamptz `json:"finished_at"`
}

type GamePlayer struct {
	GameID        pgtype.UUID `json:"game_id"`
	ParticipantID pgtype.UUID `json:"participant_id"`
	DisplayName   string      `json:"display_name"`
	Score         int32       `json:"score"`
	CorrectCount  int32       `json:"correct_count"`
	Placement     int32       `json:"placement"`
	Won           bool        `json:"won"`
}

type LeaderboardSnapshot struct {
	SnapshotID  int64              `json:"snapshot_id"`
	TimeWindow  string             `json:"time_window"`
	GeneratedAt pgtype.Timestamptz `json:"generated_at"`
	Entries     []byte             `json:"entries"`
	SourceHash  string             `json:"source_hash"`
}
