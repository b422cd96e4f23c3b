package sqlcgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createGame = `-- name: CreateGame :exec
INSERT INTO games (game_id, room_code, topic, rounds, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

type CreateGameParams struct {
	GameID     pgtype.UUID        `json:"game_id"`
	RoomCode   string             `json:"room_code"`
	Topic      string             `json:"topic"`
	Rounds     int32              `json:"rounds"`
	StartedAt  pgtype.Timestamptz `json:"started_at"`
	FinishedAt pgtype.Timestamptz `json:"finished_at"`
}

func (q *Queries) CreateGame(ctx context.Context, arg CreateGameParams) error {
	_, err := q.db.Exec(ctx, createGame,
		arg.GameID,
		arg.RoomCode,
		arg.Topic,
		arg.Rounds,
		arg.StartedAt,
		arg.FinishedAt,
	)
	return err
}

const createGamePlayer = `-- name: CreateGamePlayer :exec
INSERT INTO game_players (game_id, participant_id, display_name, score, correct_count, placement, won)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateGamePlayerParams struct {
	GameID        pgtype.UUID `json:"game_id"`
	ParticipantID pgtype.UUID `json:"participant_id"`
	DisplayName   string      `json:"display_name"`
	Score         int32       `json:"score"`
	CorrectCount  int32       `json:"correct_count"`
	Placement     int32       `json:"placement"`
	Won           bool        `json:"won"`
}

func (q *Queries) CreateGamePlayer(ctx context.Context, arg CreateGamePlayerParams) error {
	_, err := q.db.Exec(ctx, createGamePlayer,
		arg.GameID,
		arg.ParticipantID,
		arg.DisplayName,
		arg.Score,
		arg.CorrectCount,
		arg.Placement,
		arg.Won,
	)
	return err
}

const listGamesByParticipant = `-- name: ListGamesByParticipant :many
SELECT g.game_id, g.room_code, g.topic, g.rounds, g.finished_at,
       gp.score, gp.correct_count, gp.placement, gp.won
FROM game_players gp
JOIN games g ON g.game_id = gp.game_id
WHERE gp.participant_id = $1
ORDER BY g.finished_at DESC
LIMIT $2
`

type ListGamesByParticipantParams struct {
	ParticipantID pgtype.UUID `json:"participant_id"`
	Limit         int32       `json:"limit"`
}

type ListGamesByParticipantRow struct {
	GameID       pgtype.UUID        `json:"game_id"`
	RoomCode     string             `json:"room_code"`
	Topic        string             `json:"topic"`
	Rounds       int32              `json:"rounds"`
	FinishedAt   pgtype.Timestamptz `json:"finished_at"`
	Score        int32              `json:"score"`
	CorrectCount int32              `json:"correct_count"`
	Placement    int32              `json:"placement"`
	Won          bool               `json:"won"`
}

func (q *Queries) ListGamesByParticipant(ctx context.Context, arg ListGamesByParticipantParams) ([]ListGamesByParticipantRow, error) {
	rows, err := q.db.Query(ctx, listGamesByParticipant, arg.ParticipantID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListGamesByParticipantRow
	for rows.Next() {
		var i ListGamesByParticipantRow
		if err := rows.Scan(
			&i.GameID,
			&i.RoomCode,
			&i.Topic,
			&i.Rounds,
			&i.FinishedAt,
			&i.Score,
			&i.CorrectCount,
			&i.Placement,
			&i.Won,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
