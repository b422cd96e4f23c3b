package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlcgen "github.com/gokatarajesh/trivia-rooms/internal/db/sqlc"
	"github.com/gokatarajesh/trivia-rooms/internal/match"
	"github.com/gokatarajesh/trivia-rooms/internal/match/scoring"
)

const defaultHistoryLimit = 20

type gameStore interface {
	CreateGame(ctx context.Context, arg sqlcgen.CreateGameParams) error
	CreateGamePlayer(ctx context.Context, arg sqlcgen.CreateGamePlayerParams) error
	ListGamesByParticipant(ctx context.Context, arg sqlcgen.ListGamesByParticipantParams) ([]sqlcgen.ListGamesByParticipantRow, error)
}

// txRunner executes fn against a store bound to a single transaction.
type txRunner func(ctx context.Context, fn func(gameStore) error) error

// GameRepository persists finished games and their final standings.
type GameRepository struct {
	store gameStore
	inTx  txRunner
}

// NewGameRepository constructs a repository backed by pool.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return newGameRepository(sqlcgen.New(pool), func(ctx context.Context, fn func(gameStore) error) error {
		return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			return fn(sqlcgen.New(tx))
		})
	})
}

func newGameRepository(store gameStore, inTx txRunner) *GameRepository {
	return &GameRepository{store: store, inTx: inTx}
}

// RecordGame writes the game row and one row per player in a single transaction.
// result.Standings must already be ranked; tied scores share a placement.
func (r *GameRepository) RecordGame(ctx context.Context, result match.GameResult) error {
	placements := scoring.Placements(result.Standings)
	winners := make(map[uuid.UUID]struct{})
	for _, id := range scoring.Winners(result.Standings) {
		winners[id] = struct{}{}
	}

	err := r.inTx(ctx, func(store gameStore) error {
		if err := store.CreateGame(ctx, sqlcgen.CreateGameParams{
			GameID:     pgUUID(result.GameID),
			RoomCode:   result.Code,
			Topic:      result.Topic,
			Rounds:     int32(result.Rounds),
			StartedAt:  pgTime(result.StartedAt),
			FinishedAt: pgTime(result.FinishedAt),
		}); err != nil {
			return fmt.Errorf("insert game: %w", err)
		}

		for i, s := range result.Standings {
			_, won := winners[s.ID]
			if err := store.CreateGamePlayer(ctx, sqlcgen.CreateGamePlayerParams{
				GameID:        pgUUID(result.GameID),
				ParticipantID: pgUUID(s.ID),
				DisplayName:   s.Name,
				Score:         int32(s.Score),
				CorrectCount:  int32(s.Correct),
				Placement:     int32(placements[i]),
				Won:           won,
			}); err != nil {
				return fmt.Errorf("insert game player %s: %w", s.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record game %s: %w", result.GameID, err)
	}
	return nil
}

// ListByParticipant returns the participant's most recent games, newest first.
func (r *GameRepository) ListByParticipant(ctx context.Context, participantID uuid.UUID, limit int) ([]match.GameSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryLimit
	}
	rows, err := r.store.ListGamesByParticipant(ctx, sqlcgen.ListGamesByParticipantParams{
		ParticipantID: pgUUID(participantID),
		Limit:         int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	out := make([]match.GameSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.GameSummary{
			GameID:     uuid.UUID(row.GameID.Bytes),
			Code:       row.RoomCode,
			Topic:      row.Topic,
			Rounds:     int(row.Rounds),
			FinishedAt: row.FinishedAt.Time,
			Score:      int(row.Score),
			Correct:    int(row.CorrectCount),
			Placement:  int(row.Placement),
			Won:        row.Won,
		})
	}
	return out, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
