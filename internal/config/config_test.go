package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("PG_HOST", "")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Game.RoomCodeLength)
	assert.Equal(t, "0123456789", cfg.Game.RoomCodeAlphabet)
	assert.Equal(t, 6, cfg.Game.DefaultQuestionCount)
	assert.Equal(t, 7*time.Second, cfg.Game.IntroDwell)
	assert.Equal(t, 10, cfg.Game.AnswerWindowSeconds)
	assert.Equal(t, time.Second, cfg.Game.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.Game.RevealDwell)
	assert.Equal(t, 1, cfg.Game.ScoreIncrement)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Postgres.Enabled())
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROOM_CODE_ALPHABET", "ABCDEFGHJKLMNPQRSTUVWXYZ")
	t.Setenv("ANSWER_WINDOW_SECONDS", "15")
	t.Setenv("ROUND_REVEAL_DWELL", "2500ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "trivia")
	t.Setenv("PG_DATABASE", "rooms")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Game.AnswerWindowSeconds)
	assert.Equal(t, 2500*time.Millisecond, cfg.Game.RevealDwell)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Postgres.Enabled())
	assert.Contains(t, cfg.Postgres.DSN(), "host=db port=5432 user=trivia")
	assert.Contains(t, cfg.Postgres.DSN(), "dbname=rooms")
}

func TestLoadRejectsInvalidGame(t *testing.T) {
	cases := map[string]string{
		"ROOM_CODE_LENGTH":      "2",
		"ROOM_CODE_ALPHABET":    "7",
		"ANSWER_WINDOW_SECONDS": "0",
		"SCORE_INCREMENT":       "-1",
		"ROOM_MAX_PLAYERS":      "-3",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestLoadPostgres(t *testing.T) {
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_PORT", "6543")

	pg, err := LoadPostgres()
	require.NoError(t, err)
	assert.Equal(t, 6543, pg.Port)
	assert.Equal(t, "disable", pg.SSLMode)
}
