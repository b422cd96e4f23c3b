package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"trivia-rooms"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`
	StaticDir               string        `env:"STATIC_DIR"`

	Game        Game
	Redis       Redis
	Postgres    Postgres
	Security    Security
	AI          AI
	External    External
	Leaderboard Leaderboard
	CORS        CORS
}

// Game groups room and round defaults.
type Game struct {
	RoomCodeLength       int           `env:"ROOM_CODE_LENGTH" envDefault:"4"`
	RoomCodeAlphabet     string        `env:"ROOM_CODE_ALPHABET" envDefault:"0123456789"`
	MaxPlayers           int           `env:"ROOM_MAX_PLAYERS" envDefault:"0"`
	Topic                string        `env:"QUESTION_TOPIC" envDefault:"ocean pollution"`
	DefaultQuestionCount int           `env:"DEFAULT_QUESTION_COUNT" envDefault:"6"`
	QuestionFetchTimeout time.Duration `env:"QUESTION_FETCH_TIMEOUT" envDefault:"8s"`
	IntroDwell           time.Duration `env:"ROUND_INTRO_DWELL" envDefault:"7s"`
	AnswerWindowSeconds  int           `env:"ANSWER_WINDOW_SECONDS" envDefault:"10"`
	TickInterval         time.Duration `env:"COUNTDOWN_TICK_INTERVAL" envDefault:"1s"`
	RevealDwell          time.Duration `env:"ROUND_REVEAL_DWELL" envDefault:"5s"`
	ScoreIncrement       int           `env:"SCORE_INCREMENT" envDefault:"1"`
	PrefetchInterval     time.Duration `env:"QUESTION_PREFETCH_INTERVAL" envDefault:"0s"`
}

// Redis holds cache + leaderboard configuration. Empty Addr disables both.
type Redis struct {
	Addr             string        `env:"REDIS_ADDR"`
	DB               int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize         int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	QuestionCacheTTL time.Duration `env:"QUESTION_CACHE_TTL" envDefault:"10m"`
}

// Postgres captures connection info for game history. Empty Host disables persistence.
type Postgres struct {
	Host     string `env:"PG_HOST"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Enabled reports whether a database host was configured.
func (p Postgres) Enabled() bool {
	return p.Host != ""
}

// DSN renders a libpq-style connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Security stores secrets for session tokens.
type Security struct {
	SessionSecret string        `env:"SESSION_JWT_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

// AI configures the OpenAI-compatible question generator.
type AI struct {
	BaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	APIKey      string        `env:"OPENAI_API_KEY"`
	Model       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	HTTPTimeout time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"6s"`
}

// External toggles the public trivia APIs used after the AI generator.
type External struct {
	OpenTDBEnabled   bool   `env:"OPENTDB_ENABLED" envDefault:"false"`
	OpenTDBBaseURL   string `env:"OPENTDB_BASE_URL"`
	TriviaAPIEnabled bool   `env:"TRIVIA_API_ENABLED" envDefault:"false"`
	TriviaAPIBaseURL string `env:"TRIVIA_API_BASE_URL"`
	TriviaAPIKey     string `env:"TRIVIA_API_KEY"`
}

// Leaderboard governs snapshotting and broadcast behavior.
type Leaderboard struct {
	SnapshotInterval time.Duration `env:"LEADERBOARD_SNAPSHOT_INTERVAL" envDefault:"5m"`
	SnapshotTopN     int           `env:"LEADERBOARD_SNAPSHOT_TOP" envDefault:"50"`
}

// CORS lists the origins allowed to open a WebSocket. "*" allows any origin.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Game.validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	return cfg, nil
}

// LoadPostgres parses only the database settings (used by the migrator).
func LoadPostgres() (Postgres, error) {
	var pg Postgres
	if err := env.Parse(&pg); err != nil {
		return Postgres{}, fmt.Errorf("parse postgres config: %w", err)
	}
	return pg, nil
}

func (g Game) validate() error {
	if g.RoomCodeLength < 3 {
		return fmt.Errorf("ROOM_CODE_LENGTH must be at least 3, got %d", g.RoomCodeLength)
	}
	if len(g.RoomCodeAlphabet) < 2 {
		return fmt.Errorf("ROOM_CODE_ALPHABET needs at least 2 characters")
	}
	if g.AnswerWindowSeconds <= 0 {
		return fmt.Errorf("ANSWER_WINDOW_SECONDS must be positive")
	}
	if g.ScoreIncrement <= 0 {
		return fmt.Errorf("SCORE_INCREMENT must be positive")
	}
	if g.MaxPlayers < 0 {
		return fmt.Errorf("ROOM_MAX_PLAYERS cannot be negative")
	}
	if g.DefaultQuestionCount <= 0 {
		return fmt.Errorf("DEFAULT_QUESTION_COUNT must be positive")
	}
	return nil
}
