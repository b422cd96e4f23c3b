package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-rooms/internal/auth/jwt"
)

const maxDisplayName = 32

var ErrDisplayNameRequired = errors.New("display_name is required")

// Service issues guest sessions. There are no accounts: a session only pins a
// participant ID and display name across WebSocket reconnects.
type Service struct {
	tokens  *jwt.Manager
	enabled bool
	logger  zerolog.Logger
}

type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

func NewService(opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		tokens:  jwt.NewManager(opts.TokenConfig),
		enabled: len(opts.TokenConfig.Secret) > 0,
		logger:  logger.With().Str("component", "auth_service").Logger(),
	}
}

// Enabled reports whether a signing secret is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled
}

// CreateSession mints a fresh participant ID for displayName.
func (s *Service) CreateSession(req SessionRequest) (*Session, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, ErrDisplayNameRequired
	}
	if r := []rune(name); len(r) > maxDisplayName {
		name = string(r[:maxDisplayName])
	}

	id := uuid.New()
	token, expires, err := s.tokens.Issue(id, name)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.logger.Info().Str("participant_id", id.String()).Msg("session created")
	return &Session{
		ParticipantID: id.String(),
		DisplayName:   name,
		Token:         token,
		ExpiresAt:     expires,
	}, nil
}

// ValidateToken parses a session token.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokens.Validate(tokenString)
}
