package auth

import "time"

// SessionRequest is the body of POST /v1/sessions.
type SessionRequest struct {
	DisplayName string `json:"display_name"`
}

// Session is a guest identity plus its signed token.
type Session struct {
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
}
