package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-rooms/internal/auth/jwt"
)

func newTestService(secret string) *Service {
	return NewService(ServiceOptions{TokenConfig: jwt.TokenConfig{Secret: []byte(secret), TTL: time.Hour}}, zerolog.Nop())
}

func TestCreateSessionRoundTrip(t *testing.T) {
	svc := newTestService("secret")
	require.True(t, svc.Enabled())

	session, err := svc.CreateSession(SessionRequest{DisplayName: "  Alice  "})
	require.NoError(t, err)
	assert.Equal(t, "Alice", session.DisplayName)

	claims, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.ParticipantID, claims.ParticipantID.String())
	assert.Equal(t, "Alice", claims.DisplayName)
}

func TestCreateSessionValidation(t *testing.T) {
	svc := newTestService("secret")

	_, err := svc.CreateSession(SessionRequest{DisplayName: "   "})
	assert.ErrorIs(t, err, ErrDisplayNameRequired)

	session, err := svc.CreateSession(SessionRequest{DisplayName: strings.Repeat("x", 80)})
	require.NoError(t, err)
	assert.Len(t, session.DisplayName, maxDisplayName)
}

func TestCreateSessionHandler(t *testing.T) {
	h := NewHTTPHandlers(newTestService("secret"), zerolog.Nop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewBufferString(`{"display_name":"Bob"}`))
	h.CreateSession(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Bob", body.DisplayName)
	_, err := uuid.Parse(body.ParticipantID)
	assert.NoError(t, err)

	rec = httptest.NewRecorder()
	h.CreateSession(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCreateSessionDisabledWithoutSecret(t *testing.T) {
	h := NewHTTPHandlers(newTestService(""), zerolog.Nop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewBufferString(`{"display_name":"Bob"}`))
	h.CreateSession(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMiddlewareAndGetMe(t *testing.T) {
	svc := newTestService("secret")
	h := NewHTTPHandlers(svc, zerolog.Nop())
	handler := AuthMiddleware(svc, zerolog.Nop())(RequireAuth(http.HandlerFunc(h.GetMe)))

	session, err := svc.CreateSession(SessionRequest{DisplayName: "Carol"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), session.ParticipantID)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
