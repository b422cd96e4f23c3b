package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("s3cret"), TTL: time.Hour})
	id := uuid.New()

	token, expires, err := m.Issue(id, "Alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ParticipantID)
	assert.Equal(t, "Alice", claims.DisplayName)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestValidateRejectsForeignAndExpired(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("one")})
	other := NewManager(TokenConfig{Secret: []byte("two")})

	token, _, err := other.Issue(uuid.New(), "Bob")
	require.NoError(t, err)
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewManager(TokenConfig{Secret: []byte("one"), TTL: time.Minute})
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err = expired.Issue(uuid.New(), "Carol")
	require.NoError(t, err)
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNoSecret(t *testing.T) {
	m := NewManager(TokenConfig{})
	_, _, err := m.Issue(uuid.New(), "x")
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = m.Validate("x")
	assert.ErrorIs(t, err, ErrNoSecret)
}
