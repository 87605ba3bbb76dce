package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Minute, "focus-group-bot")
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "owner@example.com", "organizer")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, "organizer", claims.Role)
}

func TestValidateAccessTokenRejects(t *testing.T) {
	m := NewManager("secret", time.Minute, "focus-group-bot")
	userID := uuid.New()

	other, err := NewManager("other", time.Minute, "focus-group-bot").GenerateAccessToken(userID, "", "")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(other)
	assert.Error(t, err, "wrong secret")

	foreign, err := NewManager("secret", time.Minute, "someone-else").GenerateAccessToken(userID, "", "")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(foreign)
	assert.Error(t, err, "wrong issuer")

	expired, err := NewManager("secret", -time.Minute, "focus-group-bot").GenerateAccessToken(userID, "", "")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(expired)
	assert.Error(t, err, "expired")

	_, err = m.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateAccessTokenRequiresOwner(t *testing.T) {
	m := NewManager("secret", time.Minute, "focus-group-bot")

	token, err := m.GenerateAccessToken(uuid.Nil, "", "")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrMissingOwner)
}
