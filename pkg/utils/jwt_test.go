package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "shortscript")

	token, err := m.GenerateAccessToken("user-1", "pro", time.Hour)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "pro", claims.Plan)
	assert.Equal(t, TokenTypeAccess, claims.Type)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", "shortscript")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateAccessToken("user-1", "", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", "shortscript").ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_WrongSecretOrIssuer(t *testing.T) {
	token, err := NewJWTManager("secret", "shortscript").GenerateAccessToken("user-1", "", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTManager("other", "shortscript").ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager("secret", "someone-else").ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
