package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	s, err := NewSigner("test-secret")
	require.NoError(t, err)

	token, err := s.Sign("user-1", "sess-1", "owner", time.Hour)
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "owner", claims.Role)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	a, _ := NewSigner("secret-a")
	b, _ := NewSigner("secret-b")

	token, err := a.Sign("user-1", "sess-1", "owner", time.Hour)
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	s, _ := NewSigner("test-secret")
	token, err := s.Sign("user-1", "sess-1", "owner", -time.Minute)
	require.NoError(t, err)

	_, err = s.Parse(token)
	assert.Error(t, err)
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("")
	assert.Error(t, err)
}
