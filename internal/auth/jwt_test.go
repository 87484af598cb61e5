package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, expires, err := svc.Issue("alice", "Alice")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "Alice", claims.Name)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	token, _, err := NewTokenService("one", time.Hour).Issue("alice", "")
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	svc := NewTokenService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.Issue("alice", "")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDisabledWithoutSecret(t *testing.T) {
	svc := NewTokenService("", time.Hour)
	assert.False(t, svc.Enabled())
	_, _, err := svc.Issue("alice", "")
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = svc.Validate("x")
	assert.ErrorIs(t, err, ErrNoSecret)
}
