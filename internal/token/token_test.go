package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsplit/internal/token"
)

func TestService_IssueThenVerify_RoundTrips(t *testing.T) {
	svc, err := token.NewService("secret", time.Hour)
	require.NoError(t, err)

	signed, err := svc.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestService_Verify_RejectsWrongSecret(t *testing.T) {
	issuer, err := token.NewService("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := token.NewService("secret-b", time.Hour)
	require.NoError(t, err)

	signed, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestService_Verify_RejectsExpiredToken(t *testing.T) {
	svc, err := token.NewService("secret", -time.Hour)
	require.NoError(t, err)

	signed, err := svc.Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestNewService_RejectsEmptySecret(t *testing.T) {
	_, err := token.NewService("", time.Hour)
	assert.Error(t, err)
}
