package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "trueconnect")
	userID := id.NewUserID()

	token, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.NotEmpty(t, claims.JTI, "every token needs a jti for revocation")
}

func TestJTIUniquePerToken(t *testing.T) {
	svc := NewService("test-signing-key", "trueconnect")
	userID := id.NewUserID()

	first, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	second, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	c1, err := svc.ValidateToken(first)
	require.NoError(t, err)
	c2, err := svc.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.JTI, c2.JTI)
}

func TestValidateRejections(t *testing.T) {
	svc := NewService("test-signing-key", "trueconnect")

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(id.NewUserID(), -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService("different-key", "trueconnect")
		token, err := other.GenerateAccessToken(id.NewUserID(), time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
