package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
)

func TestRoundTrip(t *testing.T) {
	svc := New("test-signing-key", "fides", "fides-api")
	userID := id.UserID(uuid.New())

	token, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := New("test-signing-key", "fides", "fides-api")
	userID := id.UserID(uuid.New())

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(userID, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key", func(t *testing.T) {
		other := New("different-key", "fides", "fides-api")
		token, err := other.GenerateAccessToken(userID, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
