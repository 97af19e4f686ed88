package utils

import (
	"testing"

	"onboardbuddy/config"
	"onboardbuddy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairRoundTrip(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-secret"
	user := &models.User{TokenVersion: 3}
	user.ID = 42

	access, refresh, err := GenerateJWTToken(user)
	require.NoError(t, err)

	claims, err := ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, 3, claims.TokenVersion)

	_, err = ParseAccessToken(refresh)
	assert.Error(t, err, "refresh tokens are not access tokens")

	claims, err = ParseJWTToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	config.AppConfig.EncryptionKey = "one"
	access, _, err := GenerateJWTToken(&models.User{})
	require.NoError(t, err)

	config.AppConfig.EncryptionKey = "two"
	_, err = ParseJWTToken(access)
	assert.Error(t, err)
}
