package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService(t *testing.T, accessTTL time.Duration) TokenService {
	t.Helper()
	service, err := NewTokenService(
		accessTTL,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)
	return service
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		secretKey   string
		expectError bool
	}{
		{name: "valid symmetric key configuration", secretKey: "test-secret-key-for-jwt-signing-32-chars"},
		{name: "missing secret key", secretKey: "", expectError: true},
		{name: "rsa without keys", useRSAKeys: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(15*time.Minute, time.Hour, "iss", "aud", tt.useRSAKeys, "", "", tt.secretKey)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 15*time.Minute, service.AccessTokenTTL())
		})
	}
}

func TestGenerateAndValidateAdminTokens(t *testing.T) {
	service := createTestTokenService(t, 15*time.Minute)

	accessToken, refreshToken, err := service.GenerateAdminTokens(42)
	require.NoError(t, err)
	assert.NotEqual(t, accessToken, refreshToken)

	claims, err := service.ValidateAdminToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.AdminID)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))

	claims, err = service.ValidateAdminToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestValidateAdminToken_Rejections(t *testing.T) {
	service := createTestTokenService(t, 15*time.Minute)
	other, err := NewTokenService(15*time.Minute, time.Hour, "iss", "aud", false, "", "", "another-secret")
	require.NoError(t, err)
	foreign, _, err := other.GenerateAdminTokens(1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "signed with another key", token: foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateAdminToken(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateAdminToken_Expired(t *testing.T) {
	service := createTestTokenService(t, -time.Minute)

	accessToken, _, err := service.GenerateAdminTokens(7)
	require.NoError(t, err)

	_, err = service.ValidateAdminToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshAdminToken(t *testing.T) {
	service := createTestTokenService(t, 15*time.Minute)

	accessToken, refreshToken, err := service.GenerateAdminTokens(9)
	require.NoError(t, err)

	t.Run("access token cannot refresh", func(t *testing.T) {
		_, _, err := service.RefreshAdminToken(accessToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("refresh rotates the pair", func(t *testing.T) {
		newAccess, newRefresh, err := service.RefreshAdminToken(refreshToken)
		require.NoError(t, err)
		claims, err := service.ValidateAdminToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(9), claims.AdminID)
		assert.NotEqual(t, refreshToken, newRefresh)
	})

	t.Run("old refresh token is revoked", func(t *testing.T) {
		_, _, err := service.RefreshAdminToken(refreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestRevokeToken(t *testing.T) {
	service := createTestTokenService(t, 15*time.Minute)

	accessToken, _, err := service.GenerateAdminTokens(3)
	require.NoError(t, err)
	claims, err := service.ValidateAdminToken(accessToken)
	require.NoError(t, err)
	assert.False(t, service.IsTokenRevoked(claims.TokenID))

	require.NoError(t, service.RevokeToken(accessToken))
	assert.True(t, service.IsTokenRevoked(claims.TokenID))

	_, err = service.ValidateAdminToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.Error(t, service.RevokeToken("invalid"))
}
