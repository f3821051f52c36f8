package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "medimap-jwt-test-secret"

func issueTestPair(t *testing.T, userID uint, email, role string, accessExpiry, refreshExpiry time.Duration) *TokenPair {
	t.Helper()
	tokens, err := GenerateTokenPair(userID, email, role, testSecret, accessExpiry, refreshExpiry)
	require.NoError(t, err)
	require.NotNil(t, tokens)
	return tokens
}

func TestGenerateTokenPair(t *testing.T) {
	tokens := issueTestPair(t, 1, "admin@medimap.kr", "admin", 15*time.Minute, 7*24*time.Hour)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
}

func TestValidateToken(t *testing.T) {
	tokens := issueTestPair(t, 42, "user@medimap.kr", "user", 15*time.Minute, 7*24*time.Hour)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@medimap.kr", claims.Email)
	assert.Equal(t, "user", claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))

	// 리프레시 토큰도 같은 클레임을 담는다
	claims, err = ValidateToken(tokens.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestValidateToken_Invalid(t *testing.T) {
	tokens := issueTestPair(t, 1, "user@medimap.kr", "user", 15*time.Minute, 7*24*time.Hour)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "다른 시크릿으로 서명 검증", token: tokens.AccessToken, secret: "wrong-secret"},
		{name: "형식이 깨진 토큰", token: "invalid.token.format", secret: testSecret},
		{name: "빈 토큰", token: "", secret: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	tokens := issueTestPair(t, 1, "user@medimap.kr", "user", time.Nanosecond, time.Nanosecond)
	time.Sleep(10 * time.Millisecond)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}
