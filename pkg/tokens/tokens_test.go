package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("test-jwt-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func TestAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	exp := time.Now().Add(15 * time.Minute).UTC()

	token, err := NewAccessToken(userID, "owner@happyfeet.shop", exp, accessSecret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "owner@happyfeet.shop", claims.Email)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken("id", "owner@happyfeet.shop", time.Now().Add(-time.Minute), accessSecret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, accessSecret)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken("id", "owner@happyfeet.shop", time.Now().Add(time.Minute), accessSecret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, []byte("other"))
	require.Error(t, err)
}

func TestRefreshToken_SetsJTI(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	exp := time.Now().Add(24 * time.Hour).UTC()

	token, jti, err := NewRefreshToken(userID, exp, refreshSecret)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := RefreshClaimsFromToken(token, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, jti, claims.ID)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestCookies(t *testing.T) {
	t.Parallel()

	c := CreateCookie(AccessCookie, "v", "/", time.Now().Add(time.Hour), true)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	d := DeleteCookie(AccessCookie, "/", false)
	assert.Equal(t, -1, d.MaxAge)
	assert.Empty(t, d.Value)
	assert.False(t, d.Secure)

	assert.Len(t, Sha256Hex("abc"), 64)
}
