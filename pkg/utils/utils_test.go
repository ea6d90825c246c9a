package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword("s3cret-pass", hash))
	assert.False(t, CheckPassword("wrong-pass", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("42", "admin")
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	assert.Equal(t, AccessTokenTTL, exp.Sub(iat.Time))
}

func TestJWTRejectsTamperedSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateJWT("42", "user")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, err = ParseJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenTTLLongerThanAccess(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateRefreshJWT("42", "user")
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	assert.Equal(t, RefreshTokenTTL, exp.Sub(iat.Time))
}

func TestNewTransactionID(t *testing.T) {
	a := NewTransactionID()
	b := NewTransactionID()

	assert.True(t, strings.HasPrefix(a, "txn_"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.Split(a, "_"), 3)
}
