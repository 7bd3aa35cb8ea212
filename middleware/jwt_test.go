package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-32bytes-padded!!"

func TestGenerateToken_Valid(t *testing.T) {
	tok, claims, err := GenerateToken("ops", RoleAdmin, testSecret, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "ops", claims.Subject)
}

func TestParseToken_Valid(t *testing.T) {
	tok, issued, err := GenerateToken("ops", RoleAdmin, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, _, err := GenerateToken("ops", RoleAdmin, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, "wrong-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	tok, _, err := GenerateToken("ops", RoleAdmin, testSecret, -time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, testSecret)
	assert.Error(t, err)
}

func TestParseToken_Malformed(t *testing.T) {
	_, err := ParseToken("not.a.jwt", testSecret)
	assert.Error(t, err)
}

func TestParseToken_Empty(t *testing.T) {
	_, err := ParseToken("", testSecret)
	assert.Error(t, err)
}

func TestGenerateToken_UniqueSessions(t *testing.T) {
	t1, c1, _ := GenerateToken("ops", RoleAdmin, testSecret, time.Hour)
	t2, c2, _ := GenerateToken("ops", RoleAdmin, testSecret, time.Hour)
	assert.NotEqual(t, t1, t2)
	assert.NotEqual(t, c1.ID, c2.ID)
}
