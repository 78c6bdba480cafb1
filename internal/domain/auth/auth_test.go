package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", RoleName: RoleHR}

	token, err := GenerateToken(secret, claims, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(secret, token)
	require.NoError(t, err)
	require.Equal(t, "u1", parsed.UserID)
	require.Equal(t, RoleHR, parsed.RoleName)
	require.Equal(t, "u1", parsed.Subject)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{UserID: "u1", RoleName: RoleManager}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("secret-b", token)
	require.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", RoleName: RoleHR}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	require.Error(t, err)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken(" ", Claims{UserID: "u1"}, time.Hour)
	require.Error(t, err)
}

func TestValidRole(t *testing.T) {
	require.True(t, ValidRole(RoleEmployee))
	require.False(t, ValidRole("Admin"))
	require.True(t, UserContext{RoleName: RoleHR}.IsHR())
}
