package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/internal/domain/auth"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--user", "hr-1", "--role", auth.RoleHR})
	require.NoError(t, cmd.Execute())

	claims, err := auth.ParseToken("cli-secret", strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "hr-1", claims.UserID)
	assert.Equal(t, auth.RoleHR, claims.RoleName)
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"token", "--user", "x", "--role", "Admin"})
	require.Error(t, cmd.Execute())
}
