package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "condo/internal/jwt_token"
	id "condo/pkg/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResidences(t *testing.T) {
	out, err := execute(t, "residences")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 125)
	assert.True(t, strings.HasPrefix(lines[0], "1101\tblock 1\tgroup 1\tunit 1"))
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "cli-test-key")
	wallet := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	out, err := execute(t, "token", "--wallet", wallet, "--ttl", "5m")
	require.NoError(t, err)

	tokens := jwttoken.NewJWTService("cli-test-key", "condo", "condo-api")
	got, err := tokens.WalletFromToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, id.MustParseAddress(wallet), got)

	claims, err := tokens.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenRejectsBadWallet(t *testing.T) {
	_, err := execute(t, "token", "--wallet", "not-a-wallet")
	assert.ErrorContains(t, err, "--wallet")
}

func TestMigrateNeedsDatabase(t *testing.T) {
	t.Setenv("CONDO_STORAGE_DRIVER", "memory")
	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "has no schema")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
