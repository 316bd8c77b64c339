package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniicone/cafe-api/config"
	"github.com/aniicone/cafe-api/pkg/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRouteList(t *testing.T) {
	out, err := run(t, "route:list")
	require.NoError(t, err)
	assert.Contains(t, out, "/api/orders/{id}/status")
	assert.Contains(t, out, "cashfree.initiate")
}

func TestTokenMintRequiresLocalProvider(t *testing.T) {
	config.Set("IDENTITY_PROVIDER", "firebase")
	t.Cleanup(func() { config.Set("IDENTITY_PROVIDER", "") })

	_, err := run(t, "token:mint", "alice")
	assert.ErrorContains(t, err, "IDENTITY_PROVIDER=local")
}

func TestTokenMintIssuesVerifiableToken(t *testing.T) {
	config.Set("IDENTITY_PROVIDER", "local")
	config.Set("LOCAL_IDENTITY_SECRET", "cli-secret")
	t.Cleanup(func() {
		config.Set("IDENTITY_PROVIDER", "")
		config.Set("LOCAL_IDENTITY_SECRET", "")
	})

	out, err := run(t, "token:mint", "alice", "--email", "alice@cafe.test", "--role", "admin")
	require.NoError(t, err)

	claims, err := auth.NewLocalProvider("cli-secret").VerifyIDToken(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UID)
	assert.Equal(t, "alice@cafe.test", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}
