package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/product_rating/internal/tokens"
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

func TestManageFlow(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("DATABASE_URL", "")
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "manage.db")
	noEnv := filepath.Join(t.TempDir(), "missing.env")

	out, err := run(t, "migrate", "--db", dsn, "--env-file", noEnv)
	require.NoError(t, err, out)
	assert.Contains(t, out, "schema is up to date")

	out, err = run(t, "createuser", "--db", dsn, "--env-file", noEnv, "--email", "alice@Example.com", "--password", "pw")
	require.NoError(t, err, out)
	assert.Contains(t, out, "alice@example.com")

	_, err = run(t, "createuser", "--db", dsn, "--env-file", noEnv, "--email", "alice@example.com", "--password", "pw")
	assert.Error(t, err)

	out, err = run(t, "createsuperuser", "--db", dsn, "--env-file", noEnv, "--email", "root@example.com", "--password", "pw")
	require.NoError(t, err, out)

	out, err = run(t, "token", "--db", dsn, "--env-file", noEnv, "--email", "alice@example.com")
	require.NoError(t, err, out)
	claims, err := tokens.AccessClaimsFromToken(strings.TrimSpace(out), []byte("cli-secret"))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)

	_, err = run(t, "token", "--db", dsn, "--env-file", noEnv, "--email", "nobody@example.com")
	assert.Error(t, err)

	out, err = run(t, "token", "--db", dsn, "--env-file", noEnv, "--email", "alice@example.com", "--password", "pw")
	require.NoError(t, err, out)
	_, err = run(t, "token", "--db", dsn, "--env-file", noEnv, "--email", "alice@example.com", "--password", "wrong")
	assert.Error(t, err)
	tokenPassword = ""
}
