package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/catalog")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "catalog", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "catalog_events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 1000, cfg.MaxPageSize)
}

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"DATABASE_URL=postgres://x\nJWT_SECRET=s\nKAFKA_BROKERS=k1:9092,k2:9092\nSERVER_PORT=9000\n",
	), 0o600))

	for _, k := range []string{"DATABASE_URL", "JWT_SECRET", "KAFKA_BROKERS", "SERVER_PORT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, ":9000", cfg.Addr())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
