package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "MIGRATIONS_PATH", "AUTO_MIGRATE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, "migrations", MigrationsPath())
	assert.True(t, AutoMigrate())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, zapcore.InfoLevel, LogLevel())
}

func TestOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "-1")
	t.Setenv("LOG_LEVEL", "debug")

	assert.Equal(t, ":9090", ServerAddr())
	assert.False(t, AutoMigrate())
	assert.Equal(t, 2.5, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, zapcore.DebugLevel, LogLevel())
}

func TestLoad_EnvFileAndSecret(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=7000\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("DATABASE_URL=postgres://secret\n"), 0o600))

	t.Setenv("TIMELY_ENV", envFile)
	t.Setenv("SERVER_PORT", "")
	os.Unsetenv("SERVER_PORT")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	require.NoError(t, Load())
	assert.Equal(t, 7000, ServerPort())
	assert.Equal(t, "postgres://secret", DatabaseURL())
}
