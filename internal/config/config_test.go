// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "DATABASE_URL", "SHUTDOWN_TIMEOUT", "RATE_LIMIT_ENABLED",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLER_RATIO"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, defaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, 20*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.0, cfg.RateLimit.RPS)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
	assert.False(t, cfg.Otel.Enabled)
	assert.Equal(t, 0.1, cfg.Otel.SampleRatio)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nRATE_LIMIT_BURST=10\n"), 0o600))

	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("RATE_LIMIT_BURST", "")
	os.Unsetenv("RATE_LIMIT_BURST")
	t.Setenv("ENV", "production")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, "production", cfg.Env)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\n"), 0o600))
	t.Setenv("PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"PORT":               "eighty",
		"RATE_LIMIT_ENABLED": "maybe",
		"SHUTDOWN_TIMEOUT":   "20",
		"OTEL_SAMPLER_RATIO": "1.5",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
