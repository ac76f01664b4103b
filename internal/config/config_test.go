package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("HANGANG_BASE_URL", "")
	t.Setenv("HANGANG_TIMEOUT", "")
	t.Setenv("HANGANG_PREFS_PATH", "/tmp/prefs.db")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "/tmp/prefs.db", cfg.PrefsPath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadClient_FromEnv(t *testing.T) {
	t.Setenv("HANGANG_BASE_URL", "http://10.0.0.5:8000/")
	t.Setenv("HANGANG_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadClient_Invalid(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		t.Setenv("HANGANG_TIMEOUT", "soon")
		_, err := LoadClient()
		assert.Error(t, err)
	})
	t.Run("log level", func(t *testing.T) {
		t.Setenv("HANGANG_TIMEOUT", "")
		t.Setenv("LOG_LEVEL", "loud")
		_, err := LoadClient()
		assert.Error(t, err)
	})
}

func TestLoadServer(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("SEED_MARKERS", "false")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.False(t, cfg.SeedMarkers)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoadServer_BadPort(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HANGANG_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HANGANG_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("HANGANG_TEST_DOTENV"))

	// Missing files are ignored.
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
