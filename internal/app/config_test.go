package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.test/api/v1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 2*time.Hour, cfg.DraftTTL)
	assert.Equal(t, "*/15 * * * *", cfg.EntityRefreshCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desk.env")
	require.NoError(t, os.WriteFile(path, []byte("BACKEND_BASE_URL=http://ledger.local\nAPP_ENV=production\nDRAFT_TTL=30m\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	for _, key := range []string{"BACKEND_BASE_URL", "APP_ENV", "DRAFT_TTL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://ledger.local", cfg.BackendBaseURL)
	assert.Equal(t, 30*time.Minute, cfg.DraftTTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsRelativeBackendURL(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("BACKEND_BASE_URL", "/api")

	_, err := LoadConfig()
	require.Error(t, err)
}
