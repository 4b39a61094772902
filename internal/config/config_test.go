package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/gigwizard/internal/storage"
)

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, storage.DefaultSQLiteDSN, cfg.DatabaseURL)
	assert.Empty(t, cfg.PostgresURL)
	assert.Equal(t, time.Second, cfg.DraftDebounce)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 256, cfg.EventBuffer)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DRAFT_DEBOUNCE", "250ms")
	t.Setenv("WIZARD_FLOWS_FILE", "/etc/gigwizard/flows.cue")

	cfg, err := Load(missingFile(t))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.DraftDebounce)
	assert.Equal(t, "/etc/gigwizard/flows.cue", cfg.FlowsFile)
}

func TestLoadDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SESSION_IDLE_TIMEOUT=5m\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SESSION_IDLE_TIMEOUT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "not-an-int")
	_, err := Load(missingFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")

	t.Setenv("PORT", "8080")
	t.Setenv("DRAFT_DEBOUNCE", "0s")
	_, err = Load(missingFile(t))
	assert.ErrorContains(t, err, "DRAFT_DEBOUNCE")
}
