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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Server.WebSocket.Address)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Equal(t, 200*time.Millisecond, cfg.Game.PausePoll)
	assert.Equal(t, 30*time.Second, cfg.Game.ReminderInterval)
	assert.Equal(t, "scripted", cfg.AI.Provider)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  websocket:
    address: ":9000"
game:
  announce_delay: 50ms
ai:
  provider: openai
  model: gpt-4o
archive:
  enabled: true
  database_url: postgres://localhost/werewolf
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.WebSocket.Address)
	assert.Equal(t, 50*time.Millisecond, cfg.Game.AnnounceDelay)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "postgres://localhost/werewolf", cfg.Archive.DatabaseURL)

	// Untouched keys keep their defaults.
	assert.Equal(t, 200*time.Millisecond, cfg.Game.PausePoll)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WEREWOLF_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("WEREWOLF_AI_PROVIDER", "oracle")

	_, err := Load("")
	assert.Error(t, err)
}
