package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20.0, cfg.AI.Timeout)
	assert.Equal(t, 20, cfg.AI.Memory)
	assert.Equal(t, 60, cfg.AI.MaxLength)
	assert.Equal(t, 0.8, cfg.AI.Temperature)
	assert.Equal(t, 40, cfg.AI.TopK)
	assert.Equal(t, 0.9, cfg.AI.TopP)
	assert.Equal(t, 1.1, cfg.AI.RepetitionPenalty)
	assert.True(t, cfg.Game.Autosave)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "plain", cfg.Filters.Display)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
ai:
  backend: openai
  model: gpt-4o-mini
  timeout: 45.5
  memory: 8
storage:
  backend: redis
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.AI.Backend)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 45.5, cfg.AI.Timeout)
	assert.Equal(t, 8, cfg.AI.Memory)
	assert.Equal(t, "redis", cfg.Storage.Backend)

	// Unset fields still get defaults.
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 60, cfg.AI.MaxLength)
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  api_key: from-file\n"), 0o644))

	t.Setenv("INKLORE_API_KEY", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
