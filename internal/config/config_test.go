package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider.Type)
	assert.Equal(t, 1024, cfg.Generation.MaxTokens)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
menu_path: data/menu.json
provider:
  type: openai
  model: gpt-4o-mini
generation:
  temperature: 0.3
  guard: true
server:
  port: 3000
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/menu.json", cfg.MenuPath)
	assert.Equal(t, "openai", cfg.Provider.Type)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.InDelta(t, 0.3, cfg.Generation.Temperature, 1e-9)
	assert.True(t, cfg.Generation.Guard)
	assert.Equal(t, 3000, cfg.Server.Port)
	// untouched keys keep their defaults
	assert.Equal(t, 1024, cfg.Generation.MaxTokens)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
