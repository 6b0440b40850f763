package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data/keys_optimized.json", cfg.Data.Keys)
	assert.Equal(t, "soilkey.db", cfg.Data.DB)
	assert.Equal(t, "assets", cfg.Data.Assets)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.AI.Model)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  keys: custom/keys.json
  db: custom.db
ai:
  model: gemini-2.5-pro
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "custom/keys.json", cfg.Data.Keys)
	assert.Equal(t, "custom.db", cfg.Data.DB)
	assert.Equal(t, "assets", cfg.Data.Assets, "unset fields keep their defaults")
	assert.Equal(t, "gemini-2.5-pro", cfg.AI.Model)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [broken"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SOILKEY_DATA", "env/keys.json")
	t.Setenv("SOILKEY_DB", "env.db")
	t.Setenv("SOILKEY_API_KEY", "test-key")
	t.Setenv("SOILKEY_AI_MODEL", "gemini-env")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env/keys.json", cfg.Data.Keys)
	assert.Equal(t, "env.db", cfg.Data.DB)
	assert.Equal(t, "test-key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-env", cfg.AI.Model)
}
