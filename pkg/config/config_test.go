package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "$", cfg.Engine.Sigils)
	assert.False(t, cfg.Engine.LocalFirstCharFilter)
	assert.Equal(t, 0, cfg.Engine.MaxCandidates)
	assert.Equal(t, []string{"**/*"}, cfg.Index.Include)
	assert.Equal(t, 1048576, cfg.Index.MaxFileBytes)
	assert.Equal(t, 75, cfg.Index.WatchDebounceMs)
	assert.Equal(t, 8388608, cfg.Server.MaxFrameBytes)
	assert.Equal(t, 24, cfg.CLI.DefaultLimit)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[engine]
sigils = "$@"
local_first_char_filter = true
max_candidates = 10

[index]
include = ["**/*.go"]
exclude = []
watch_debounce_ms = 20
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "$@", cfg.Engine.Sigils)
	assert.True(t, cfg.Engine.LocalFirstCharFilter)
	assert.Equal(t, 10, cfg.Engine.MaxCandidates)
	assert.Equal(t, []string{"**/*.go"}, cfg.Index.Include)
	assert.Empty(t, cfg.Index.Exclude)
	assert.Equal(t, 20, cfg.Index.WatchDebounceMs)
	// untouched sections keep defaults
	assert.Equal(t, 8388608, cfg.Server.MaxFrameBytes)
	assert.Equal(t, 24, cfg.CLI.DefaultLimit)
}

func TestLoadConfig_PartialRecovery(t *testing.T) {
	// max_candidates has the wrong type, so the typed decode fails.
	path := writeConfig(t, `
[engine]
sigils = "@"
max_candidates = "many"

[cli]
default_limit = 5
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "@", cfg.Engine.Sigils)
	assert.Equal(t, 0, cfg.Engine.MaxCandidates)
	assert.Equal(t, 5, cfg.CLI.DefaultLimit)
}

func TestLoadConfig_Unparseable(t *testing.T) {
	path := writeConfig(t, "this is [not toml")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Normalizes(t *testing.T) {
	testCases := []struct {
		body        string
		check       func(t *testing.T, cfg *Config)
		description string
	}{
		{
			"[engine]\nmax_candidates = -3\n",
			func(t *testing.T, cfg *Config) { assert.Equal(t, 0, cfg.Engine.MaxCandidates) },
			"Negative max_candidates",
		},
		{
			"[index]\ninclude = []\n",
			func(t *testing.T, cfg *Config) { assert.Equal(t, []string{"**/*"}, cfg.Index.Include) },
			"Empty include list",
		},
		{
			"[server]\nmax_frame_bytes = 0\n",
			func(t *testing.T, cfg *Config) { assert.Equal(t, 8388608, cfg.Server.MaxFrameBytes) },
			"Zero frame size",
		},
		{
			"[cli]\ndefault_limit = -1\n",
			func(t *testing.T, cfg *Config) { assert.Equal(t, 24, cfg.CLI.DefaultLimit) },
			"Negative limit",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tc.body))
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestInitConfig_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestLoadConfigWithPriority_CustomPath(t *testing.T) {
	path := writeConfig(t, "[cli]\ndefault_limit = 7\n")

	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 7, cfg.CLI.DefaultLimit)
}
