/*
Package config manages the TOML config for hippie.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/hippie/internal/utils"
	"github.com/charmbracelet/log"
)

// AppName names the config directory under the user's config root.
const AppName = "hippie"

// Config holds the entire config structure
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Index  IndexConfig  `toml:"index"`
	Server ServerConfig `toml:"server"`
	CLI    CliConfig    `toml:"cli"`
}

// EngineConfig has matching and cycling options.
type EngineConfig struct {
	Sigils               string `toml:"sigils"`
	LocalFirstCharFilter bool   `toml:"local_first_char_filter"`
	MaxCandidates        int    `toml:"max_candidates"`
}

// IndexConfig controls workspace seeding and watching.
type IndexConfig struct {
	Include         []string `toml:"include"`
	Exclude         []string `toml:"exclude"`
	MaxFileBytes    int      `toml:"max_file_bytes"`
	WatchDebounceMs int      `toml:"watch_debounce_ms"`
}

// ServerConfig has IPC options.
type ServerConfig struct {
	MaxFrameBytes int `toml:"max_frame_bytes"`
}

// CliConfig holds debug shell options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Sigils:               "$",
			LocalFirstCharFilter: false,
			MaxCandidates:        0,
		},
		Index: IndexConfig{
			Include:         []string{"**/*"},
			Exclude:         []string{"**/.git/**", "**/node_modules/**", "**/vendor/**"},
			MaxFileBytes:    1 << 20,
			WatchDebounceMs: 75,
		},
		Server: ServerConfig{
			MaxFrameBytes: 8 << 20,
		},
		CLI: CliConfig{
			DefaultLimit: 24,
		},
	}
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	resolver, err := utils.NewPathResolver(AppName)
	if err != nil {
		return "", err
	}
	return resolver.GetConfigPath("config.toml")
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/hippie/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		log.Warnf("Failed to create config directory for %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. A file that fails to decode as a whole
// is retried section by section; unreadable values keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config.normalize(), nil
}

func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(raw, "engine"); ok {
		extractEngineConfig(section, &config.Engine)
	}
	if section, ok := utils.ExtractSection(raw, "index"); ok {
		extractIndexConfig(section, &config.Index)
	}
	if section, ok := utils.ExtractSection(raw, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_frame_bytes"); ok {
			config.Server.MaxFrameBytes = val
		}
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
	}
	return config.normalize(), nil
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractString(data, "sigils"); ok {
		engine.Sigils = val
	}
	if val, ok := utils.ExtractBool(data, "local_first_char_filter"); ok {
		engine.LocalFirstCharFilter = val
	}
	if val, ok := utils.ExtractInt64(data, "max_candidates"); ok {
		engine.MaxCandidates = val
	}
}

func extractIndexConfig(data map[string]any, index *IndexConfig) {
	if val, ok := utils.ExtractStrings(data, "include"); ok {
		index.Include = val
	}
	if val, ok := utils.ExtractStrings(data, "exclude"); ok {
		index.Exclude = val
	}
	if val, ok := utils.ExtractInt64(data, "max_file_bytes"); ok {
		index.MaxFileBytes = val
	}
	if val, ok := utils.ExtractInt64(data, "watch_debounce_ms"); ok {
		index.WatchDebounceMs = val
	}
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() *Config {
	def := DefaultConfig()
	if c.Engine.MaxCandidates < 0 {
		log.Warnf("max_candidates %d is negative, using %d", c.Engine.MaxCandidates, def.Engine.MaxCandidates)
		c.Engine.MaxCandidates = def.Engine.MaxCandidates
	}
	if len(c.Index.Include) == 0 {
		c.Index.Include = def.Index.Include
	}
	if c.Index.MaxFileBytes <= 0 {
		c.Index.MaxFileBytes = def.Index.MaxFileBytes
	}
	if c.Index.WatchDebounceMs < 0 {
		c.Index.WatchDebounceMs = def.Index.WatchDebounceMs
	}
	if c.Server.MaxFrameBytes <= 0 {
		c.Server.MaxFrameBytes = def.Server.MaxFrameBytes
	}
	if c.CLI.DefaultLimit <= 0 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
	return c
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
