package config

import (
	"fmt"
	"sync/atomic"
)

// current is the process-wide configuration installed by the CLI entry point.
// Packages under pkg/ take their configuration as arguments and never read it.
var current atomic.Pointer[Config]

// GetConfig returns the installed configuration, or nil before SetConfig or
// ReloadConfig has succeeded.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig installs cfg as the process-wide configuration.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig loads path with environment overrides and installs the result.
// On failure the installed configuration is left untouched.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", path, err)
	}
	current.Store(cfg)
	return cfg, nil
}
