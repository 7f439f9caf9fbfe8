// Package config handles loading of optional tool defaults from a YAML
// configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default config file names searched in the working directory.
var defaultConfigFiles = []string{
	".aggfiles.yaml",
	".aggfiles.yml",
}

// Config holds tool-level defaults. Everything is optional; zero values
// fall back to the built-in defaults.
type Config struct {
	OutputDir    string `yaml:"output_dir"`    // Base directory for generated chunk files.
	CustomIgnore string `yaml:"custom_ignore"` // Override path for the custom ignore file.
}

// Load loads configuration from a specific file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for configuration in the default locations:
// the current directory first, then the user config directory. A
// missing config file is not an error; built-in defaults apply.
func LoadDefault() (*Config, error) {
	for _, name := range defaultConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return Load(name)
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigPath := filepath.Join(homeDir, ".config", "aggfiles", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return Load(userConfigPath)
		}
	}

	cfg := &Config{}
	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills unset fields with built-in defaults.
func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.OutputDir = filepath.Join(home, "agg-output")
	}
}
