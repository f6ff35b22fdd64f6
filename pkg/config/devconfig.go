package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LocalConfigFile is the project-local developer config filename.
const LocalConfigFile = "zonbuild.local.toml"

// DevConfig holds developer-specific settings that are NOT committed to
// version control. It is resolved with Viper precedence:
// CLI flags > zonbuild.local.toml (project-local) > ~/.zonbuild/config.toml.
type DevConfig struct {
	// Strategy is the default fetch strategy (skip, plain or verify).
	Strategy string `toml:"strategy" mapstructure:"strategy"`

	// Store overrides the package store root.
	Store string `toml:"store" mapstructure:"store"`

	// Services points at a YAML file with extra hosting-service
	// definitions (e.g. self-hosted forge instances).
	Services string `toml:"services" mapstructure:"services"`
}

// Flags carries CLI flag values into dev-config resolution; empty fields
// are unset.
type Flags struct {
	Strategy string
	Store    string
	Services string
}

// LoadDevConfig resolves developer configuration using Viper's merge
// semantics, from the project directory outward.
func LoadDevConfig(projectDir string, flags Flags) (*DevConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	globalPath := filepath.Join(home, ".zonbuild", "config.toml")
	localPath := filepath.Join(projectDir, LocalConfigFile)
	return loadDevConfig(flags, globalPath, localPath)
}

// loadDevConfig is the internal implementation that accepts explicit paths,
// making it testable without touching the real home directory.
func loadDevConfig(flags Flags, globalPath, localPath string) (*DevConfig, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetDefault("strategy", "plain")

	// Lowest priority: global config; ignore if missing.
	v.SetConfigFile(globalPath)
	_ = v.ReadInConfig()

	// Higher priority: project-local config.
	if _, err := os.Stat(localPath); err == nil {
		v.SetConfigFile(localPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", localPath, err)
		}
	}

	// Highest priority: CLI flags.
	if flags.Strategy != "" {
		v.Set("strategy", flags.Strategy)
	}
	if flags.Store != "" {
		v.Set("store", flags.Store)
	}
	if flags.Services != "" {
		v.Set("services", flags.Services)
	}

	cfg := &DevConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling dev config: %w", err)
	}
	return cfg, nil
}
