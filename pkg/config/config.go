package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the per-project recipe metadata file, committed alongside
// build.zig.zon.
const FileName = "zonbuild.toml"

type Config struct {
	Recipe RecipeConfig `toml:"recipe"`
}

// RecipeConfig is metadata the manifest cannot provide but the rendered
// recipe needs.
type RecipeConfig struct {
	Category    string `toml:"category"`
	License     string `toml:"license"`
	Description string `toml:"description,omitempty"`
	Homepage    string `toml:"homepage,omitempty"`
	Maintainer  string `toml:"maintainer,omitempty"`

	// SourceURI is the locator of the project's own release archive.
	SourceURI string `toml:"source_uri,omitempty"`
}

// Default returns the configuration used when a project has no
// zonbuild.toml yet.
func Default() *Config {
	return &Config{
		Recipe: RecipeConfig{
			Category: "dev-util",
			License:  "MIT",
		},
	}
}

func UnmarshalConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	err := toml.Unmarshal(data, cfg)

	return cfg, err
}

func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// LoadDir reads the config from dir, falling back to defaults when the
// file does not exist.
func LoadDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := UnmarshalConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// SaveFile writes the config to path. Fails when the file already exists,
// so init never clobbers hand-edited metadata.
func SaveFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
