// Package config loads codegraph configuration with defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked for when none is given.
const DefaultFile = "codegraph.yaml"

// Config represents the codegraph configuration. The engine receives these
// values already validated; it never parses flags or files itself.
type Config struct {
	Workers int         `yaml:"workers"`
	Cache   CacheConfig `yaml:"cache"`
	Graph   GraphConfig `yaml:"graph"`
	// MaxFileSize skips files larger than this many bytes; 0 means no limit.
	MaxFileSize int64         `yaml:"max_file_size"`
	Languages   []string      `yaml:"languages"`
	Exclude     ExcludeConfig `yaml:"exclude"`
}

// CacheConfig controls the persistent extraction cache.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// GraphConfig controls graph construction.
type GraphConfig struct {
	// ExternalEdges retains unresolved call references as edges to a
	// synthetic external node instead of dropping them.
	ExternalEdges bool `yaml:"external_edges"`
}

// ExcludeConfig defines patterns excluded from enumeration.
type ExcludeConfig struct {
	Dirs  []string `yaml:"dirs"`
	Globs []string `yaml:"globs"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	enabled := true
	return &Config{
		Workers: 4,
		Cache: CacheConfig{
			Enabled: &enabled,
			Path:    ".codegraph/cache.db",
		},
		Exclude: ExcludeConfig{
			Globs: []string{"**/*_test.go", "**/*.min.js"},
		},
	}
}

// Load reads configuration from path, falling back to defaults. If path is
// empty, codegraph.yaml in the current directory is tried; its absence is
// not an error.
func Load(path string) (*Config, error) {
	defaults := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	defaults.Merge(&fileCfg)
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defaults, nil
}

// Merge combines another config into this one, with other taking precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
	if other.Cache.Enabled != nil {
		c.Cache.Enabled = other.Cache.Enabled
	}
	if other.Cache.Path != "" {
		c.Cache.Path = other.Cache.Path
	}
	if other.Graph.ExternalEdges {
		c.Graph.ExternalEdges = true
	}
	if other.MaxFileSize > 0 {
		c.MaxFileSize = other.MaxFileSize
	}
	if len(other.Languages) > 0 {
		c.Languages = other.Languages
	}
	if len(other.Exclude.Dirs) > 0 {
		c.Exclude.Dirs = other.Exclude.Dirs
	}
	if len(other.Exclude.Globs) > 0 {
		c.Exclude.Globs = other.Exclude.Globs
	}
}

// Validate checks invariants the engine relies on.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	return nil
}

// CacheEnabled reports whether the persistent cache is on.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}
