package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides. Nested keys use a double
// underscore: LINEAGE_DISPATCH__MAX_DEPTH=16.
const EnvPrefix = "LINEAGE_"

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Dispatch  DispatchConfig  `json:"dispatch"`
	Metrics   MetricsConfig   `json:"metrics"`
	Hierarchy HierarchyConfig `json:"hierarchy"`
}

type DispatchConfig struct {
	// MaxDepth caps nested calls and constructor levels.
	MaxDepth int `json:"max_depth"`
}

type MetricsConfig struct {
	// Enabled prints dispatch counters after each command.
	Enabled bool `json:"enabled"`
}

type HierarchyConfig struct {
	// Path is the default YAML hierarchy for describe, resolve, call and repl.
	Path string `json:"path"`
}

// Load reads the optional config file at path, then applies environment
// overrides and defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	if c.Dispatch.MaxDepth == 0 {
		c.Dispatch.MaxDepth = 64
	}
}

func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Dispatch.MaxDepth < 0 {
		return fmt.Errorf("dispatch.max_depth must be positive, got %d", c.Dispatch.MaxDepth)
	}
	return nil
}
