// Package config provides engine configuration management with TOML files,
// environment overrides, and overlay merging.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// EnvEngineEnv selects an environment-specific overlay file,
	// loom.<env>.toml, merged over the base configuration.
	EnvEngineEnv = "LOOM_ENV"

	// EnvDataDir overrides the storage data directory.
	EnvDataDir = "LOOM_DATA_DIR"

	baseConfigFile       = "loom.toml"
	overlayConfigPattern = "loom.%s.toml"
)

// Config is the root engine configuration.
type Config struct {
	Execution ExecutionConfig `toml:"execution"`
	History   HistoryConfig   `toml:"history"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ExecutionConfig tunes the run loop.
type ExecutionConfig struct {
	// NodeTimeout bounds a single node executor call, as a duration string.
	// Empty disables the bound; a hung executor then stalls the run.
	NodeTimeout string `toml:"node_timeout"`
}

// NodeTimeoutDuration returns the parsed per-node timeout.
func (c *ExecutionConfig) NodeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.NodeTimeout)
	return d
}

// HistoryConfig tunes the run archive.
type HistoryConfig struct {
	// Limit caps the in-memory history; 0 keeps every run.
	Limit int `toml:"limit"`
}

// StorageConfig tunes the persistence capability.
type StorageConfig struct {
	// DataDir is the badger database location. Empty selects the in-memory
	// store, which does not survive the process.
	DataDir string `toml:"data_dir"`

	// Enabled turns graph/run persistence on.
	Enabled bool `toml:"enabled"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.loadDefaults()
	return cfg
}

// Load reads the base configuration file, applies any environment overlay,
// and finalizes the result. A missing base file yields the defaults.
func Load() (*Config, error) {
	cfg, err := load(baseConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = &Config{}
		} else {
			return nil, err
		}
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge applies values from the overlay that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Execution.NodeTimeout != "" {
		c.Execution.NodeTimeout = overlay.Execution.NodeTimeout
	}
	if overlay.History.Limit != 0 {
		c.History.Limit = overlay.History.Limit
	}
	if overlay.Storage.DataDir != "" {
		c.Storage.DataDir = overlay.Storage.DataDir
	}
	if overlay.Storage.Enabled {
		c.Storage.Enabled = true
	}
	c.Logging.Merge(&overlay.Logging)
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if c.Execution.NodeTimeout != "" {
		if _, err := time.ParseDuration(c.Execution.NodeTimeout); err != nil {
			return fmt.Errorf("invalid execution.node_timeout: %w", err)
		}
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit cannot be negative")
	}
	return c.Logging.Finalize()
}

func (c *Config) loadDefaults() {
	if c.History.Limit == 0 {
		c.History.Limit = 100
	}
	c.Logging.loadDefaults()
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Storage.DataDir = v
	}
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvEngineEnv); env != "" {
		path := fmt.Sprintf(overlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
