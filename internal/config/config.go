// Package config loads photosort configuration: a TOML base file, an
// optional per-environment overlay, and environment variable overrides,
// merged and finalized in that order. A .env file in the working directory
// is loaded first so local runs need no exported variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPhotosortEnv     = "PHOTOSORT_ENV"
	EnvPhotosortWorkers = "PHOTOSORT_WORKERS"
)

// Config is the root configuration for the photosort pipeline.
type Config struct {
	Workers int          `toml:"workers"`
	Vision  VisionConfig `toml:"vision"`
	Reader  ReaderConfig `toml:"reader"`
}

// Load reads the .env file when present, the base config when present,
// applies any environment overlay, and finalizes all values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		base, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = base
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay == nil {
		return
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	c.Vision.Merge(&overlay.Vision)
	c.Reader.Merge(&overlay.Reader)
}

// Finalize applies defaults, then environment overrides, then validates.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if err := c.Vision.Finalize(); err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	if err := c.Reader.Finalize(); err != nil {
		return fmt.Errorf("reader: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 1
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPhotosortWorkers); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.Workers = workers
		}
	}
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func overlayPath() string {
	env := os.Getenv(EnvPhotosortEnv)
	if env == "" {
		return ""
	}

	path := fmt.Sprintf(OverlayConfigPattern, env)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
