// Package config provides configuration management for embedmap.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds environment configuration: where the embedding server lives,
// where the cache is stored, and the projection knobs. Per-run inputs (data
// files, instruction, grouping) come from flags as RunOptions.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Cache      CacheConfig      `yaml:"cache"`
	Projection ProjectionConfig `yaml:"projection"`
}

// ServerConfig configures the embedding server connection.
type ServerConfig struct {
	URL string `yaml:"url"`
}

// CacheConfig configures the durable embedding cache.
type CacheConfig struct {
	// Dir is the cache directory; empty means the user cache dir.
	Dir string `yaml:"dir"`
}

// ProjectionConfig configures the 2D projection. These are tunable knobs,
// fixed per run for reproducibility.
type ProjectionConfig struct {
	Perplexity   float64 `yaml:"perplexity"`
	LearningRate float64 `yaml:"learning_rate"`
	Iterations   int     `yaml:"iterations"`
	Seed         int64   `yaml:"seed"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://localhost:8080",
		},
		Cache: CacheConfig{
			Dir: "",
		},
		Projection: ProjectionConfig{
			Perplexity:   100,
			LearningRate: 200,
			Iterations:   1000,
			Seed:         42,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server.url must not be empty")
	}
	if c.Projection.Perplexity <= 0 {
		return errors.New("projection.perplexity must be positive")
	}
	if c.Projection.LearningRate <= 0 {
		return errors.New("projection.learning_rate must be positive")
	}
	if c.Projection.Iterations < 1 {
		return errors.New("projection.iterations must be at least 1")
	}
	return nil
}

// Load loads configuration from the YAML file, falling back to defaults for
// any missing values.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config dir
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // No config file, use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the YAML file.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// ConfigDir returns the directory where config files are stored.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "embedmap"), nil
}

// ConfigPath returns the path to the main config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// CacheDir returns the cache directory, creating it if needed.
func (c *Config) CacheDir() (string, error) {
	dir := c.Cache.Dir
	if dir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(userCache, "embedmap")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CachePath returns the path to the embedding cache database.
func (c *Config) CachePath() (string, error) {
	dir, err := c.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "embeddings.db"), nil
}
