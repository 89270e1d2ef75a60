/*
Package config loads server configuration from a YAML file.

FILE FORMAT:

	server:
	  port: 8080
	  allowed_origins: ["http://localhost:5173"]
	storage:
	  path: tuition.db
	  key: "@tuition_tracker_v2"
	reminders:
	  enabled: true
	  check_interval: 1m

Missing fields keep their defaults. A missing file is not an error; the
defaults are used as-is.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/warp/tuition-engine/tuition"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StorageConfig struct {
	// Path of the SQLite database. ":memory:" keeps everything in process.
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

type RemindersConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval time.Duration `yaml:"check_interval"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Reminders RemindersConfig `yaml:"reminders"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server:    ServerConfig{Port: 8080},
		Storage:   StorageConfig{Path: "tuition.db", Key: tuition.DefaultStorageKey},
		Reminders: RemindersConfig{Enabled: true, CheckInterval: time.Minute},
	}
}

// LoadConfig reads path over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	buf, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if c.Storage.Key == "" {
		c.Storage.Key = tuition.DefaultStorageKey
	}
	if c.Reminders.Enabled && c.Reminders.CheckInterval <= 0 {
		return fmt.Errorf("invalid reminders.check_interval %v", c.Reminders.CheckInterval)
	}
	return nil
}
