// Package config loads the settings of the demo server.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration
type Config struct {
	// Addr is the listen address
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// TickInterval is the delay between two stock updates
	TickInterval time.Duration `yaml:"tick_interval" validate:"gt=0"`

	// Database settings for the todo store
	Database Database `yaml:"database"`

	// SeedTodos is the number of generated todos added to an empty store
	SeedTodos int `yaml:"seed_todos" validate:"gte=0,lte=100"`

	// Debug turns on debug mode of the server-side engine
	Debug bool `yaml:"debug"`
}

// Database selects the SQLite driver and file
type Database struct {
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo)
	Driver string `yaml:"driver" validate:"oneof=sqlite sqlite3"`
	Path   string `yaml:"path" validate:"required"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Addr:         "localhost:8080",
		TickInterval: 500 * time.Millisecond,
		Database: Database{
			Driver: "sqlite",
			Path:   "livepatch.db",
		},
		SeedTodos: 3,
	}
}

var validate = validator.New()

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
