package livepatch

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/livefir/livepatch/internal/binding"
)

// Directives names the attributes the engine reads from the tree.
type Directives = binding.Directives

// DefaultDirectives returns the standard s-* vocabulary: s-bind, s-list,
// s-key with data-key, s-template and s-debug.
func DefaultDirectives() Directives {
	return binding.DefaultDirectives()
}

// Config holds engine configuration
type Config struct {
	// Debug returns hard errors to callers and logs warnings. The document can
	// also switch it on with the debug directive on <body>.
	Debug bool `yaml:"debug"`

	// Directives is the attribute vocabulary
	Directives Directives `yaml:"directives"`

	// EventName is the type of the notification dispatched after a patch
	EventName string `yaml:"event_name" validate:"required"`

	// LogPrefix prefixes every log line of the engine
	LogPrefix string `yaml:"log_prefix"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Directives: DefaultDirectives(),
		EventName:  "livepatch:patched",
		LogPrefix:  "[livepatch] ",
	}
}

var validate = validator.New()

// Validate checks the configuration for missing or malformed values
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ParseConfig decodes YAML over the default configuration and validates it
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}
