package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/chinazhenzhen/Storm-Bringer/packages/rest"
)

// ErrInvalidPoolsSize is returned by Validate for a non-positive pool size.
var ErrInvalidPoolsSize = errors.New("poolsSize must be a positive integer")

// Config represents the client configuration
type Config struct {
	PoolsSize int    `yaml:"poolsSize,omitempty" json:"poolsSize,omitempty"`
	CABundle  string `yaml:"caBundle,omitempty" json:"caBundle,omitempty"`

	// Headers are sent with every CLI request
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	Verbose *bool `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	NoColor *bool `yaml:"noColor,omitempty" json:"noColor,omitempty"`

	// Configuration is reserved and passed through to the client unread
	Configuration map[string]any `yaml:"configuration,omitempty" json:"configuration,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".storm-bringer.yaml",
	".storm-bringer.yml",
	"storm-bringer.yaml",
	"storm-bringer.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. JSON files
// decode as YAML.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.PoolsSize != 0 {
		result.PoolsSize = other.PoolsSize
	}
	if other.CABundle != "" {
		result.CABundle = other.CABundle
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	if len(other.Configuration) > 0 {
		result.Configuration = other.Configuration
	}

	return &result
}

// Validate checks values the client cannot fall back from.
func (c *Config) Validate() error {
	if c.PoolsSize <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidPoolsSize, c.PoolsSize)
	}
	if c.CABundle != "" {
		if _, err := os.Stat(c.CABundle); err != nil {
			return fmt.Errorf("caBundle: %w", err)
		}
	}
	return nil
}

// ClientOptions maps the configuration onto rest client options.
func (c *Config) ClientOptions() []rest.Option {
	opts := []rest.Option{rest.WithPoolsSize(c.PoolsSize)}
	if c.CABundle != "" {
		opts = append(opts, rest.WithCABundle(c.CABundle))
	}
	if c.Configuration != nil {
		opts = append(opts, rest.WithConfiguration(c.Configuration))
	}
	return opts
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
