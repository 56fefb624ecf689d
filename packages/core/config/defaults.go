package config

import "github.com/chinazhenzhen/Storm-Bringer/packages/http"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		PoolsSize: http.DefaultPoolsSize,
		CABundle:  "",
		Headers:   nil,
		Verbose:   BoolPtr(false),
		NoColor:   BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.PoolsSize == defaults.PoolsSize &&
		c.CABundle == defaults.CABundle &&
		len(c.Headers) == 0 &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor() &&
		len(c.Configuration) == 0
}
