// Package config handles configuration loading and management for the
// storm-bringer client.
//
// It provides functionality for:
//   - Loading configuration from .storm-bringer.yaml or storm-bringer.json files
//   - Default configuration values
//   - Merging file values with command-line overrides
//   - Mapping configuration onto rest client options
package config
