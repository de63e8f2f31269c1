// Package models defines data structures for configuration and records.
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Substrate names where a worker folds its tuples.
const (
	SubstrateGoroutine = "goroutine"
	SubstrateProcess   = "process"
)

// RunConfig holds runtime configuration for a reduce run.
// Values come from an optional YAML file; CLI flags override them.
type RunConfig struct {
	Capacity   int            `yaml:"capacity"`
	MaxWorkers int            `yaml:"max_workers,omitempty"`
	Substrate  string         `yaml:"substrate,omitempty"`
	Sequential bool           `yaml:"sequential,omitempty"`
	Scores     map[string]int `yaml:"scores,omitempty"`
}

// DefaultRunConfig returns the configuration used when no file is given.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Capacity:  8,
		Substrate: SubstrateGoroutine,
	}
}

// LoadConfig reads a YAML run config, filling unset fields from DefaultRunConfig.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultRunConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if config.Substrate == "" {
		config.Substrate = SubstrateGoroutine
	}

	return config, config.Validate()
}

// Validate rejects configurations the engine cannot run with.
func (c *RunConfig) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must not be negative, got %d", c.MaxWorkers)
	}
	switch c.Substrate {
	case SubstrateGoroutine, SubstrateProcess:
	default:
		return fmt.Errorf("unknown substrate %q (want %s or %s)", c.Substrate, SubstrateGoroutine, SubstrateProcess)
	}
	return nil
}
