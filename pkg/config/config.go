// Package config loads the console configuration from YAML with
// validation and defaults, and supports live reload on file change.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/opsdeck/opsdeck/pkg/assist"
	"github.com/opsdeck/opsdeck/pkg/results"
	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

var validate = validator.New()

// Config is the root configuration for the console.
type Config struct {
	// Telemetry configures logging, metrics, tracing, and events.
	Telemetry telemetry.Config `yaml:"telemetry"`

	// Simulation configures the execution simulator.
	Simulation SimulationConfig `yaml:"simulation"`

	// Results configures the execution result registry.
	Results results.Config `yaml:"results"`

	// Assist configures the AI collaborator client.
	Assist assist.Config `yaml:"assist"`

	// Seed configures session seeding.
	Seed SeedConfig `yaml:"seed"`
}

// SimulationConfig configures the execution simulator.
type SimulationConfig struct {
	// Latency is the simulated per-execution delay.
	Latency time.Duration `yaml:"latency" validate:"min=0"`
}

// UnmarshalYAML accepts the latency as a Go duration string ("2s", "10ms").
// Absent keys keep the value already in place.
func (s *SimulationConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Latency string `yaml:"latency"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Latency == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.Latency)
	if err != nil {
		return fmt.Errorf("invalid simulation latency: %w", err)
	}
	s.Latency = d
	return nil
}

// SeedConfig configures the catalog and registry seed data loaded at
// session start.
type SeedConfig struct {
	// Enabled controls whether the built-in seed data is loaded.
	Enabled bool `yaml:"enabled"`

	// Path optionally points at a YAML seed file overriding the built-in
	// data.
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Telemetry: *telemetry.DefaultConfig(),
		Simulation: SimulationConfig{
			Latency: 2 * time.Second,
		},
		Results: results.Config{
			Path: results.MemoryDSN,
		},
		Assist: assist.Config{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   assist.DefaultModel,
			Timeout: 30 * time.Second,
		},
		Seed: SeedConfig{
			Enabled: true,
		},
	}
}

// Load reads a YAML configuration file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
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
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if c.Results.Path == "" {
		return fmt.Errorf("results path is required (use %q for in-memory)", results.MemoryDSN)
	}
	return nil
}
