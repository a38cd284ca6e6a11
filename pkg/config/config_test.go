package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "opsdeck.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}

	if cfg.Simulation.Latency != 2*time.Second {
		t.Errorf("default latency = %v, want 2s", cfg.Simulation.Latency)
	}
	if cfg.Results.Path != ":memory:" {
		t.Errorf("default results path = %q, want :memory:", cfg.Results.Path)
	}
	if !cfg.Seed.Enabled {
		t.Error("seeding must be enabled by default")
	}
	if cfg.Telemetry.ServiceName == "" {
		t.Error("default telemetry service name must be set")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
simulation:
  latency: 10ms
telemetry:
  logging:
    level: debug
seed:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Simulation.Latency != 10*time.Millisecond {
		t.Errorf("latency = %v, want 10ms", cfg.Simulation.Latency)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Seed.Enabled {
		t.Error("seed.enabled: false must override the default")
	}

	// Untouched sections keep their defaults.
	if cfg.Results.Path != ":memory:" {
		t.Errorf("results path = %q, want default :memory:", cfg.Results.Path)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
	}{
		{"bad yaml", "simulation: [latency"},
		{"bad log level", "telemetry:\n  logging:\n    level: loud\n"},
		{"empty results path", "results:\n  path: \"\"\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.content)
			if _, err := Load(path); err == nil {
				t.Error("Load() accepted an invalid configuration")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() must fail for a missing file")
	}
}
