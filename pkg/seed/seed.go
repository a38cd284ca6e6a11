// Package seed populates a fresh session with the built-in demo catalog:
// two playbooks, four VMs, and three historical execution results.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/results"
	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

//go:embed seed.yaml
var builtinSeed []byte

// Data is the parsed seed file.
type Data struct {
	Playbooks []catalog.Playbook `yaml:"playbooks"`
	VMs       []catalog.VM       `yaml:"vms"`
	Results   []seedResult       `yaml:"results"`
}

// seedResult is a result record with a relative age instead of an absolute
// timestamp, so seeded history always sits in the recent past.
type seedResult struct {
	ID           string `yaml:"id"`
	PlaybookID   string `yaml:"playbook_id"`
	PlaybookName string `yaml:"playbook_name"`
	VMID         string `yaml:"vm_id"`
	VMName       string `yaml:"vm_name"`
	Age          string `yaml:"age"`
	Output       string `yaml:"output"`
}

// Parse decodes seed data from YAML.
func Parse(data []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return &d, nil
}

// Builtin returns the embedded seed data.
func Builtin() (*Data, error) {
	return Parse(builtinSeed)
}

// FromFile reads seed data from a YAML file.
func FromFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(raw)
}

// Apply loads the seed data into the catalog and the result registry.
// Playbooks end up listed in file order, results in file order too.
func Apply(ctx context.Context, d *Data, store *catalog.Store, registry results.Registry, logger *telemetry.Logger) error {
	now := time.Now()
	log := logger.NewComponentLogger("seed")

	// The store prepends on add; walk backwards so file order survives.
	for i := len(d.Playbooks) - 1; i >= 0; i-- {
		if err := store.AddPlaybook(d.Playbooks[i]); err != nil {
			return fmt.Errorf("failed to seed playbook %s: %w", d.Playbooks[i].ID, err)
		}
	}

	for _, v := range d.VMs {
		if err := store.AddVM(v); err != nil {
			return fmt.Errorf("failed to seed vm %s: %w", v.ID, err)
		}
	}

	for _, r := range d.Results {
		age, err := time.ParseDuration(r.Age)
		if err != nil {
			return fmt.Errorf("invalid age for seed result %s: %w", r.ID, err)
		}
		res := &results.ExecutionResult{
			ID:           r.ID,
			PlaybookID:   r.PlaybookID,
			PlaybookName: r.PlaybookName,
			VMID:         r.VMID,
			VMName:       r.VMName,
			Timestamp:    now.Add(-age),
			Output:       r.Output,
		}
		if err := registry.Append(ctx, res); err != nil {
			return fmt.Errorf("failed to seed result %s: %w", r.ID, err)
		}
	}

	log.Infof("seeded %d playbooks, %d vms, %d results",
		len(d.Playbooks), len(d.VMs), len(d.Results))
	return nil
}
