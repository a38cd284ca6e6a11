package engine

import (
	"time"

	"github.com/opsdeck/opsdeck/pkg/catalog"
)

// Unit is one (playbook, VM) pairing within a bulk run. Units exist only
// for the duration of one run and are discarded when a new run starts.
type Unit struct {
	// ID is the unique identifier for this unit.
	ID string `json:"id"`

	// Playbook is the playbook executed by this unit.
	Playbook catalog.Playbook `json:"playbook"`

	// VM is the target of this unit.
	VM catalog.VM `json:"vm"`

	// Status is the current execution status.
	Status UnitStatus `json:"status"`

	// Output is the simulated execution log, populated once the unit
	// reaches a terminal state.
	Output string `json:"output,omitempty"`

	// StartedAt is when the unit began executing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the unit reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BulkRun describes one bulk execution over a playbook x VM matrix.
type BulkRun struct {
	// ID is the unique identifier for this run.
	ID string `json:"id"`

	// Status is the overall run status.
	Status RunStatus `json:"status"`

	// Units are the execution units in matrix order (playbook-major,
	// VM-minor).
	Units []Unit `json:"units"`

	// Summary provides counts over the unit statuses.
	Summary RunSummary `json:"summary"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run finished, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunSummary provides statistics about a bulk run.
type RunSummary struct {
	// Total is the total number of units in the matrix.
	Total int `json:"total"`

	// Succeeded is the number of units that reached success.
	Succeeded int `json:"succeeded"`

	// Failed is the number of units that reached failed.
	Failed int `json:"failed"`

	// Pending is the number of units never started (cancelled runs).
	Pending int `json:"pending"`
}

// summarize recounts the summary from a unit list.
func summarize(units []Unit) RunSummary {
	s := RunSummary{Total: len(units)}
	for _, u := range units {
		switch u.Status {
		case UnitStatusSuccess:
			s.Succeeded++
		case UnitStatusFailed:
			s.Failed++
		case UnitStatusPending, UnitStatusExecuting:
			s.Pending++
		}
	}
	return s
}
