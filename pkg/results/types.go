package results

import (
	"context"
	"time"
)

// ExecutionResult is an immutable record of one simulated execution. The
// playbook and VM names are snapshots taken at execution time, so deleting
// a VM later does not rewrite history.
type ExecutionResult struct {
	ID           string    `json:"id" yaml:"id"`
	PlaybookID   string    `json:"playbook_id" yaml:"playbook_id"`
	PlaybookName string    `json:"playbook_name" yaml:"playbook_name"`
	VMID         string    `json:"vm_id" yaml:"vm_id"`
	VMName       string    `json:"vm_name" yaml:"vm_name"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	Output       string    `json:"output" yaml:"output"`
}

// Registry is the append-only execution result store. Results are never
// mutated or deleted after creation; listing order is insertion order.
type Registry interface {
	// Append stores a new result. Duplicate IDs are rejected.
	Append(ctx context.Context, r *ExecutionResult) error

	// Get returns the result with the given ID.
	Get(ctx context.Context, id string) (*ExecutionResult, error)

	// List returns all results in insertion order.
	List(ctx context.Context) ([]*ExecutionResult, error)

	// Pair returns the raw outputs of two results for side-by-side
	// comparison, unmodified.
	Pair(ctx context.Context, idA, idB string) (outputA, outputB string, err error)

	// Close releases the underlying storage.
	Close() error
}
