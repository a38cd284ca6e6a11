package engine

import "fmt"

// UnitStatus represents the status of an execution unit within a bulk run.
// Units move pending -> executing -> success or failed; terminal states are
// absorbing, no unit ever reverts.
type UnitStatus string

const (
	// UnitStatusPending indicates the unit is queued but not yet started.
	UnitStatusPending UnitStatus = "pending"

	// UnitStatusExecuting indicates the unit is currently executing.
	UnitStatusExecuting UnitStatus = "executing"

	// UnitStatusSuccess indicates the unit completed successfully.
	UnitStatusSuccess UnitStatus = "success"

	// UnitStatusFailed indicates the unit failed.
	UnitStatusFailed UnitStatus = "failed"
)

// IsTerminal returns true if the status represents a final state.
func (s UnitStatus) IsTerminal() bool {
	return s == UnitStatusSuccess || s == UnitStatusFailed
}

// Validate checks if the unit status is valid.
func (s UnitStatus) Validate() error {
	switch s {
	case UnitStatusPending, UnitStatusExecuting, UnitStatusSuccess, UnitStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid unit status: %s", s)
	}
}

// CanTransitionTo reports whether moving from s to next is a legal step of
// the unit state machine.
func (s UnitStatus) CanTransitionTo(next UnitStatus) bool {
	switch s {
	case UnitStatusPending:
		return next == UnitStatusExecuting
	case UnitStatusExecuting:
		return next == UnitStatusSuccess || next == UnitStatusFailed
	default:
		return false
	}
}

// RunStatus represents the overall status of a bulk run.
type RunStatus string

const (
	// RunStatusRunning indicates the run is executing its unit matrix.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted indicates every unit reached a terminal state.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusCancelled indicates the run was cancelled mid-matrix.
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal returns true if the run status represents a final state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled
}

// Validate checks if the run status is valid.
func (s RunStatus) Validate() error {
	switch s {
	case RunStatusRunning, RunStatusCompleted, RunStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid run status: %s", s)
	}
}
