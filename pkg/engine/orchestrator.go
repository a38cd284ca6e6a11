package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/errclass"
	"github.com/opsdeck/opsdeck/pkg/results"
	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

// FaultFn lets callers inject failures into a bulk run. It is consulted
// once per unit while the unit is executing; a non-nil return moves the
// unit to the failed terminal state instead of success.
type FaultFn func(unit Unit) error

// Orchestrator runs a playbook x VM matrix strictly sequentially. Units
// complete in matrix order (playbook-major, VM-minor): unit N+1 does not
// start executing before unit N is terminal and its result is recorded.
// Only one bulk run may be active at a time; overlapping runs are
// rejected.
type Orchestrator struct {
	store    *catalog.Store
	registry results.Registry
	deps     Deps
	fault    FaultFn

	mu     sync.Mutex
	active bool
	runID  string
	units  []Unit

	now   func() time.Time
	newID func() string
}

// NewOrchestrator creates a bulk execution orchestrator. fault may be nil,
// in which case every unit succeeds.
func NewOrchestrator(store *catalog.Store, registry results.Registry, deps Deps, fault FaultFn) *Orchestrator {
	deps.normalize()
	return &Orchestrator{
		store:    store,
		registry: registry,
		deps:     deps,
		fault:    fault,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Units returns a snapshot of the current (or most recent) run's units.
// Observers may call this while a run is in progress.
func (o *Orchestrator) Units() []Unit {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Unit, len(o.units))
	copy(out, o.units)
	return out
}

// Run executes the full cross product of the selected playbooks and VMs.
// An empty selection on either side is a no-op producing zero units. Run
// blocks until every unit is terminal or the context is cancelled.
func (o *Orchestrator) Run(
	ctx context.Context,
	role access.Role,
	playbookIDs, vmIDs []string,
	extraVars map[string]string,
) (*BulkRun, error) {
	if !access.CanExecute(role) {
		return nil, errclass.NewPermissionDenied(role.String(), "execute playbooks")
	}

	if len(playbookIDs) == 0 || len(vmIDs) == 0 {
		return &BulkRun{Status: RunStatusCompleted, Units: []Unit{}, StartedAt: o.now()}, nil
	}

	playbooks, vms, err := o.resolveSelection(playbookIDs, vmIDs)
	if err != nil {
		return nil, err
	}

	runID := "bulk-" + o.newID()
	units := o.buildMatrix(playbooks, vms)

	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return nil, errclass.NewConflict("a bulk run is already in progress").
			WithOperation("bulk_run")
	}
	o.active = true
	o.runID = runID
	o.units = units
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.active = false
		o.mu.Unlock()
		o.deps.Metrics.SetActiveBulkRuns(0)
	}()

	run := &BulkRun{
		ID:        runID,
		Status:    RunStatusRunning,
		StartedAt: o.now(),
	}

	log := o.deps.Logger.WithRunID(runID).WithRole(role.String())
	log.Infof("starting bulk run: %d playbooks x %d vms = %d units",
		len(playbooks), len(vms), len(units))

	o.deps.Metrics.SetActiveBulkRuns(1)
	o.deps.Events.Publish(telemetry.Event{
		Type:    telemetry.EventTypeBulkRunStarted,
		RunID:   runID,
		Message: fmt.Sprintf("bulk run started with %d units", len(units)),
	})

	var runErr error
	if o.deps.Tracer != nil {
		spanCtx, span := o.deps.Tracer.StartSpan(ctx, "engine.bulk_run",
			attribute.String("run_id", runID),
			attribute.Int("units", len(units)),
		)
		ctx = spanCtx
		defer func() { telemetry.EndSpan(span, runErr) }()
	}

	for i := range units {
		if runErr = o.executeUnit(ctx, runID, role, i, extraVars); runErr != nil {
			if ctx.Err() != nil {
				return o.finishCancelled(run, log), runErr
			}
			// Unit-level failures are terminal for the unit, not the run.
			runErr = nil
		}
	}

	return o.finishCompleted(run, log), nil
}

// resolveSelection maps the selected IDs onto catalog entities, preserving
// stored order on both axes. Unknown IDs abort the run before any unit is
// created.
func (o *Orchestrator) resolveSelection(playbookIDs, vmIDs []string) ([]catalog.Playbook, []catalog.VM, error) {
	selectedPlaybooks := make(map[string]bool, len(playbookIDs))
	for _, id := range playbookIDs {
		selectedPlaybooks[id] = true
	}
	selectedVMs := make(map[string]bool, len(vmIDs))
	for _, id := range vmIDs {
		selectedVMs[id] = true
	}

	playbooks := make([]catalog.Playbook, 0, len(playbookIDs))
	for _, p := range o.store.Playbooks() {
		if selectedPlaybooks[p.ID] {
			playbooks = append(playbooks, p)
			delete(selectedPlaybooks, p.ID)
		}
	}
	for id := range selectedPlaybooks {
		return nil, nil, errclass.NewNotFound("playbook", id).WithOperation("bulk_run")
	}

	vms := make([]catalog.VM, 0, len(vmIDs))
	for _, v := range o.store.VMs() {
		if selectedVMs[v.ID] {
			vms = append(vms, v)
			delete(selectedVMs, v.ID)
		}
	}
	for id := range selectedVMs {
		return nil, nil, errclass.NewNotFound("vm", id).WithOperation("bulk_run")
	}

	return playbooks, vms, nil
}

// buildMatrix creates the pending unit list in matrix order.
func (o *Orchestrator) buildMatrix(playbooks []catalog.Playbook, vms []catalog.VM) []Unit {
	units := make([]Unit, 0, len(playbooks)*len(vms))
	for _, p := range playbooks {
		for _, v := range vms {
			units = append(units, Unit{
				ID:       "unit-" + o.newID(),
				Playbook: p,
				VM:       v,
				Status:   UnitStatusPending,
			})
		}
	}
	return units
}

// executeUnit drives one unit through its state machine. Every transition
// is published before the function moves on, so observers see each status
// change before the next unit starts.
func (o *Orchestrator) executeUnit(
	ctx context.Context,
	runID string,
	role access.Role,
	idx int,
	extraVars map[string]string,
) error {
	unit := o.transition(idx, UnitStatusExecuting, "")
	log := o.deps.Logger.WithRunID(runID).WithUnitID(unit.ID).
		WithPlaybook(unit.Playbook.ID, unit.Playbook.Name).
		WithVM(unit.VM.ID, unit.VM.Name)
	log.Debug("unit executing")

	started := o.now()

	// The simulated latency is the run's only suspension point; this is
	// also where cancellation is honored.
	select {
	case <-time.After(o.deps.Latency):
	case <-ctx.Done():
		o.transition(idx, UnitStatusFailed, "cancelled: "+ctx.Err().Error())
		o.deps.Metrics.RecordUnit(string(UnitStatusFailed))
		log.Warn("unit cancelled")
		return ctx.Err()
	}

	if o.fault != nil {
		if err := o.fault(unit); err != nil {
			o.transition(idx, UnitStatusFailed, "failed: "+err.Error())
			o.deps.Metrics.RecordUnit(string(UnitStatusFailed))
			o.deps.Metrics.RecordExecution("bulk", "failed", o.now().Sub(started))
			log.WithError(err).Error("unit failed")
			return err
		}
	}

	timestamp := o.now()
	output := RenderLog(LogSpec{
		Banner:    BannerBulk,
		Playbook:  unit.Playbook,
		VM:        unit.VM,
		Role:      role,
		Timestamp: timestamp,
		ExtraVars: extraVars,
	})

	res := &results.ExecutionResult{
		ID:           "res-" + o.newID(),
		PlaybookID:   unit.Playbook.ID,
		PlaybookName: unit.Playbook.Name,
		VMID:         unit.VM.ID,
		VMName:       unit.VM.Name,
		Timestamp:    timestamp,
		Output:       output,
	}
	if err := o.registry.Append(ctx, res); err != nil {
		o.transition(idx, UnitStatusFailed, "failed to record result: "+err.Error())
		o.deps.Metrics.RecordUnit(string(UnitStatusFailed))
		log.WithError(err).Error("failed to record unit result")
		return err
	}

	o.transition(idx, UnitStatusSuccess, output)
	o.deps.Metrics.RecordUnit(string(UnitStatusSuccess))
	o.deps.Metrics.RecordExecution("bulk", "success", o.now().Sub(started))
	o.deps.Events.Publish(telemetry.Event{
		Type:       telemetry.EventTypeResultAppended,
		RunID:      runID,
		UnitID:     unit.ID,
		PlaybookID: unit.Playbook.ID,
		VMID:       unit.VM.ID,
		Message:    "result recorded: " + res.ID,
	})
	log.Debug("unit succeeded")

	return nil
}

// transition applies a status change to the unit at idx and publishes it.
// Terminal states also set the output and completion time.
func (o *Orchestrator) transition(idx int, next UnitStatus, output string) Unit {
	o.mu.Lock()
	unit := &o.units[idx]
	if !unit.Status.CanTransitionTo(next) {
		// Terminal states are absorbing; refuse to regress.
		snapshot := *unit
		o.mu.Unlock()
		return snapshot
	}
	now := o.now()
	unit.Status = next
	switch next {
	case UnitStatusExecuting:
		unit.StartedAt = &now
	case UnitStatusSuccess, UnitStatusFailed:
		unit.Output = output
		unit.CompletedAt = &now
	}
	snapshot := *unit
	runID := o.runID
	o.mu.Unlock()

	o.deps.Events.Publish(telemetry.Event{
		Type:       telemetry.EventTypeUnitStatusChanged,
		RunID:      runID,
		UnitID:     snapshot.ID,
		PlaybookID: snapshot.Playbook.ID,
		VMID:       snapshot.VM.ID,
		Message:    fmt.Sprintf("%s on %s: %s", snapshot.Playbook.Name, snapshot.VM.Name, next),
		Data:       map[string]interface{}{"status": string(next)},
	})

	return snapshot
}

func (o *Orchestrator) finishCompleted(run *BulkRun, log *telemetry.Logger) *BulkRun {
	run.Units = o.Units()
	run.Summary = summarize(run.Units)
	run.Status = RunStatusCompleted
	completed := o.now()
	run.CompletedAt = &completed

	o.deps.Metrics.RecordBulkRun("completed")
	o.deps.Events.Publish(telemetry.Event{
		Type:  telemetry.EventTypeBulkRunCompleted,
		RunID: run.ID,
		Message: fmt.Sprintf("bulk run completed: %d succeeded, %d failed",
			run.Summary.Succeeded, run.Summary.Failed),
	})
	log.Infof("bulk run completed: %d/%d units succeeded", run.Summary.Succeeded, run.Summary.Total)

	return run
}

func (o *Orchestrator) finishCancelled(run *BulkRun, log *telemetry.Logger) *BulkRun {
	run.Units = o.Units()
	run.Summary = summarize(run.Units)
	run.Status = RunStatusCancelled
	completed := o.now()
	run.CompletedAt = &completed

	o.deps.Metrics.RecordBulkRun("cancelled")
	o.deps.Events.Publish(telemetry.Event{
		Type:    telemetry.EventTypeBulkRunCancelled,
		RunID:   run.ID,
		Level:   telemetry.EventLevelWarning,
		Message: "bulk run cancelled before all units completed",
	})
	log.Warn("bulk run cancelled")

	return run
}
