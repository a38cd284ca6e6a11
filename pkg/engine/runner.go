// Package engine implements the simulated execution core: the
// single-target runner and the sequential bulk orchestrator with its
// unit state machine.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/errclass"
	"github.com/opsdeck/opsdeck/pkg/results"
	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

// DefaultLatency is the simulated execution latency used when none is
// configured. It matches the delay of the interactive console flow.
const DefaultLatency = 2 * time.Second

// Deps bundles the shared collaborators of the runner and orchestrator.
// Events, Metrics, Tracer, and Logger may be nil; the engine then runs
// without that concern.
type Deps struct {
	Events  *telemetry.EventBus
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
	Logger  *telemetry.Logger

	// Latency is the simulated per-execution delay, the engine's only
	// suspension point.
	Latency time.Duration
}

func (d *Deps) normalize() {
	if d.Latency <= 0 {
		d.Latency = DefaultLatency
	}
	if d.Logger == nil {
		logger, _ := telemetry.NewLogger(telemetry.LoggingConfig{Level: "info"})
		d.Logger = logger
	}
	if d.Events == nil {
		d.Events = telemetry.NewEventBus(telemetry.EventsConfig{})
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}
}

// Runner executes one playbook against one target VM.
type Runner struct {
	store    *catalog.Store
	registry results.Registry
	deps     Deps

	now   func() time.Time
	newID func() string
}

// NewRunner creates a single-target execution runner.
func NewRunner(store *catalog.Store, registry results.Registry, deps Deps) *Runner {
	deps.normalize()
	return &Runner{
		store:    store,
		registry: registry,
		deps:     deps,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Execute simulates running the playbook against the VM and appends one
// result record. The simulated latency is the only suspension point;
// cancelling the context during it aborts without producing a result.
func (r *Runner) Execute(
	ctx context.Context,
	role access.Role,
	playbookID, vmID string,
	extraVars map[string]string,
) (*results.ExecutionResult, error) {
	if !access.CanExecute(role) {
		return nil, errclass.NewPermissionDenied(role.String(), "execute playbooks")
	}

	playbook, err := r.store.Playbook(playbookID)
	if err != nil {
		return nil, err
	}
	vm, err := r.store.VM(vmID)
	if err != nil {
		return nil, err
	}

	log := r.deps.Logger.WithPlaybook(playbook.ID, playbook.Name).WithVM(vm.ID, vm.Name).WithRole(role.String())

	started := r.now()
	var execErr error
	if r.deps.Tracer != nil {
		spanCtx, span := r.deps.Tracer.StartSpan(ctx, "engine.execute",
			attribute.String("playbook_id", playbook.ID),
			attribute.String("vm_id", vm.ID),
		)
		ctx = spanCtx
		defer func() { telemetry.EndSpan(span, execErr) }()
	}

	r.deps.Events.Publish(telemetry.Event{
		Type:       telemetry.EventTypeExecutionStarted,
		PlaybookID: playbook.ID,
		VMID:       vm.ID,
		Message:    "execution started: " + playbook.Name + " on " + vm.Name,
	})
	log.Info("starting simulated execution")

	select {
	case <-time.After(r.deps.Latency):
	case <-ctx.Done():
		execErr = ctx.Err()
		r.deps.Metrics.RecordExecution("single", "cancelled", r.now().Sub(started))
		return nil, execErr
	}

	timestamp := r.now()
	output := RenderLog(LogSpec{
		Banner:    BannerSingle,
		Playbook:  playbook,
		VM:        vm,
		Role:      role,
		Timestamp: timestamp,
		ExtraVars: extraVars,
	})

	res := &results.ExecutionResult{
		ID:           "res-" + r.newID(),
		PlaybookID:   playbook.ID,
		PlaybookName: playbook.Name,
		VMID:         vm.ID,
		VMName:       vm.Name,
		Timestamp:    timestamp,
		Output:       output,
	}

	if execErr = r.registry.Append(ctx, res); execErr != nil {
		log.WithError(execErr).Error("failed to record execution result")
		r.deps.Metrics.RecordExecution("single", "error", r.now().Sub(started))
		return nil, execErr
	}

	r.deps.Events.Publish(telemetry.Event{
		Type:       telemetry.EventTypeResultAppended,
		PlaybookID: playbook.ID,
		VMID:       vm.ID,
		Message:    "result recorded: " + res.ID,
	})
	r.deps.Events.Publish(telemetry.Event{
		Type:       telemetry.EventTypeExecutionCompleted,
		PlaybookID: playbook.ID,
		VMID:       vm.ID,
		Message:    "execution completed: " + playbook.Name + " on " + vm.Name,
	})
	r.deps.Metrics.RecordExecution("single", "success", r.now().Sub(started))
	log.Info("simulated execution completed")

	return res, nil
}
