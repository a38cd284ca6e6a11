package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/errclass"
	"github.com/opsdeck/opsdeck/pkg/results"
	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

// setupTestCatalog seeds a store with two playbooks and two VMs. Playbooks
// prepend on add, so p2 is added first to get [p1, p2] in stored order.
func setupTestCatalog(t *testing.T) *catalog.Store {
	t.Helper()

	store := catalog.NewStore()
	for _, p := range []catalog.Playbook{
		{ID: "p2", Name: "setup-python-venv.yml", Content: "---\n- hosts: all\n"},
		{ID: "p1", Name: "check-nifi-env.yml", Content: "---\n- hosts: all\n"},
	} {
		if err := store.AddPlaybook(p); err != nil {
			t.Fatalf("AddPlaybook(%s) error = %v", p.ID, err)
		}
	}
	for _, v := range []catalog.VM{
		{ID: "vm-1", Name: "PROD-Web-01", Host: "192.168.1.10", User: "admin"},
		{ID: "vm-2", Name: "PROD-DB-01", Host: "192.168.1.11", User: "admin"},
	} {
		if err := store.AddVM(v); err != nil {
			t.Fatalf("AddVM(%s) error = %v", v.ID, err)
		}
	}
	return store
}

func setupTestRegistry(t *testing.T) *results.SQLiteRegistry {
	t.Helper()

	reg := results.NewSQLiteRegistry(results.Config{Path: results.MemoryDSN})
	ctx := context.Background()
	if err := reg.Init(ctx); err != nil {
		t.Fatalf("failed to initialize registry: %v", err)
	}
	if err := reg.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate registry: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func testDeps(t *testing.T) Deps {
	t.Helper()

	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{Level: "error"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return Deps{
		Events:  telemetry.NewEventBus(telemetry.EventsConfig{Enabled: true}),
		Logger:  logger,
		Latency: time.Millisecond,
	}
}

func TestExecuteRecordsResult(t *testing.T) {
	store := setupTestCatalog(t)
	reg := setupTestRegistry(t)
	runner := NewRunner(store, reg, testDeps(t))
	ctx := context.Background()

	res, err := runner.Execute(ctx, access.RoleOperator, "p1", "vm-1", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.PlaybookID != "p1" || res.PlaybookName != "check-nifi-env.yml" {
		t.Errorf("result playbook snapshot = %s/%s, want p1/check-nifi-env.yml",
			res.PlaybookID, res.PlaybookName)
	}
	if res.VMID != "vm-1" || res.VMName != "PROD-Web-01" {
		t.Errorf("result vm snapshot = %s/%s, want vm-1/PROD-Web-01", res.VMID, res.VMName)
	}
	if !strings.HasPrefix(res.Output, BannerSingle) {
		t.Errorf("single execution output must open with %q, got:\n%s", BannerSingle, res.Output)
	}

	stored, err := reg.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("result %s not in registry: %v", res.ID, err)
	}
	if stored.Output != res.Output {
		t.Error("registry output differs from returned result")
	}
}

func TestExecutePermissionDenied(t *testing.T) {
	store := setupTestCatalog(t)
	reg := setupTestRegistry(t)
	runner := NewRunner(store, reg, testDeps(t))
	ctx := context.Background()

	_, err := runner.Execute(ctx, access.RoleDeveloper, "p1", "vm-1", nil)
	if !errclass.IsPermissionDenied(err) {
		t.Fatalf("expected permission denied for developer, got %v", err)
	}

	list, err := reg.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("denied execution must not record a result, found %d", len(list))
	}
}

func TestExecuteUnknownTargets(t *testing.T) {
	store := setupTestCatalog(t)
	reg := setupTestRegistry(t)
	runner := NewRunner(store, reg, testDeps(t))
	ctx := context.Background()

	if _, err := runner.Execute(ctx, access.RoleAdmin, "missing", "vm-1", nil); !errclass.IsNotFound(err) {
		t.Errorf("expected not-found for unknown playbook, got %v", err)
	}
	if _, err := runner.Execute(ctx, access.RoleAdmin, "p1", "missing", nil); !errclass.IsNotFound(err) {
		t.Errorf("expected not-found for unknown vm, got %v", err)
	}
}

func TestExecuteExtraVarsInOutput(t *testing.T) {
	store := setupTestCatalog(t)
	reg := setupTestRegistry(t)
	runner := NewRunner(store, reg, testDeps(t))

	res, err := runner.Execute(context.Background(), access.RoleAdmin, "p1", "vm-1",
		map[string]string{"app_env": "staging", "retries": "3"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(res.Output, "Extra Vars: app_env=staging retries=3\n") {
		t.Errorf("extra vars missing from output:\n%s", res.Output)
	}
}

func TestExecuteCancelled(t *testing.T) {
	store := setupTestCatalog(t)
	reg := setupTestRegistry(t)

	deps := testDeps(t)
	deps.Latency = 500 * time.Millisecond
	runner := NewRunner(store, reg, deps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Execute(ctx, access.RoleAdmin, "p1", "vm-1", nil)
	if err != context.Canceled {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}

	list, err := reg.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("cancelled execution must not record a result, found %d", len(list))
	}
}

func TestExecutePublishesLifecycleEvents(t *testing.T) {
	store := setupTestCatalog(t)
	reg := setupTestRegistry(t)
	deps := testDeps(t)

	var types []string
	deps.Events.Subscribe(func(e telemetry.Event) {
		types = append(types, e.Type)
	})

	runner := NewRunner(store, reg, deps)
	if _, err := runner.Execute(context.Background(), access.RoleOperator, "p1", "vm-1", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{
		telemetry.EventTypeExecutionStarted,
		telemetry.EventTypeResultAppended,
		telemetry.EventTypeExecutionCompleted,
	}
	if len(types) != len(want) {
		t.Fatalf("got %d events %v, want %v", len(types), types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
}
