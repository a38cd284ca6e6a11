package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/results"
	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

func setupRegistry(t *testing.T) *results.SQLiteRegistry {
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

func applyBuiltin(t *testing.T) (*catalog.Store, *results.SQLiteRegistry) {
	t.Helper()

	d, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}

	store := catalog.NewStore()
	reg := setupRegistry(t)
	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{Level: "error"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	if err := Apply(context.Background(), d, store, reg, logger); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return store, reg
}

func TestBuiltinSeedContent(t *testing.T) {
	store, reg := applyBuiltin(t)

	playbooks := store.Playbooks()
	if len(playbooks) != 2 {
		t.Fatalf("expected 2 seeded playbooks, got %d", len(playbooks))
	}
	// File order survives the store's prepend-on-add semantics.
	if playbooks[0].Name != "check-nifi-env.yml" || playbooks[1].Name != "setup-python-venv.yml" {
		t.Errorf("playbook order = %s, %s", playbooks[0].Name, playbooks[1].Name)
	}
	if !strings.Contains(playbooks[0].Content, "Check for JAVA_HOME") {
		t.Error("check-nifi-env.yml content missing its tasks")
	}

	vms := store.VMs()
	if len(vms) != 4 {
		t.Fatalf("expected 4 seeded vms, got %d", len(vms))
	}
	if vms[0].Name != "PROD-Web-01" || vms[3].Name != "PROD-Standby-Web-01" {
		t.Errorf("vm order = %s ... %s", vms[0].Name, vms[3].Name)
	}

	list, err := reg.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 seeded results, got %d", len(list))
	}
	for i, want := range []string{"res-1", "res-2", "res-3"} {
		if list[i].ID != want {
			t.Errorf("result %d = %s, want %s", i, list[i].ID, want)
		}
	}
	if !strings.Contains(list[1].Output, "java-8-openjdk-amd64") {
		t.Error("res-2 output must report the UAT java version")
	}
}

func TestSeedTimestampsInPast(t *testing.T) {
	_, reg := applyBuiltin(t)

	list, err := reg.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	now := time.Now()
	for _, res := range list {
		if !res.Timestamp.Before(now) {
			t.Errorf("%s timestamp %v is not in the past", res.ID, res.Timestamp)
		}
	}
	// res-1 is 1h old, res-3 is 24h old.
	if !list[2].Timestamp.Before(list[0].Timestamp) {
		t.Error("res-3 must be older than res-1")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("playbooks: [oops")); err == nil {
		t.Error("Parse() accepted malformed YAML")
	}
}

func TestApplyIsIdempotentPerSession(t *testing.T) {
	store, reg := applyBuiltin(t)

	d, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	logger, _ := telemetry.NewLogger(telemetry.LoggingConfig{Level: "error"})

	// Applying twice to one session must fail on duplicates rather than
	// silently doubling the catalog.
	if err := Apply(context.Background(), d, store, reg, logger); err == nil {
		t.Error("second Apply() must reject duplicate seed IDs")
	}
}
