package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/catalog"
)

func logSpecFixture() LogSpec {
	return LogSpec{
		Banner: BannerSingle,
		Playbook: catalog.Playbook{
			ID:      "p1",
			Name:    "check-nifi-env.yml",
			Content: "---\n- hosts: all\n",
		},
		VM: catalog.VM{
			ID:   "vm-1",
			Name: "PROD-Web-01",
			Host: "192.168.1.10",
			User: "admin",
		},
		Role:      access.RoleOperator,
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestRenderLog(t *testing.T) {
	got := RenderLog(logSpecFixture())

	want := strings.Join([]string{
		"SIMULATING PLAYBOOK EXECUTION",
		strings.Repeat("-", len(BannerSingle)),
		"Playbook: check-nifi-env.yml",
		"Target VM: PROD-Web-01 (192.168.1.10)",
		"User: operator",
		"Timestamp: 2026-03-14T09:26:53Z",
		"Extra Vars: none",
		"",
		"PLAY [Simulated Play] ********************************************",
		"",
		"TASK [Gathering Facts] *******************************************",
		"ok: [PROD-Web-01]",
		"",
		"TASK [Simulated Task 1] ******************************************",
		"changed: [PROD-Web-01]",
		"",
		"TASK [Simulated Task 2] ******************************************",
		"ok: [PROD-Web-01]",
		"",
		"PLAY RECAP *******************************************************",
		"PROD-Web-01 : ok=3 changed=1 unreachable=0 failed=0 skipped=0",
		"",
	}, "\n")

	if got != want {
		t.Errorf("RenderLog() mismatch:\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderLogDeterministic(t *testing.T) {
	spec := logSpecFixture()

	first := RenderLog(spec)
	for i := 0; i < 5; i++ {
		if got := RenderLog(spec); got != first {
			t.Fatalf("RenderLog() not deterministic on iteration %d", i)
		}
	}
}

func TestRenderLogBulkBanner(t *testing.T) {
	spec := logSpecFixture()
	spec.Banner = BannerBulk

	got := RenderLog(spec)
	if !strings.HasPrefix(got, BannerBulk+"\n"+strings.Repeat("-", len(BannerBulk))+"\n") {
		t.Errorf("bulk log must open with the bulk banner and matching underline, got:\n%s", got)
	}
}

func TestRenderLogExtraVarsSorted(t *testing.T) {
	spec := logSpecFixture()
	spec.ExtraVars = map[string]string{
		"zone":    "eu-west",
		"app_env": "staging",
		"retries": "3",
	}

	got := RenderLog(spec)
	if !strings.Contains(got, "Extra Vars: app_env=staging retries=3 zone=eu-west\n") {
		t.Errorf("extra vars must render in sorted key order, got:\n%s", got)
	}
}

func TestFormatExtraVarsEmpty(t *testing.T) {
	if got := formatExtraVars(nil); got != "none" {
		t.Errorf("formatExtraVars(nil) = %q, want %q", got, "none")
	}
	if got := formatExtraVars(map[string]string{}); got != "none" {
		t.Errorf("formatExtraVars(empty) = %q, want %q", got, "none")
	}
}
