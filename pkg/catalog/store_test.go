package catalog

import (
	"testing"

	"github.com/opsdeck/opsdeck/pkg/errclass"
)

func testPlaybook(id, name, group string) Playbook {
	return Playbook{
		ID:      id,
		Name:    name,
		Content: "- name: test play\n  hosts: all\n",
		Group:   group,
	}
}

func testVM(id, name string) VM {
	return VM{ID: id, Name: name, Host: "10.0.0.1", User: "ansible"}
}

func TestAddPlaybookPrepends(t *testing.T) {
	s := NewStore()

	if err := s.AddPlaybook(testPlaybook("p1", "first.yml", "")); err != nil {
		t.Fatalf("AddPlaybook() error = %v", err)
	}
	if err := s.AddPlaybook(testPlaybook("p2", "second.yml", "")); err != nil {
		t.Fatalf("AddPlaybook() error = %v", err)
	}

	playbooks := s.Playbooks()
	if len(playbooks) != 2 {
		t.Fatalf("expected 2 playbooks, got %d", len(playbooks))
	}
	if playbooks[0].ID != "p2" || playbooks[1].ID != "p1" {
		t.Errorf("expected newest first, got order %s, %s", playbooks[0].ID, playbooks[1].ID)
	}
}

func TestAddPlaybookDuplicateID(t *testing.T) {
	s := NewStore()

	if err := s.AddPlaybook(testPlaybook("p1", "first.yml", "")); err != nil {
		t.Fatalf("AddPlaybook() error = %v", err)
	}

	err := s.AddPlaybook(testPlaybook("p1", "other.yml", ""))
	if !errclass.IsConflict(err) {
		t.Errorf("expected conflict error for duplicate ID, got %v", err)
	}
	if len(s.Playbooks()) != 1 {
		t.Errorf("duplicate add must not grow the collection")
	}
}

func TestAddPlaybookInvalid(t *testing.T) {
	s := NewStore()

	if err := s.AddPlaybook(Playbook{ID: "p1"}); err == nil {
		t.Error("expected validation error for playbook without name/content")
	}
}

func TestUpdatePlaybook(t *testing.T) {
	s := NewStore()

	if err := s.AddPlaybook(testPlaybook("p1", "first.yml", "")); err != nil {
		t.Fatalf("AddPlaybook() error = %v", err)
	}

	updated := testPlaybook("p1", "renamed.yml", "web")
	updated.Description = "updated"
	if err := s.UpdatePlaybook(updated); err != nil {
		t.Fatalf("UpdatePlaybook() error = %v", err)
	}

	got, err := s.Playbook("p1")
	if err != nil {
		t.Fatalf("Playbook() error = %v", err)
	}
	if got.Name != "renamed.yml" || got.Group != "web" || got.Description != "updated" {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestUpdatePlaybookNotFound(t *testing.T) {
	s := NewStore()

	err := s.UpdatePlaybook(testPlaybook("missing", "x.yml", ""))
	if !errclass.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestVMLifecycle(t *testing.T) {
	s := NewStore()

	if err := s.AddVM(testVM("vm-1", "PROD-Web-01")); err != nil {
		t.Fatalf("AddVM() error = %v", err)
	}
	if err := s.AddVM(testVM("vm-2", "PROD-DB-01")); err != nil {
		t.Fatalf("AddVM() error = %v", err)
	}

	if err := s.AddVM(testVM("vm-1", "dup")); !errclass.IsConflict(err) {
		t.Errorf("expected conflict for duplicate vm ID, got %v", err)
	}

	if err := s.DeleteVM("vm-1"); err != nil {
		t.Fatalf("DeleteVM() error = %v", err)
	}
	if _, err := s.VM("vm-1"); !errclass.IsNotFound(err) {
		t.Errorf("expected not-found after delete, got %v", err)
	}

	vms := s.VMs()
	if len(vms) != 1 || vms[0].ID != "vm-2" {
		t.Errorf("unexpected registry contents: %+v", vms)
	}

	if err := s.DeleteVM("vm-1"); !errclass.IsNotFound(err) {
		t.Errorf("expected not-found deleting missing vm, got %v", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	s := NewStore()

	if err := s.AddPlaybook(testPlaybook("p1", "first.yml", "")); err != nil {
		t.Fatalf("AddPlaybook() error = %v", err)
	}

	playbooks := s.Playbooks()
	playbooks[0].Name = "mutated.yml"

	got, err := s.Playbook("p1")
	if err != nil {
		t.Fatalf("Playbook() error = %v", err)
	}
	if got.Name != "first.yml" {
		t.Error("mutating a returned slice must not affect the store")
	}
}
