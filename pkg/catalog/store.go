package catalog

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/opsdeck/opsdeck/pkg/errclass"
)

var validate = validator.New()

// Store is the session-scoped catalog of playbooks and VMs. All methods are
// safe for concurrent use; reads return copies so callers never observe a
// partial mutation.
type Store struct {
	mu        sync.RWMutex
	playbooks []Playbook
	vms       []VM
}

// NewStore creates an empty catalog store.
func NewStore() *Store {
	return &Store{
		playbooks: make([]Playbook, 0),
		vms:       make([]VM, 0),
	}
}

// AddPlaybook validates and prepends a playbook to the collection, so the
// newest playbook lists first. Duplicate IDs are rejected.
func (s *Store) AddPlaybook(p Playbook) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid playbook: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.playbooks {
		if existing.ID == p.ID {
			return errclass.NewAlreadyExists("playbook", p.ID).WithOperation("add_playbook")
		}
	}

	s.playbooks = append([]Playbook{p}, s.playbooks...)
	return nil
}

// UpdatePlaybook replaces the playbook matching p.ID in place, preserving
// its position in the collection.
func (s *Store) UpdatePlaybook(p Playbook) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid playbook: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.playbooks {
		if s.playbooks[i].ID == p.ID {
			s.playbooks[i] = p
			return nil
		}
	}

	return errclass.NewNotFound("playbook", p.ID).WithOperation("update_playbook")
}

// Playbook returns the playbook with the given ID.
func (s *Store) Playbook(id string) (Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.playbooks {
		if p.ID == id {
			return p, nil
		}
	}

	return Playbook{}, errclass.NewNotFound("playbook", id)
}

// Playbooks returns a copy of all playbooks in stored order.
func (s *Store) Playbooks() []Playbook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Playbook, len(s.playbooks))
	copy(out, s.playbooks)
	return out
}

// AddVM validates and appends a VM to the registry. Duplicate IDs are
// rejected.
func (s *Store) AddVM(v VM) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid vm: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.vms {
		if existing.ID == v.ID {
			return errclass.NewAlreadyExists("vm", v.ID).WithOperation("add_vm")
		}
	}

	s.vms = append(s.vms, v)
	return nil
}

// DeleteVM removes the VM with the given ID. Past execution results are not
// affected; they keep the VM ID and a name snapshot.
func (s *Store) DeleteVM(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.vms {
		if s.vms[i].ID == id {
			s.vms = append(s.vms[:i], s.vms[i+1:]...)
			return nil
		}
	}

	return errclass.NewNotFound("vm", id).WithOperation("delete_vm")
}

// VM returns the VM with the given ID.
func (s *Store) VM(id string) (VM, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.vms {
		if v.ID == id {
			return v, nil
		}
	}

	return VM{}, errclass.NewNotFound("vm", id)
}

// VMs returns a copy of all VMs in stored order.
func (s *Store) VMs() []VM {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]VM, len(s.vms))
	copy(out, s.vms)
	return out
}
