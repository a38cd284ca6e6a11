// Package access defines the console's role model and the capability checks
// that gate catalog mutation and playbook execution.
package access

import "fmt"

// Role represents the actor role supplied by the session provider.
type Role string

const (
	// RoleAdmin can manage the VM registry, edit playbooks, and execute.
	RoleAdmin Role = "admin"

	// RoleOperator can generate and execute playbooks but not manage VMs.
	RoleOperator Role = "operator"

	// RoleDeveloper has read-only access to the console.
	RoleDeveloper Role = "developer"
)

// Validate checks if the role is a member of the closed role set.
func (r Role) Validate() error {
	switch r {
	case RoleAdmin, RoleOperator, RoleDeveloper:
		return nil
	default:
		return fmt.Errorf("invalid role: %s", r)
	}
}

// String returns the role name.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a role name into a Role, rejecting unknown names.
func ParseRole(name string) (Role, error) {
	r := Role(name)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// CanExecute reports whether the role may run playbooks (single or bulk).
func CanExecute(r Role) bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanGenerate reports whether the role may generate and save new playbooks.
func CanGenerate(r Role) bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanManage reports whether the role may mutate the VM registry and edit
// existing playbooks.
func CanManage(r Role) bool {
	return r == RoleAdmin
}
