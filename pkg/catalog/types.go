// Package catalog holds the in-memory session catalog: the playbook
// collection with its group partitioning, and the managed VM registry.
// The catalog is created at session start and discarded at session end.
package catalog

// Playbook is a named declarative automation script with descriptive
// metadata and group membership.
type Playbook struct {
	// ID is the unique identifier for this playbook.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Name is the display name, usually file-like (e.g., "setup-nginx.yml").
	Name string `json:"name" yaml:"name" validate:"required"`

	// Content is the playbook body in YAML form.
	Content string `json:"content" yaml:"content" validate:"required"`

	// Description is an optional human-readable summary.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Group is the group this playbook belongs to. Empty means the
	// default group.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// VM is a managed host record referenced by execution units and results.
type VM struct {
	// ID is the unique identifier for this VM.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Name is the display name (e.g., "PROD-Web-01").
	Name string `json:"name" yaml:"name" validate:"required"`

	// Host is the address of the VM.
	Host string `json:"host" yaml:"host" validate:"required"`

	// User is the execution identity used on the VM.
	User string `json:"user" yaml:"user" validate:"required"`
}
