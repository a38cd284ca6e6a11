package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/opsdeck/opsdeck/pkg/errclass"
)

// DefaultGroup is the reserved group every playbook without an explicit
// group belongs to. It always exists under this name and can never be
// renamed or deleted.
const DefaultGroup = "Ungrouped"

// Group names are ordered with locale-aware collation so the grouped view
// is stable across sessions.
var groupCollator = collate.New(language.Und)

// EffectiveGroup returns the group a playbook belongs to, falling back to
// the default group when none is set.
func EffectiveGroup(p Playbook) string {
	if p.Group == "" {
		return DefaultGroup
	}
	return p.Group
}

// Group is a named partition of the playbook collection.
type Group struct {
	// Name is the group name.
	Name string `json:"name"`

	// Playbooks are the members of the group in stored order.
	Playbooks []Playbook `json:"playbooks"`
}

// Grouped partitions all playbooks by effective group. The default group
// sorts first; the remaining groups follow in collation order. Playbooks
// keep their stored order within each group.
func (s *Store) Grouped() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := make(map[string][]Playbook)
	for _, p := range s.playbooks {
		name := EffectiveGroup(p)
		byName[name] = append(byName[name], p)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		if name != DefaultGroup {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return groupCollator.CompareString(names[i], names[j]) < 0
	})
	if _, ok := byName[DefaultGroup]; ok {
		names = append([]string{DefaultGroup}, names...)
	}

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, Group{Name: name, Playbooks: byName[name]})
	}
	return groups
}

// RenameGroup moves every playbook whose effective group equals old into
// new. Renaming to an empty or identical name is a no-op. The default group
// can be neither source nor target.
func (s *Store) RenameGroup(old, new string) error {
	if new == "" || new == old {
		return nil
	}
	if old == "" || old == DefaultGroup || new == DefaultGroup {
		return errclass.NewInvariantViolation("the default group cannot be renamed").
			WithOperation("rename_group")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.playbooks {
		if s.playbooks[i].Group == old {
			s.playbooks[i].Group = new
		}
	}
	return nil
}

// DeleteGroup reassigns every member of the named group to the default
// group. Playbooks are never deleted. Deleting the default group is
// forbidden.
func (s *Store) DeleteGroup(name string) error {
	if name == DefaultGroup {
		return errclass.NewInvariantViolation("the default group cannot be deleted").
			WithOperation("delete_group")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.playbooks {
		if s.playbooks[i].Group == name {
			s.playbooks[i].Group = ""
		}
	}
	return nil
}
