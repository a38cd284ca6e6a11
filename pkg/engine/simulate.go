package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/catalog"
)

// Banner lines for the two execution modes. The log format below is
// treated as bit-stable output; change it only deliberately.
const (
	BannerSingle = "SIMULATING PLAYBOOK EXECUTION"
	BannerBulk   = "SIMULATING BULK PLAYBOOK EXECUTION"
)

// LogSpec carries everything the renderer embeds into a simulated
// execution log.
type LogSpec struct {
	Banner    string
	Playbook  catalog.Playbook
	VM        catalog.VM
	Role      access.Role
	Timestamp time.Time
	ExtraVars map[string]string
}

// RenderLog synthesizes the deterministic execution log for one simulated
// run: a header block, a fixed task sequence, and a recap line. The task
// results are a fixed success pattern (ok=3 changed=1), not derived from
// the playbook content; this is a simulation, not an execution engine.
func RenderLog(spec LogSpec) string {
	banner := spec.Banner
	if banner == "" {
		banner = BannerSingle
	}

	var b strings.Builder

	b.WriteString(banner + "\n")
	b.WriteString(strings.Repeat("-", len(banner)) + "\n")
	fmt.Fprintf(&b, "Playbook: %s\n", spec.Playbook.Name)
	fmt.Fprintf(&b, "Target VM: %s (%s)\n", spec.VM.Name, spec.VM.Host)
	fmt.Fprintf(&b, "User: %s\n", spec.Role)
	fmt.Fprintf(&b, "Timestamp: %s\n", spec.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Extra Vars: %s\n", formatExtraVars(spec.ExtraVars))
	b.WriteString("\n")

	b.WriteString("PLAY [Simulated Play] ********************************************\n\n")
	fmt.Fprintf(&b, "TASK [Gathering Facts] *******************************************\nok: [%s]\n\n", spec.VM.Name)
	fmt.Fprintf(&b, "TASK [Simulated Task 1] ******************************************\nchanged: [%s]\n\n", spec.VM.Name)
	fmt.Fprintf(&b, "TASK [Simulated Task 2] ******************************************\nok: [%s]\n\n", spec.VM.Name)

	b.WriteString("PLAY RECAP *******************************************************\n")
	fmt.Fprintf(&b, "%s : ok=3 changed=1 unreachable=0 failed=0 skipped=0\n", spec.VM.Name)

	return b.String()
}

// formatExtraVars renders the extra-parameters block with a stable key
// order, or the explicit "none" marker when absent.
func formatExtraVars(vars map[string]string) string {
	if len(vars) == 0 {
		return "none"
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, vars[k]))
	}
	return strings.Join(parts, " ")
}
