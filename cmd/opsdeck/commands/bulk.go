package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

func newBulkCommand() *cobra.Command {
	var (
		playbookIDs []string
		vmIDs       []string
		extraVars   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Simulate running playbooks across VMs",
		Long: `Simulate the full cross product of the selected playbooks and VMs.
Units execute strictly one after another: each unit finishes and its
result is recorded before the next one starts. Only one bulk run can be
active at a time.`,
		Example: `  # Run both seeded playbooks on two VMs (4 units)
  opsdeck bulk --playbook 1 --playbook 2 --vm vm-prod-1 --vm vm-uat-1

  # Bulk run with extra variables
  opsdeck bulk --playbook 1 --vm vm-prod-1 --extra-vars app_env=prod`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			// Stream unit transitions as they happen; delivery is
			// synchronous, so this prints in execution order.
			if !jsonOutput {
				a.events.SubscribeFiltered(func(e telemetry.Event) {
					fmt.Printf("  %s\n", e.Message)
				}, telemetry.FilterByType(telemetry.EventTypeUnitStatusChanged))
			}

			run, err := a.orch.Run(cmd.Context(), a.role, playbookIDs, vmIDs, extraVars)
			if err != nil && run == nil {
				return err
			}

			if jsonOutput {
				return printJSON(run)
			}

			fmt.Printf("\nBulk run %s: %s\n", run.ID, run.Status)
			fmt.Printf("Units: %d total, %d succeeded, %d failed, %d pending\n",
				run.Summary.Total, run.Summary.Succeeded, run.Summary.Failed, run.Summary.Pending)
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&playbookIDs, "playbook", "p", nil, "playbook id to run (repeatable)")
	cmd.Flags().StringSliceVarP(&vmIDs, "vm", "t", nil, "target vm id (repeatable)")
	cmd.Flags().StringToStringVarP(&extraVars, "extra-vars", "e", nil, "extra variables (key=value)")

	return cmd
}
