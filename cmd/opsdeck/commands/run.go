package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var extraVars map[string]string

	cmd := &cobra.Command{
		Use:   "run <playbook-id> <vm-id>",
		Short: "Simulate running one playbook on one VM",
		Long: `Simulate running one playbook against one target VM. The execution
takes the configured simulated latency, produces a deterministic log,
and records the result in the registry.`,
		Example: `  # Run the seeded NiFi check on the production web server
  opsdeck run 1 vm-prod-1

  # Run with extra variables
  opsdeck run 2 vm-uat-1 --extra-vars app_env=staging --extra-vars retries=3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			res, err := a.runner.Execute(cmd.Context(), a.role, args[0], args[1], extraVars)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(res)
			}
			fmt.Println(res.Output)
			fmt.Printf("Result recorded: %s\n", res.ID)
			return nil
		},
	}

	cmd.Flags().StringToStringVarP(&extraVars, "extra-vars", "e", nil, "extra variables (key=value)")

	return cmd
}
