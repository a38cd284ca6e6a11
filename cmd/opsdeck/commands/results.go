package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/assist"
)

func newResultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Browse and compare execution results",
	}

	cmd.AddCommand(newResultsListCommand())
	cmd.AddCommand(newResultsShowCommand())
	cmd.AddCommand(newResultsCompareCommand())

	return cmd
}

func newResultsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded execution results in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			list, err := a.registry.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(list)
			}

			w := newTable()
			row(w, "ID", "PLAYBOOK", "VM", "TIMESTAMP")
			for _, res := range list {
				row(w, res.ID, res.PlaybookName, res.VMName, res.Timestamp.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newResultsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one execution result's log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			res, err := a.registry.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}

			fmt.Printf("Playbook: %s\n", res.PlaybookName)
			fmt.Printf("VM:       %s\n", res.VMName)
			fmt.Printf("Time:     %s\n\n", res.Timestamp.Format(time.RFC3339))
			fmt.Println(res.Output)
			return nil
		},
	}
}

func newResultsCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <id-a> <id-b>",
		Short: "Compare two execution results with the AI collaborator",
		Long: `Fetch two recorded execution logs and ask the AI collaborator for a
summary of their differences. If the collaborator is unavailable, a
placeholder message is shown instead.`,
		Example: `  # Compare the seeded PROD and UAT runs of the NiFi check
  opsdeck results compare res-1 res-2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			logA, logB, err := a.registry.Pair(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			summary, err := a.assist.CompareResults(cmd.Context(), logA, logB)
			if err != nil {
				a.logger.WithError(err).Error("comparison failed")
				summary = assist.PlaceholderCompare
			}

			fmt.Println(summary)
			return nil
		},
	}
}
