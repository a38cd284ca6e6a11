package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/assist"
)

func newAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <playbook-id>",
		Short: "Summarize a playbook with the AI collaborator",
		Long: `Ask the AI collaborator for a markdown summary of a playbook: its
purpose, key tasks, dependencies, and validity. If the collaborator is
unavailable, a placeholder message is shown instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			p, err := a.store.Playbook(args[0])
			if err != nil {
				return err
			}

			summary, err := a.assist.AnalyzePlaybook(cmd.Context(), p.Content)
			if err != nil {
				a.logger.WithError(err).Error("analysis failed")
				summary = assist.PlaceholderAnalyze
			}

			fmt.Println(summary)
			return nil
		},
	}
}
