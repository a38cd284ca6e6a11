package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/assist"
	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/errclass"
)

func newGenerateCommand() *cobra.Command {
	var (
		name  string
		group string
		save  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <requirement...>",
		Short: "Generate a playbook from a free-text requirement",
		Long: `Ask the AI collaborator to draft a playbook from a free-text
requirement. By default the draft is printed; with --save it is added
to the catalog under the given name.`,
		Example: `  # Print a draft
  opsdeck generate install and configure nginx with a custom index page

  # Generate and add to the catalog
  opsdeck generate --save --name setup-nginx.yml install nginx on ubuntu`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			requirement := strings.Join(args, " ")
			content, err := a.assist.GeneratePlaybook(cmd.Context(), a.role, requirement)
			if err != nil {
				if errclass.IsPermissionDenied(err) {
					return err
				}
				a.logger.WithError(err).Error("generation failed")
				fmt.Println(assist.PlaceholderGenerate)
				return nil
			}

			if !save {
				fmt.Println(content)
				return nil
			}

			if name == "" {
				name = "generated-playbook.yml"
			}
			p := catalog.Playbook{
				ID:          uuid.New().String(),
				Name:        name,
				Content:     content,
				Description: requirement,
				Group:       group,
			}
			if err := a.store.AddPlaybook(p); err != nil {
				return err
			}
			fmt.Printf("Added generated playbook %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "name for the saved playbook")
	cmd.Flags().StringVarP(&group, "group", "g", "", "group for the saved playbook")
	cmd.Flags().BoolVar(&save, "save", false, "add the generated playbook to the catalog")

	return cmd
}
