package commands

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/errclass"
)

func newPlaybooksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbooks",
		Short: "Manage the playbook catalog",
	}

	cmd.AddCommand(newPlaybooksListCommand())
	cmd.AddCommand(newPlaybooksShowCommand())
	cmd.AddCommand(newPlaybooksAddCommand())
	cmd.AddCommand(newPlaybooksSetGroupCommand())

	return cmd
}

func newPlaybooksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List playbooks grouped by their group",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			groups := a.store.Grouped()
			if jsonOutput {
				return printJSON(groups)
			}

			w := newTable()
			row(w, "GROUP", "ID", "NAME", "DESCRIPTION")
			for _, g := range groups {
				for _, p := range g.Playbooks {
					row(w, g.Name, p.ID, p.Name, p.Description)
				}
			}
			return w.Flush()
		},
	}
}

func newPlaybooksShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a playbook's content",
		Args:  cobra.ExactArgs(1),
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
			if jsonOutput {
				return printJSON(p)
			}

			fmt.Printf("Name:  %s\n", p.Name)
			fmt.Printf("Group: %s\n", catalog.EffectiveGroup(p))
			if p.Description != "" {
				fmt.Printf("About: %s\n", p.Description)
			}
			fmt.Printf("\n%s\n", p.Content)
			return nil
		},
	}
}

func newPlaybooksAddCommand() *cobra.Command {
	var (
		name        string
		description string
		group       string
		file        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a playbook from a file",
		Example: `  # Add a playbook from a YAML file
  opsdeck playbooks add --name deploy-app.yml --file ./deploy-app.yml

  # Add into a group with a description
  opsdeck playbooks add --name patch.yml --file ./patch.yml --group Maintenance \
    --description "Monthly patching"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if !access.CanManage(a.role) && !access.CanGenerate(a.role) {
				return errclass.NewPermissionDenied(a.role.String(), "add playbooks")
			}

			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read playbook file: %w", err)
			}

			p := catalog.Playbook{
				ID:          uuid.New().String(),
				Name:        name,
				Content:     string(content),
				Description: description,
				Group:       group,
			}
			if err := a.store.AddPlaybook(p); err != nil {
				return err
			}

			fmt.Printf("Added playbook %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "playbook display name")
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the playbook YAML")
	cmd.Flags().StringVarP(&description, "description", "d", "", "playbook description")
	cmd.Flags().StringVarP(&group, "group", "g", "", "group to place the playbook in")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newPlaybooksSetGroupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-group <id> <group>",
		Short: "Move a playbook into a group",
		Long: `Move a playbook into a group. An empty group name moves the playbook
back into the default group.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if !access.CanManage(a.role) {
				return errclass.NewPermissionDenied(a.role.String(), "edit playbooks")
			}

			p, err := a.store.Playbook(args[0])
			if err != nil {
				return err
			}
			group := args[1]
			if group == catalog.DefaultGroup {
				group = ""
			}
			p.Group = group
			if err := a.store.UpdatePlaybook(p); err != nil {
				return err
			}

			fmt.Printf("Moved %s to %s\n", p.Name, catalog.EffectiveGroup(p))
			return nil
		},
	}
}
