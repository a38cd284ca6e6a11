package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/errclass"
)

func newGroupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage playbook groups",
		Long: `Manage the named partitions of the playbook catalog. The default
group always exists; deleting a group moves its playbooks back there,
never deletes them.`,
	}

	cmd.AddCommand(newGroupsListCommand())
	cmd.AddCommand(newGroupsRenameCommand())
	cmd.AddCommand(newGroupsDeleteCommand())

	return cmd
}

func newGroupsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups and their sizes",
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
			row(w, "GROUP", "PLAYBOOKS")
			for _, g := range groups {
				row(w, g.Name, len(g.Playbooks))
			}
			return w.Flush()
		},
	}
}

func newGroupsRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if !access.CanManage(a.role) {
				return errclass.NewPermissionDenied(a.role.String(), "rename groups")
			}

			if err := a.store.RenameGroup(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Renamed group %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newGroupsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a group, moving its playbooks to the default group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if !access.CanManage(a.role) {
				return errclass.NewPermissionDenied(a.role.String(), "delete groups")
			}

			if err := a.store.DeleteGroup(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted group %s; its playbooks are now ungrouped\n", args[0])
			return nil
		},
	}
}
