package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/errclass"
)

func newVMsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vms",
		Short: "Manage the VM registry",
	}

	cmd.AddCommand(newVMsListCommand())
	cmd.AddCommand(newVMsAddCommand())
	cmd.AddCommand(newVMsDeleteCommand())

	return cmd
}

func newVMsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List managed VMs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			vms := a.store.VMs()
			if jsonOutput {
				return printJSON(vms)
			}

			w := newTable()
			row(w, "ID", "NAME", "HOST", "USER")
			for _, v := range vms {
				row(w, v.ID, v.Name, v.Host, v.User)
			}
			return w.Flush()
		},
	}
}

func newVMsAddCommand() *cobra.Command {
	var (
		name string
		host string
		user string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a VM to the registry",
		Example: `  opsdeck --role admin vms add --name UAT-DB-01 --host 10.0.2.20 --user ansible`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if !access.CanManage(a.role) {
				return errclass.NewPermissionDenied(a.role.String(), "manage vms")
			}

			v := catalog.VM{
				ID:   "vm-" + uuid.New().String(),
				Name: name,
				Host: host,
				User: user,
			}
			if err := a.store.AddVM(v); err != nil {
				return err
			}

			fmt.Printf("Added VM %s (%s)\n", v.Name, v.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "VM display name")
	cmd.Flags().StringVarP(&host, "host", "H", "", "VM address")
	cmd.Flags().StringVarP(&user, "user", "u", "", "execution identity on the VM")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newVMsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a VM from the registry",
		Long: `Delete a VM from the registry. Past execution results are not
affected; they keep the VM's ID and name snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if !access.CanManage(a.role) {
				return errclass.NewPermissionDenied(a.role.String(), "manage vms")
			}

			if err := a.store.DeleteVM(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted VM %s\n", args[0])
			return nil
		},
	}
}
