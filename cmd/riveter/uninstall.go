package main

import (
	"github.com/spf13/cobra"
)

var purgeUser bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [tool]",
	Short: "Stop the service and remove binaries, config and data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := resolveSpec(args)
		if err != nil {
			return err
		}

		orch, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}

		if err := orch.Uninstall(cmd.Context(), spec, purgeUser); err != nil {
			return err
		}
		cmd.Printf("uninstalled %s\n", spec.Name)
		return nil
	},
}

func init() {
	uninstallCmd.Flags().BoolVar(&purgeUser, "purge-user", false, "Also delete the dedicated service user")
}
