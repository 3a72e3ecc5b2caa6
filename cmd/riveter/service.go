package main

import (
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [tool]",
	Short: "Start the tool's service",
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
		if err := orch.Start(cmd.Context(), spec); err != nil {
			return err
		}
		cmd.Printf("service %s started\n", spec.Service.Name)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop [tool]",
	Short: "Stop the tool's service",
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
		if err := orch.Stop(cmd.Context(), spec); err != nil {
			return err
		}
		cmd.Printf("service %s stopped\n", spec.Service.Name)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [tool]",
	Short: "Report installed version and service state",
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

		state, err := orch.Observe(cmd.Context(), spec)
		if err != nil {
			return err
		}

		if !state.Installed() {
			cmd.Printf("%s: not installed\n", spec.Name)
			return nil
		}
		cmd.Printf("%s: %s (%s)\n", spec.Name, state.Version, state.BinaryPath)
		if state.ConfigPath != "" {
			cmd.Printf("  config: %s\n", state.ConfigPath)
		}
		if spec.Service != nil {
			svcState, err := orch.ServiceStatus(cmd.Context(), spec)
			if err != nil {
				return err
			}
			cmd.Printf("  service: %s\n", svcState)
		}
		return nil
	},
}
