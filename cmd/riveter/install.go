package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riveterops/riveter/riveter/toolspec"
	"github.com/riveterops/riveter/riveter/versions"
)

var (
	installVersion string
	configValues   []string
	noStart        bool
)

var installCmd = &cobra.Command{
	Use:   "install [tool]",
	Short: "Install a tool, render its config and register its service",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := resolveSpec(args)
		if err != nil {
			return err
		}

		values, err := parseConfigValues(configValues)
		if err != nil {
			return err
		}
		target := toolspec.TargetState{
			Version:   installVersion,
			Values:    values,
			AutoStart: spec.Service != nil && !noStart,
		}

		orch, err := newOrchestrator(cmd)
		if err != nil {
			return err
		}

		outcome, err := orch.Install(cmd.Context(), spec, target)
		if err != nil {
			return err
		}

		if outcome.Skipped {
			cmd.Printf("%s is already up to date (%s)\n", spec.Name, outcome.Version)
			return nil
		}
		cmd.Printf("installed %s %s\n", spec.Name, outcome.Version)
		if outcome.Started {
			cmd.Printf("service %s started\n", spec.Service.Name)
		}
		return nil
	},
}

func init() {
	installCmd.Flags().StringVar(&installVersion, "version", versions.Latest, "Version to install, or \"latest\"")
	installCmd.Flags().StringArrayVar(&configValues, "set", nil, "Config value as key=value, repeatable")
	installCmd.Flags().BoolVar(&noStart, "no-start", false, "Register the service without starting it")
}

func parseConfigValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", pair)
		}
		values[key] = value
	}
	return values, nil
}
