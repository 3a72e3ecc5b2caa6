package main

import (
	"github.com/spf13/cobra"

	"github.com/riveterops/riveter/riveter/toolspec"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in tool catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range toolspec.Names() {
			spec, err := toolspec.Lookup(name)
			if err != nil {
				return err
			}
			cmd.Printf("%-16s %s (%s strategy)\n", name, spec.DisplayName, spec.Strategy)
		}
		return nil
	},
}
