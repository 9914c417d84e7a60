package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.v.GetString("output") == "json" {
				return a.printJSON(map[string]any{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
			}
			fmt.Fprintln(a.stdout, version)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "output format (text, json)")
	return cmd
}
