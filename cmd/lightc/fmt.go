package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/lightc/astjson"
)

func (a *app) fmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Rewrite a tree in canonical JSON form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := a.readInput(args)
			if err != nil {
				return err
			}
			lambda, err := astjson.Decode(data, a.registry())
			if err != nil {
				return err
			}
			formatted, err := astjson.Encode(lambda)
			if err != nil {
				return err
			}
			formatted = append(formatted, '\n')

			if a.v.GetBool("write") && len(args) > 0 && args[0] != "-" {
				return os.WriteFile(args[0], formatted, 0o644)
			}
			_, err = a.stdout.Write(formatted)
			return err
		},
	}
	cmd.Flags().Bool("stdin", false, "read the tree from stdin")
	cmd.Flags().BoolP("write", "w", false, "write result to source file")
	return cmd
}
