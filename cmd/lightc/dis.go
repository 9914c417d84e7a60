package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/dis"
)

func (a *app) disCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble a compiled tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := a.load(args)
			if err != nil {
				return err
			}
			code := program.Code()

			// If a function name was provided, disassemble its code only
			if name := a.v.GetString("func"); name != "" {
				code = findCode(code, name)
				if code == nil {
					return fmt.Errorf("function %q not found", name)
				}
				instructions, err := dis.Disassemble(code)
				if err != nil {
					return err
				}
				dis.Print(instructions, a.stdout)
				return nil
			}
			return dis.PrintCode(code, a.stdout)
		},
	}
	cmd.Flags().Bool("stdin", false, "read the tree from stdin")
	cmd.Flags().String("func", "", "function to disassemble")
	return cmd
}

func findCode(code *bytecode.Code, name string) *bytecode.Code {
	for _, c := range code.Flatten() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
