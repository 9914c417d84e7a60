package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/lightc/bytecode"
)

func (a *app) compileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile a tree and report statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := a.load(args)
			if err != nil {
				return err
			}
			stats := program.Stats()
			var fullCompile []string
			for _, code := range program.Code().Flatten() {
				if code.RequiresFullCompile() {
					fullCompile = append(fullCompile, fullCompileReason(code))
				}
			}
			if a.v.GetString("output") == "json" {
				return a.printJSON(map[string]any{
					"name":         program.Name(),
					"stats":        stats,
					"full_compile": fullCompile,
				})
			}
			fmt.Fprintf(a.stdout, "compiled %s: %d instructions, %d constants, %d functions, %d handlers, max stack %d\n",
				program.Name(), stats.InstructionCount, stats.ConstantCount,
				stats.FunctionCount, stats.HandlerCount, stats.MaxStackDepth)
			for _, reason := range fullCompile {
				fmt.Fprintln(a.stdout, color.YellowString("requires full compile: %s", reason))
			}
			return nil
		},
	}
	cmd.Flags().Bool("stdin", false, "read the tree from stdin")
	cmd.Flags().StringP("output", "o", "text", "output format (text, json)")
	return cmd
}

func fullCompileReason(code *bytecode.Code) string {
	reasons := make([]string, code.UnsupportedCount())
	for i := range reasons {
		reasons[i] = code.UnsupportedAt(i)
	}
	return fmt.Sprintf("%s (%s)", code.Name(), strings.Join(reasons, ", "))
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
