package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/lightc/builtins"
)

func (a *app) docCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc [function]",
		Aliases: []string{"d"},
		Short:   "Describe builtin functions and types",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := builtins.Docs()
			if len(args) == 1 {
				for _, doc := range docs {
					if doc.Name == args[0] {
						return a.printDoc(doc)
					}
				}
				return fmt.Errorf("unknown function %q", args[0])
			}
			if a.v.GetString("output") == "json" {
				return a.printJSON(map[string]any{
					"functions": docs,
					"types":     a.registry().TypeNames(),
				})
			}
			bold := color.New(color.Bold)
			bold.Fprintln(a.stdout, "Functions")
			for _, doc := range docs {
				fmt.Fprintf(a.stdout, "  %-8s %s\n", doc.Name, doc.Doc)
			}
			fmt.Fprintln(a.stdout)
			bold.Fprintln(a.stdout, "Types")
			fmt.Fprintf(a.stdout, "  %s\n", strings.Join(a.registry().TypeNames(), ", "))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "output format (text, json)")
	return cmd
}

func (a *app) printDoc(doc builtins.FuncSpec) error {
	if a.v.GetString("output") == "json" {
		return a.printJSON(doc)
	}
	color.New(color.Bold).Fprintf(a.stdout, "%s(%s) %s\n", doc.Name, strings.Join(doc.Args, ", "), doc.Returns)
	fmt.Fprintf(a.stdout, "  %s\n", doc.Doc)
	if doc.Example != "" {
		fmt.Fprintf(a.stdout, "\n  %s\n", doc.Example)
	}
	return nil
}
