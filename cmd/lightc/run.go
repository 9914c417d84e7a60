package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/lightc"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/object"
	"github.com/deepnoodle-ai/lightc/types"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file> [args...]",
		Short: "Compile and run a tree",
		Long:  "Compile and run a tree. Arguments are parsed according to the types of the function's parameters.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := a.load(args[:1])
			if err != nil {
				return err
			}
			callArgs, err := parseArgs(program.Code(), args[1:])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout := a.v.GetDuration("timeout"); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			start := time.Now()
			result, err := lightc.Run(ctx, program, callArgs, a.options()...)
			elapsed := time.Since(start)
			a.log.Debug().Str("function", program.Name()).Dur("elapsed", elapsed).Msg("run finished")
			if err != nil {
				return err
			}
			if err := a.printResult(result, program.Code().ReturnsVoid()); err != nil {
				return err
			}
			if a.v.GetBool("timing") {
				fmt.Fprintf(a.stderr, "%v\n", elapsed)
			}
			return nil
		},
	}
	cmd.Flags().Bool("timing", false, "show execution time")
	cmd.Flags().StringP("output", "o", "text", "output format (text, json)")
	cmd.Flags().Int64("tier-threshold", 0, "weighted call count that promotes a function (0 disables)")
	cmd.Flags().Int("max-frame-depth", 0, "maximum call depth")
	cmd.Flags().Duration("timeout", 0, "cancel execution after this long")
	return cmd
}

func (a *app) printResult(result any, void bool) error {
	if void {
		return nil
	}
	if a.v.GetString("output") == "json" {
		return a.printJSON(result)
	}
	if result == nil {
		fmt.Fprintln(a.stdout, "nil")
		return nil
	}
	fmt.Fprintf(a.stdout, "%v\n", result)
	return nil
}

// parseArgs converts command line arguments to the parameter types of code.
func parseArgs(code *bytecode.Code, args []string) ([]any, error) {
	if len(args) != code.ParamCount() {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", code.Name(), code.ParamCount(), len(args))
	}
	result := make([]any, len(args))
	for i, s := range args {
		param := code.ParamAt(i)
		v, err := parseArg(s, param.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", param.Name, err)
		}
		result[i] = v
	}
	return result, nil
}

func parseArg(s string, t *types.Type) (any, error) {
	kind := t.Kind()
	switch {
	case kind == types.KindString:
		return s, nil
	case kind == types.KindBool:
		return strconv.ParseBool(s)
	case kind.IsUnsigned():
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return object.Convert(types.KindUint64, kind, n, true)
	case kind.IsInteger():
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return object.Convert(types.KindInt64, kind, n, true)
	case kind.IsFloat():
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return object.Convert(types.KindFloat64, kind, f, false)
	}
	return nil, fmt.Errorf("cannot pass %s from the command line", t)
}
