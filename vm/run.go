package vm

import (
	"context"

	"github.com/deepnoodle-ai/lightc/bytecode"
)

// Run calls fn with args on a new Machine and returns the result.
func Run(ctx context.Context, fn *bytecode.Function, args []any, options ...Option) (any, error) {
	return New(options...).Call(ctx, fn, args...)
}
