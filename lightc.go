// Package lightc compiles expression trees into bytecode and runs them on
// the reference interpreter.
//
// Trees are built with the ast package or loaded from JSON with astjson.
// Compile produces an immutable Program that is safe for concurrent use:
//
//	program, err := lightc.CompileJSON(data)
//	if err != nil {
//		return err
//	}
//	result, err := lightc.Run(ctx, program, []any{int64(10)})
package lightc

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/astjson"
	"github.com/deepnoodle-ai/lightc/builtins"
	"github.com/deepnoodle-ai/lightc/compiler"
	"github.com/deepnoodle-ai/lightc/vm"
)

// Option configures compilation or execution.
type Option func(*options)

type options struct {
	logger        zerolog.Logger
	registry      *builtins.Registry
	output        io.Writer
	filename      string
	name          string
	verify        bool
	observer      vm.Observer
	tierThreshold *int64
	maxFrameDepth int
	fallback      vm.FallbackFunc
}

func collectOptions(opts ...Option) *options {
	o := &options{logger: zerolog.Nop(), verify: true}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// resolver returns the registry used to resolve names in JSON trees.
func (o *options) resolver() *builtins.Registry {
	if o.registry != nil {
		return o.registry
	}
	var regOpts []builtins.Option
	if o.output != nil {
		regOpts = append(regOpts, builtins.WithOutput(o.output))
	}
	return builtins.New(regOpts...)
}

func (o *options) compilerOpts() []compiler.Option {
	opts := []compiler.Option{
		compiler.WithLogger(o.logger),
		compiler.WithVerify(o.verify),
	}
	if o.name != "" {
		opts = append(opts, compiler.WithName(o.name))
	}
	return opts
}

func (o *options) vmOpts() []vm.Option {
	opts := []vm.Option{vm.WithLogger(o.logger)}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	if o.tierThreshold != nil {
		opts = append(opts, vm.WithTierThreshold(*o.tierThreshold))
	}
	if o.maxFrameDepth > 0 {
		opts = append(opts, vm.WithMaxFrameDepth(o.maxFrameDepth))
	}
	if o.fallback != nil {
		opts = append(opts, vm.WithFallback(o.fallback))
	}
	return opts
}

// WithLogger sets the logger passed to the compiler and the interpreter.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry sets the registry used to resolve function and type names
// when loading JSON trees. By default a fresh builtins.New() is used.
func WithRegistry(registry *builtins.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithOutput sets where the default registry's print function writes.
// Ignored when WithRegistry is given.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithFilename records the file a JSON tree was loaded from.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithName names the top-level function when the tree leaves it unnamed.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithVerify enables or disables verification of compiled code.
func WithVerify(enabled bool) Option {
	return func(o *options) {
		o.verify = enabled
	}
}

// WithObserver sets an observer for execution events.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithTierThreshold sets the weighted call count at which functions are
// promoted to the linked tier. Zero disables promotion.
func WithTierThreshold(threshold int64) Option {
	return func(o *options) {
		o.tierThreshold = &threshold
	}
}

// WithMaxFrameDepth sets the call depth at which StackOverflowError is
// raised.
func WithMaxFrameDepth(depth int) Option {
	return func(o *options) {
		o.maxFrameDepth = depth
	}
}

// WithFallback sets the entry used for functions marked as requiring full
// compilation. Without one, calling such a function fails.
func WithFallback(fallback vm.FallbackFunc) Option {
	return func(o *options) {
		o.fallback = fallback
	}
}

// Compile compiles a lambda into an executable Program.
func Compile(lambda *ast.Lambda, opts ...Option) (*Program, error) {
	o := collectOptions(opts...)
	fn, err := compiler.Compile(lambda, o.compilerOpts()...)
	if err != nil {
		return nil, err
	}
	return &Program{fn: fn, filename: o.filename}, nil
}

// CompileJSON decodes a JSON tree and compiles it. Names in the tree are
// resolved against the configured registry.
func CompileJSON(data []byte, opts ...Option) (*Program, error) {
	o := collectOptions(opts...)
	lambda, err := astjson.Decode(data, o.resolver())
	if err != nil {
		return nil, err
	}
	program, err := Compile(lambda, opts...)
	if err != nil {
		return nil, err
	}
	program.source = data
	return program, nil
}

// Run calls the program's top-level function with args on a fresh
// interpreter. Each call starts with cold tiering state; use a VM to keep
// it across calls.
func Run(ctx context.Context, program *Program, args []any, opts ...Option) (any, error) {
	o := collectOptions(opts...)
	return vm.Run(ctx, program.fn, args, o.vmOpts()...)
}

// Eval compiles a JSON tree and runs it. It is equivalent to CompileJSON
// followed by Run.
func Eval(ctx context.Context, data []byte, args []any, opts ...Option) (any, error) {
	program, err := CompileJSON(data, opts...)
	if err != nil {
		return nil, err
	}
	return Run(ctx, program, args, opts...)
}
