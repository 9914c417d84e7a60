// Package builtins defines the default host functions and exception types
// that trees can refer to by name.
package builtins

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/object"
	"github.com/deepnoodle-ai/lightc/types"
)

// Registry resolves callables and types by name. It is not safe to
// register concurrently with lookups.
type Registry struct {
	funcs map[string]ast.Callable
	types map[string]*types.Type
	out   io.Writer
}

// Option configures a Registry.
type Option func(*Registry)

// WithOutput sets the writer used by print. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Registry) {
		r.out = w
	}
}

// New returns a registry holding the default functions and the runtime
// exception hierarchy.
func New(options ...Option) *Registry {
	r := &Registry{
		funcs: map[string]ast.Callable{},
		types: map[string]*types.Type{},
		out:   os.Stdout,
	}
	for _, opt := range options {
		opt(r)
	}
	for _, fn := range r.defaults() {
		r.Register(fn)
	}
	for _, t := range ExceptionTypes() {
		r.RegisterType(t)
	}
	r.RegisterType(types.RuntimeVariables)
	return r
}

// Register adds fn, replacing any callable with the same name.
func (r *Registry) Register(fn ast.Callable) {
	r.funcs[fn.Name()] = fn
}

// RegisterType adds a named class or struct type.
func (r *Registry) RegisterType(t *types.Type) {
	r.types[t.Name()] = t
}

// Func returns the callable registered under name.
func (r *Registry) Func(name string) (ast.Callable, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Type resolves a type name. Primitive names, registered types and array
// types written with a trailing "[]" are accepted.
func (r *Registry) Type(name string) (*types.Type, bool) {
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		t, ok := r.Type(elem)
		if !ok || t.IsVoid() {
			return nil, false
		}
		return types.ArrayOf(t), true
	}
	if t, ok := types.Primitive(name); ok {
		return t, true
	}
	t, ok := r.types[name]
	return t, ok
}

// FuncNames returns the registered function names in sorted order.
func (r *Registry) FuncNames() []string {
	return sortedKeys(r.funcs)
}

// TypeNames returns the registered type names in sorted order. Primitive
// types are not included.
func (r *Registry) TypeNames() []string {
	return sortedKeys(r.types)
}

func sortedKeys[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExceptionTypes returns the exception classes raised by the runtime,
// root first.
func ExceptionTypes() []*types.Type {
	return []*types.Type{
		types.Exception,
		types.ArithmeticError,
		types.DivideByZeroError,
		types.OverflowError,
		types.InvalidCastError,
		types.NullReferenceError,
		types.IndexOutOfRangeError,
		types.ArgumentError,
		types.StackOverflowError,
	}
}

func (r *Registry) defaults() []*ast.Func {
	return []*ast.Func{
		ast.NewFunc("print", []ast.Param{{Name: "value", Type: types.Object}}, types.Void, r.print),
		ast.NewFunc("concat", []ast.Param{
			{Name: "a", Type: types.String},
			{Name: "b", Type: types.String},
		}, types.String, Concat),
		ast.NewFunc("strlen", []ast.Param{{Name: "s", Type: types.String}}, types.Int32, Strlen),
		ast.NewFunc("sqrt", []ast.Param{{Name: "x", Type: types.Float64}}, types.Float64, Sqrt),
		ast.NewFunc("fail", []ast.Param{{Name: "message", Type: types.String}}, types.Void, Fail),
		ast.NewFunc("itoa", []ast.Param{{Name: "n", Type: types.Int64}}, types.String, Itoa),
	}
}

func (r *Registry) print(ctx context.Context, _ any, args []any) (any, error) {
	if _, err := fmt.Fprintln(r.out, format(args[0])); err != nil {
		return nil, err
	}
	return nil, nil
}

func format(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func Concat(ctx context.Context, _ any, args []any) (any, error) {
	a, _ := args[0].(string)
	b, _ := args[1].(string)
	return a + b, nil
}

func Strlen(ctx context.Context, _ any, args []any) (any, error) {
	s, ok := args[0].(string)
	if !ok {
		return nil, object.Errorf(types.NullReferenceError, "strlen: string is nil")
	}
	if len(s) > math.MaxInt32 {
		return nil, object.Errorf(types.OverflowError, "strlen: length %d overflows int32", len(s))
	}
	return int32(len(s)), nil
}

func Sqrt(ctx context.Context, _ any, args []any) (any, error) {
	x := args[0].(float64)
	if x < 0 {
		return nil, object.Errorf(types.ArgumentError, "sqrt: negative argument %g", x)
	}
	return math.Sqrt(x), nil
}

// Fail raises an Exception carrying message.
func Fail(ctx context.Context, _ any, args []any) (any, error) {
	message, _ := args[0].(string)
	return nil, object.NewException(types.Exception, message)
}

func Itoa(ctx context.Context, _ any, args []any) (any, error) {
	return strconv.FormatInt(args[0].(int64), 10), nil
}
