// Package ast defines the typed expression tree consumed by the compiler.
//
// Trees are built by an upstream front end that has already resolved
// overloads and static types. Every node reports its static type; a void
// typed node produces no value. Variables and label targets are identified
// by pointer, so the same *Variable must be used for the declaration and
// every reference.
package ast

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lightc/types"
)

// Node represents a portion of the expression tree.
type Node interface {
	// Type returns the static type of the node. Void typed nodes leave
	// nothing on the operand stack.
	Type() *types.Type

	// String returns a human friendly representation of the node.
	String() string
}

// Param describes one parameter of a Callable.
type Param struct {
	Name  string
	Type  *types.Type
	ByRef bool
}

// Callable is an externally resolved function or method handle. The
// compiler treats it as opaque and only consults its signature.
type Callable interface {
	Name() string
	Params() []Param
	ReturnType() *types.Type

	// Mutates reports whether the callable writes through a value-type
	// receiver.
	Mutates() bool

	// Invoke calls the target. Receiver is nil for static callables.
	Invoke(ctx context.Context, receiver any, args []any) (any, error)
}

// FuncImpl is the Go implementation behind a Func.
type FuncImpl func(ctx context.Context, receiver any, args []any) (any, error)

// Func is a Callable backed by a Go function.
type Func struct {
	name    string
	params  []Param
	ret     *types.Type
	mutates bool
	impl    FuncImpl
}

// NewFunc returns a Callable with the given signature.
func NewFunc(name string, params []Param, ret *types.Type, impl FuncImpl) *Func {
	if ret == nil {
		ret = types.Void
	}
	p := make([]Param, len(params))
	copy(p, params)
	return &Func{name: name, params: p, ret: ret, impl: impl}
}

// WithMutates returns a copy of the function flagged as mutating its
// receiver.
func (f *Func) WithMutates() *Func {
	clone := *f
	clone.mutates = true
	return &clone
}

func (f *Func) Name() string            { return f.name }
func (f *Func) ReturnType() *types.Type { return f.ret }
func (f *Func) Mutates() bool           { return f.mutates }

func (f *Func) Params() []Param {
	p := make([]Param, len(f.params))
	copy(p, f.params)
	return p
}

func (f *Func) Invoke(ctx context.Context, receiver any, args []any) (any, error) {
	if f.impl == nil {
		return nil, fmt.Errorf("callable %q has no implementation", f.name)
	}
	return f.impl(ctx, receiver, args)
}

func (f *Func) String() string {
	var params []string
	for _, p := range f.params {
		s := p.Name + " " + p.Type.String()
		if p.ByRef {
			s = "ref " + s
		}
		params = append(params, s)
	}
	return fmt.Sprintf("%s(%s) %s", f.name, strings.Join(params, ", "), f.ret)
}

// Field is an externally resolved field or property handle.
type Field interface {
	Name() string
	Type() *types.Type
	IsStatic() bool
	Get(obj any) (any, error)
	Set(obj any, value any) error
}

// FieldImpl holds the accessors behind a HostField.
type FieldImpl struct {
	Get func(obj any) (any, error)
	Set func(obj any, value any) error
}

// HostField is a Field backed by Go accessors.
type HostField struct {
	name     string
	typ      *types.Type
	isStatic bool
	impl     FieldImpl
}

// NewField returns an instance field handle.
func NewField(name string, typ *types.Type, impl FieldImpl) *HostField {
	return &HostField{name: name, typ: typ, impl: impl}
}

// NewStaticField returns a static field handle; accessors receive a nil obj.
func NewStaticField(name string, typ *types.Type, impl FieldImpl) *HostField {
	return &HostField{name: name, typ: typ, isStatic: true, impl: impl}
}

func (f *HostField) Name() string      { return f.name }
func (f *HostField) Type() *types.Type { return f.typ }
func (f *HostField) IsStatic() bool    { return f.isStatic }

func (f *HostField) Get(obj any) (any, error) {
	if f.impl.Get == nil {
		return nil, fmt.Errorf("field %q is not readable", f.name)
	}
	return f.impl.Get(obj)
}

func (f *HostField) Set(obj any, value any) error {
	if f.impl.Set == nil {
		return fmt.Errorf("field %q is read-only", f.name)
	}
	return f.impl.Set(obj, value)
}

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			parts = append(parts, "<nil>")
			continue
		}
		parts = append(parts, n.String())
	}
	return strings.Join(parts, sep)
}
