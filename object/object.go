// Package object provides the runtime values manipulated by the lightc
// virtual machine.
//
// Primitive values are plain Go values: bool, the sized integer types,
// float32, float64 and string. A nil interface is the null reference. The
// types in this package cover the remaining runtime shapes: captured
// variable cells, closures, exceptions, arrays and the runtime variables
// view.
package object

import (
	"github.com/deepnoodle-ai/lightc/types"
)

// Typed is implemented by host values that report their own runtime type.
type Typed interface {
	Type() *types.Type
}

// TypeOf returns the runtime type of a value. It returns nil for the null
// reference and Object for host values that do not implement Typed.
func TypeOf(v any) *types.Type {
	switch v := v.(type) {
	case nil:
		return nil
	case bool:
		return types.Bool
	case int8:
		return types.Int8
	case int16:
		return types.Int16
	case int32:
		return types.Int32
	case int64:
		return types.Int64
	case uint8:
		return types.Uint8
	case uint16:
		return types.Uint16
	case uint32:
		return types.Uint32
	case uint64:
		return types.Uint64
	case float32:
		return types.Float32
	case float64:
		return types.Float64
	case string:
		return types.String
	case Typed:
		return v.Type()
	}
	return types.Object
}

// IsInstance reports whether v may be stored in a location of type t.
func IsInstance(v any, t *types.Type) bool {
	vt := TypeOf(v)
	if vt == nil {
		return t.IsReference()
	}
	return t.AssignableFrom(vt)
}

// Equals compares two runtime values. Values of reference type compare by
// identity; strings and primitives compare by value.
func Equals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a.(type) {
	case *Array, *Closure, *Cell, *Exception, *RuntimeVariables:
		return a == b
	}
	defer func() {
		// Uncomparable host values are never equal.
		_ = recover()
	}()
	return a == b
}
