// Package types defines the static type descriptors carried by expression
// tree nodes. Types are resolved before compilation; the compiler only
// inspects them to pick instructions and to validate operand shapes.
package types

import (
	"fmt"
	"sync"
)

// Kind classifies a Type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindObject
	KindClass
	KindStruct
	KindArray
	KindFunc
)

var kindNames = [...]string{
	KindVoid:    "void",
	KindBool:    "bool",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindObject:  "object",
	KindClass:   "class",
	KindStruct:  "struct",
	KindArray:   "array",
	KindFunc:    "func",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsNumeric returns true for integer and floating point kinds.
func (k Kind) IsNumeric() bool {
	return k >= KindInt8 && k <= KindFloat64
}

// IsInteger returns true for signed and unsigned integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUint64
}

// IsUnsigned returns true for unsigned integer kinds.
func (k Kind) IsUnsigned() bool {
	return k >= KindUint8 && k <= KindUint64
}

// IsFloat returns true for floating point kinds.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// Type is an immutable static type descriptor. Types are compared by
// identity; the predeclared types below are the only instances of the
// primitive kinds.
type Type struct {
	kind Kind
	name string
	base *Type
	elem *Type
}

var (
	Void    = &Type{kind: KindVoid, name: "void"}
	Bool    = &Type{kind: KindBool, name: "bool"}
	Int8    = &Type{kind: KindInt8, name: "int8"}
	Int16   = &Type{kind: KindInt16, name: "int16"}
	Int32   = &Type{kind: KindInt32, name: "int32"}
	Int64   = &Type{kind: KindInt64, name: "int64"}
	Uint8   = &Type{kind: KindUint8, name: "uint8"}
	Uint16  = &Type{kind: KindUint16, name: "uint16"}
	Uint32  = &Type{kind: KindUint32, name: "uint32"}
	Uint64  = &Type{kind: KindUint64, name: "uint64"}
	Float32 = &Type{kind: KindFloat32, name: "float32"}
	Float64 = &Type{kind: KindFloat64, name: "float64"}
	String  = &Type{kind: KindString, name: "string"}
	Object  = &Type{kind: KindObject, name: "object"}
	Func    = &Type{kind: KindFunc, name: "func"}

	// RuntimeVariables is the type of a RuntimeVariables node.
	RuntimeVariables = NewClass("RuntimeVariables", Object)
)

// Exception hierarchy raised by the runtime.
var (
	Exception            = NewClass("Exception", Object)
	ArithmeticError      = NewClass("ArithmeticError", Exception)
	DivideByZeroError    = NewClass("DivideByZeroError", ArithmeticError)
	OverflowError        = NewClass("OverflowError", ArithmeticError)
	InvalidCastError     = NewClass("InvalidCastError", Exception)
	NullReferenceError   = NewClass("NullReferenceError", Exception)
	IndexOutOfRangeError = NewClass("IndexOutOfRangeError", Exception)
	ArgumentError        = NewClass("ArgumentError", Exception)
	StackOverflowError   = NewClass("StackOverflowError", Exception)
)

var primitives = []*Type{
	Void, Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64,
	Float32, Float64, String, Object, Func,
}

// NewClass returns a new reference type deriving from base. A nil base
// means Object.
func NewClass(name string, base *Type) *Type {
	if base == nil {
		base = Object
	}
	return &Type{kind: KindClass, name: name, base: base}
}

// NewStruct returns a new value type.
func NewStruct(name string) *Type {
	return &Type{kind: KindStruct, name: name}
}

var (
	arrayMu    sync.Mutex
	arrayTypes = map[*Type]*Type{}
)

// ArrayOf returns the one-dimensional array type of the given element type.
// Repeated calls with the same element return the same *Type.
func ArrayOf(elem *Type) *Type {
	arrayMu.Lock()
	defer arrayMu.Unlock()
	if t, ok := arrayTypes[elem]; ok {
		return t
	}
	t := &Type{kind: KindArray, name: elem.name + "[]", elem: elem}
	arrayTypes[elem] = t
	return t
}

// Primitive returns the predeclared type with the given name.
func Primitive(name string) (*Type, bool) {
	for _, t := range primitives {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

func (t *Type) Kind() Kind     { return t.kind }
func (t *Type) Name() string   { return t.name }
func (t *Type) Base() *Type    { return t.base }
func (t *Type) Elem() *Type    { return t.elem }
func (t *Type) String() string { return t.name }

func (t *Type) IsVoid() bool     { return t == nil || t.kind == KindVoid }
func (t *Type) IsNumeric() bool  { return t != nil && t.kind.IsNumeric() }
func (t *Type) IsInteger() bool  { return t != nil && t.kind.IsInteger() }
func (t *Type) IsUnsigned() bool { return t != nil && t.kind.IsUnsigned() }
func (t *Type) IsFloat() bool    { return t != nil && t.kind.IsFloat() }

// IsReference returns true for types whose values are shared references.
func (t *Type) IsReference() bool {
	if t == nil {
		return false
	}
	switch t.kind {
	case KindString, KindObject, KindClass, KindArray, KindFunc:
		return true
	}
	return false
}

// IsValueType returns true for types copied by value.
func (t *Type) IsValueType() bool {
	if t == nil {
		return false
	}
	return t.kind == KindBool || t.kind == KindStruct || t.kind.IsNumeric()
}

// AssignableFrom reports whether a value of type other may be stored in a
// location of type t. Object accepts every non-void type; classes accept
// themselves and their subclasses.
func (t *Type) AssignableFrom(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	if t == other {
		return true
	}
	if t.kind == KindObject {
		return other.kind != KindVoid
	}
	if t.kind == KindArray && other.kind == KindArray {
		return t.elem == other.elem
	}
	if t.kind != KindClass {
		return false
	}
	for b := other.base; b != nil; b = b.base {
		if b == t {
			return true
		}
	}
	return false
}

// IsSubclassOf reports whether t derives, directly or indirectly, from base.
func (t *Type) IsSubclassOf(base *Type) bool {
	return base != t && base.AssignableFrom(t)
}

// ZeroValue returns the Go zero value used for locals and array elements
// of type t. Reference and struct types are nil.
func (t *Type) ZeroValue() any {
	if t == nil {
		return nil
	}
	switch t.kind {
	case KindBool:
		return false
	case KindInt8:
		return int8(0)
	case KindInt16:
		return int16(0)
	case KindInt32:
		return int32(0)
	case KindInt64:
		return int64(0)
	case KindUint8:
		return uint8(0)
	case KindUint16:
		return uint16(0)
	case KindUint32:
		return uint32(0)
	case KindUint64:
		return uint64(0)
	case KindFloat32:
		return float32(0)
	case KindFloat64:
		return float64(0)
	case KindString:
		return ""
	}
	return nil
}
