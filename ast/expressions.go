package ast

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lightc/types"
)

// Constant is a literal value of a primitive or reference type.
type Constant struct {
	Value any
	T     *types.Type
}

// NewConstant returns a constant whose type is inferred from the Go value.
// Unrecognized values and nil are typed as Object.
func NewConstant(value any) *Constant {
	return &Constant{Value: value, T: typeOfValue(value)}
}

// NewTypedConstant returns a constant with an explicit static type.
func NewTypedConstant(value any, typ *types.Type) *Constant {
	return &Constant{Value: value, T: typ}
}

func typeOfValue(value any) *types.Type {
	switch value.(type) {
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
	case int:
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
	default:
		return types.Object
	}
}

func (x *Constant) Type() *types.Type { return x.T }

func (x *Constant) String() string {
	if s, ok := x.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	if x.Value == nil {
		return "null"
	}
	return fmt.Sprintf("%v", x.Value)
}

// Default produces the zero value of its type. Default of Void is the
// empty expression.
type Default struct {
	T *types.Type
}

// Empty returns a void Default, the no-op expression.
func Empty() *Default { return &Default{T: types.Void} }

func (x *Default) Type() *types.Type {
	if x.T == nil {
		return types.Void
	}
	return x.T
}

func (x *Default) String() string { return fmt.Sprintf("default(%s)", x.Type()) }

// IsEmpty reports whether the node is the void Default.
func IsEmpty(n Node) bool {
	d, ok := n.(*Default)
	return ok && d.Type().IsVoid()
}

// Variable is a parameter or block local. As an expression it reads the
// variable. ByRef marks parameters passed by reference.
type Variable struct {
	Name  string
	T     *types.Type
	ByRef bool
}

// NewVariable returns a new variable identity.
func NewVariable(name string, typ *types.Type) *Variable {
	return &Variable{Name: name, T: typ}
}

func (x *Variable) Type() *types.Type { return x.T }
func (x *Variable) String() string    { return x.Name }

// Assign stores Value into Target, which must be a *Variable, *Member or
// *Index. The assignment evaluates to the stored value.
type Assign struct {
	Target Node
	Value  Node
}

func (x *Assign) Type() *types.Type { return x.Target.Type() }
func (x *Assign) String() string    { return fmt.Sprintf("(%s = %s)", x.Target, x.Value) }

// BinaryOp identifies the operator of a Binary node.
type BinaryOp uint8

const (
	Add BinaryOp = iota + 1
	Subtract
	Multiply
	Divide
	Modulo
	And
	Or
	ExclusiveOr
	LeftShift
	RightShift
	Equal
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	AndAlso
	OrElse
)

var binaryOpNames = map[BinaryOp]string{
	Add:                "+",
	Subtract:           "-",
	Multiply:           "*",
	Divide:             "/",
	Modulo:             "%",
	And:                "&",
	Or:                 "|",
	ExclusiveOr:        "^",
	LeftShift:          "<<",
	RightShift:         ">>",
	Equal:              "==",
	NotEqual:           "!=",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
	AndAlso:            "&&",
	OrElse:             "||",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("binary(%d)", op)
}

// IsComparison reports whether the operator produces a bool from two
// operands of the same type.
func (op BinaryOp) IsComparison() bool {
	return op >= Equal && op <= GreaterThanOrEqual
}

// Binary applies an operator to two operands.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (x *Binary) Type() *types.Type {
	if x.Op.IsComparison() || x.Op == AndAlso || x.Op == OrElse {
		return types.Bool
	}
	return x.Left.Type()
}

func (x *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", x.Left, x.Op, x.Right)
}

// UnaryOp identifies the operator of a Unary node.
type UnaryOp uint8

const (
	Negate UnaryOp = iota + 1
	NegateChecked
	Not
	OnesComplement
)

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "-"
	case NegateChecked:
		return "checked -"
	case Not:
		return "!"
	case OnesComplement:
		return "~"
	}
	return fmt.Sprintf("unary(%d)", op)
}

// Unary applies an operator to one operand.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

func (x *Unary) Type() *types.Type { return x.Operand.Type() }
func (x *Unary) String() string    { return fmt.Sprintf("(%s%s)", x.Op, x.Operand) }

// Convert changes the static type of its operand. Checked numeric
// conversions raise OverflowError when the value does not fit.
type Convert struct {
	Operand Node
	To      *types.Type
	Checked bool
}

func (x *Convert) Type() *types.Type { return x.To }

func (x *Convert) String() string {
	if x.Checked {
		return fmt.Sprintf("checked(%s)(%s)", x.To, x.Operand)
	}
	return fmt.Sprintf("(%s)(%s)", x.To, x.Operand)
}

// TypeIs tests whether the runtime type of Operand is assignable to Target.
type TypeIs struct {
	Operand Node
	Target  *types.Type
}

func (x *TypeIs) Type() *types.Type { return types.Bool }
func (x *TypeIs) String() string    { return fmt.Sprintf("(%s is %s)", x.Operand, x.Target) }

// Call invokes a Callable. Receiver is nil for static calls.
type Call struct {
	Callable Callable
	Receiver Node
	Args     []Node
}

func (x *Call) Type() *types.Type { return x.Callable.ReturnType() }

func (x *Call) String() string {
	if x.Receiver != nil {
		return fmt.Sprintf("%s.%s(%s)", x.Receiver, x.Callable.Name(), joinNodes(x.Args, ", "))
	}
	return fmt.Sprintf("%s(%s)", x.Callable.Name(), joinNodes(x.Args, ", "))
}

// New invokes a constructor handle.
type New struct {
	Constructor Callable
	Args        []Node
}

func (x *New) Type() *types.Type { return x.Constructor.ReturnType() }

func (x *New) String() string {
	return fmt.Sprintf("new %s(%s)", x.Constructor.Name(), joinNodes(x.Args, ", "))
}

// Invoke calls a function value produced by Target. T is the static
// return type of the call.
type Invoke struct {
	Target Node
	Args   []Node
	T      *types.Type
}

func (x *Invoke) Type() *types.Type {
	if x.T == nil {
		return types.Void
	}
	return x.T
}

func (x *Invoke) String() string {
	return fmt.Sprintf("%s(%s)", x.Target, joinNodes(x.Args, ", "))
}

// Member reads a field. Object is nil for static fields.
type Member struct {
	Object Node
	Field  Field
}

func (x *Member) Type() *types.Type { return x.Field.Type() }

func (x *Member) String() string {
	if x.Object == nil {
		return x.Field.Name()
	}
	return fmt.Sprintf("%s.%s", x.Object, x.Field.Name())
}

// NewArray creates an array initialized with Items.
type NewArray struct {
	Elem  *types.Type
	Items []Node
}

func (x *NewArray) Type() *types.Type { return types.ArrayOf(x.Elem) }

func (x *NewArray) String() string {
	return fmt.Sprintf("new %s[] {%s}", x.Elem, joinNodes(x.Items, ", "))
}

// NewArrayBounds creates a zero-filled array of the given length.
type NewArrayBounds struct {
	Elem   *types.Type
	Length Node
}

func (x *NewArrayBounds) Type() *types.Type { return types.ArrayOf(x.Elem) }
func (x *NewArrayBounds) String() string    { return fmt.Sprintf("new %s[%s]", x.Elem, x.Length) }

// Index reads an array element.
type Index struct {
	Array Node
	Index Node
}

func (x *Index) Type() *types.Type {
	if t := x.Array.Type(); t.Kind() == types.KindArray {
		return t.Elem()
	}
	return types.Object
}

func (x *Index) String() string { return fmt.Sprintf("%s[%s]", x.Array, x.Index) }

// ArrayLength returns the length of an array as an int32.
type ArrayLength struct {
	Array Node
}

func (x *ArrayLength) Type() *types.Type { return types.Int32 }
func (x *ArrayLength) String() string    { return fmt.Sprintf("len(%s)", x.Array) }

// Lambda is a function body with parameters. Nested lambdas may capture
// variables declared by enclosing lambdas.
type Lambda struct {
	Name       string
	Params     []*Variable
	Body       Node
	ReturnType *types.Type
}

func (x *Lambda) Type() *types.Type { return types.Func }

// Returns reports the declared return type, defaulting to the body type.
func (x *Lambda) Returns() *types.Type {
	if x.ReturnType != nil {
		return x.ReturnType
	}
	return x.Body.Type()
}

func (x *Lambda) String() string {
	var params []string
	for _, p := range x.Params {
		params = append(params, p.Name+" "+p.T.String())
	}
	name := x.Name
	if name == "" {
		name = "lambda"
	}
	return fmt.Sprintf("%s(%s) %s { %s }", name, strings.Join(params, ", "), x.Returns(), x.Body)
}

// RuntimeVariables evaluates to a live, indexable view over the listed
// variables.
type RuntimeVariables struct {
	Variables []*Variable
}

func (x *RuntimeVariables) Type() *types.Type { return types.RuntimeVariables }

func (x *RuntimeVariables) String() string {
	var names []string
	for _, v := range x.Variables {
		names = append(names, v.Name)
	}
	return fmt.Sprintf("runtimevars(%s)", strings.Join(names, ", "))
}
