package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/object"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

var binaryOps = map[ast.BinaryOp]op.BinaryOpType{
	ast.Add:         op.Add,
	ast.Subtract:    op.Subtract,
	ast.Multiply:    op.Multiply,
	ast.Divide:      op.Divide,
	ast.Modulo:      op.Modulo,
	ast.And:         op.And,
	ast.Or:          op.Or,
	ast.ExclusiveOr: op.Xor,
	ast.LeftShift:   op.LShift,
	ast.RightShift:  op.RShift,
}

var compareOps = map[ast.BinaryOp]op.CompareOpType{
	ast.Equal:              op.Equal,
	ast.NotEqual:           op.NotEqual,
	ast.LessThan:           op.LessThan,
	ast.LessThanOrEqual:    op.LessThanOrEqual,
	ast.GreaterThan:        op.GreaterThan,
	ast.GreaterThanOrEqual: op.GreaterThanOrEqual,
}

// binarySupported reports whether the interpreter implements opType on
// operands of kind.
func binarySupported(opType op.BinaryOpType, kind types.Kind) bool {
	switch opType {
	case op.Add:
		return kind.IsNumeric() || kind == types.KindString
	case op.Subtract, op.Multiply, op.Divide, op.Modulo:
		return kind.IsNumeric()
	case op.And, op.Or, op.Xor:
		return kind.IsInteger() || kind == types.KindBool
	case op.LShift, op.RShift:
		return kind.IsInteger()
	}
	return false
}

func (c *Compiler) compileConstant(node *ast.Constant) error {
	value, err := c.normalizeConstant(node)
	if err != nil {
		return err
	}
	switch value {
	case nil:
		c.emit(op.Nil)
		return nil
	case true:
		c.emit(op.True)
		return nil
	case false:
		c.emit(op.False)
		return nil
	}
	index, err := c.constant(value)
	if err != nil {
		return err
	}
	c.emit(op.LoadConst, index)
	return nil
}

// normalizeConstant converts untyped Go numbers to the representation of
// the constant's static type and rejects values of the wrong kind.
func (c *Compiler) normalizeConstant(node *ast.Constant) (any, error) {
	typ := node.Type()
	value := node.Value
	if value == nil {
		if typ.IsValueType() {
			return nil, c.compileErrorf(errors.E2001, "nil constant of value type %s", typ)
		}
		return nil, nil
	}
	if typ.IsNumeric() {
		switch v := value.(type) {
		case int:
			return c.convertConstant(types.KindInt64, typ, int64(v))
		case float64:
			if typ.Kind() != types.KindFloat64 {
				return c.convertConstant(types.KindFloat64, typ, v)
			}
		}
	}
	if typ.IsValueType() && typ.Kind() != types.KindStruct && object.TypeOf(value) != typ {
		return nil, c.compileErrorf(errors.E2001, "constant %v (%T) does not match type %s", value, value, typ)
	}
	return value, nil
}

func (c *Compiler) convertConstant(from types.Kind, typ *types.Type, value any) (any, error) {
	converted, err := object.Convert(from, typ.Kind(), value, true)
	if err != nil {
		return nil, c.compileErrorf(errors.E2001, "constant %v does not fit in %s", value, typ)
	}
	return converted, nil
}

func (c *Compiler) compileVariable(v *ast.Variable) {
	r := c.resolveVariable(v)
	switch r.Scope {
	case Slot:
		c.emit(op.LoadLocal, int32(r.Index))
	case Boxed:
		c.emit(op.LoadBoxed, int32(r.Index))
	case Closure:
		c.emit(op.LoadClosure, int32(r.Index))
	}
}

func (c *Compiler) storeVariable(v *ast.Variable) {
	r := c.resolveVariable(v)
	switch r.Scope {
	case Slot:
		c.emit(op.StoreLocal, int32(r.Index))
	case Boxed:
		c.emit(op.StoreBoxed, int32(r.Index))
	case Closure:
		c.emit(op.StoreClosure, int32(r.Index))
	}
}

// defineTemp allocates a hidden local that is not visible to the tree.
func (c *Compiler) defineTemp(name string, typ *types.Type) LocalDefinition {
	return c.locals.DefineLocal(ast.NewVariable(name, typ), len(c.instructions))
}

func (c *Compiler) undefineTemp(def LocalDefinition) {
	c.locals.UndefineLocal(def, len(c.instructions))
}

func (c *Compiler) checkAssignable(to, from *types.Type, what string) error {
	if from.IsVoid() || !to.AssignableFrom(from) {
		return c.compileErrorf(errors.E2001, "cannot use %s of type %s as %s", what, from, to)
	}
	return nil
}

func (c *Compiler) compileAssign(node *ast.Assign, asVoid bool) error {
	if node.Target == nil || node.Value == nil {
		return c.compileErrorf(errors.E1001, "assignment requires a target and a value")
	}
	if err := c.checkAssignable(node.Target.Type(), node.Value.Type(), "assigned value"); err != nil {
		return err
	}
	switch target := node.Target.(type) {
	case *ast.Variable:
		if err := c.compile(node.Value, false); err != nil {
			return err
		}
		if !asVoid {
			c.emit(op.Dup)
		}
		c.storeVariable(target)
		return nil
	case *ast.Member:
		return c.compileMemberAssign(target, node.Value, asVoid)
	case *ast.Index:
		return c.compileIndexAssign(target, node.Value, asVoid)
	}
	return c.compileErrorf(errors.E2002, "cannot assign to %T", node.Target)
}

func (c *Compiler) compileMemberAssign(target *ast.Member, value ast.Node, asVoid bool) error {
	field := target.Field
	index, err := c.constant(field)
	if err != nil {
		return err
	}
	if field.IsStatic() {
		if err := c.compile(value, false); err != nil {
			return err
		}
		if !asVoid {
			c.emit(op.Dup)
		}
		c.emit(op.StoreStaticField, index)
		return nil
	}
	if target.Object == nil {
		return c.compileErrorf(errors.E2002, "instance field %s assigned without an object", field.Name())
	}
	if recv := target.Object.Type(); recv.Kind() == types.KindStruct {
		c.requireFullCompile("field store %s on value-type receiver %s", field.Name(), recv)
	}
	if err := c.compile(target.Object, false); err != nil {
		return err
	}
	return c.storeKeepingValue(value, asVoid, func() {
		c.emit(op.StoreField, index)
	})
}

func (c *Compiler) compileIndexAssign(target *ast.Index, value ast.Node, asVoid bool) error {
	if err := c.checkIndex(target); err != nil {
		return err
	}
	if err := c.compile(target.Array, false); err != nil {
		return err
	}
	if err := c.compile(target.Index, false); err != nil {
		return err
	}
	return c.storeKeepingValue(value, asVoid, func() {
		c.emit(op.StoreElement)
	})
}

// storeKeepingValue compiles value and runs store, which consumes it.
// Unless asVoid, the value is kept in a hidden local and pushed again.
func (c *Compiler) storeKeepingValue(value ast.Node, asVoid bool, store func()) error {
	if err := c.compile(value, false); err != nil {
		return err
	}
	if asVoid {
		store()
		return nil
	}
	tmp := c.defineTemp("$value", value.Type())
	c.emit(op.Dup)
	c.emit(op.StoreLocal, int32(tmp.Index))
	store()
	c.emit(op.LoadLocal, int32(tmp.Index))
	c.undefineTemp(tmp)
	return nil
}

func (c *Compiler) compileBinary(node *ast.Binary) error {
	if node.Op == ast.AndAlso || node.Op == ast.OrElse {
		return c.compileLogical(node)
	}
	lt, rt := node.Left.Type(), node.Right.Type()
	if cmp, ok := compareOps[node.Op]; ok {
		return c.compileComparison(node, cmp, lt, rt)
	}
	opType, ok := binaryOps[node.Op]
	if !ok {
		return c.compileErrorf(errors.E1002, "unknown binary operator %d", node.Op)
	}
	if lt != rt {
		return c.compileErrorf(errors.E2001, "operands of %s have different types %s and %s", node.Op, lt, rt)
	}
	if !binarySupported(opType, lt.Kind()) {
		return c.notSupported("binary operator", "%s on %s", node.Op, lt)
	}
	if err := c.compile(node.Left, false); err != nil {
		return err
	}
	if err := c.compile(node.Right, false); err != nil {
		return err
	}
	c.emit(op.BinaryOp, int32(opType), int32(lt.Kind()))
	return nil
}

func (c *Compiler) compileComparison(node *ast.Binary, cmp op.CompareOpType, lt, rt *types.Type) error {
	equality := cmp == op.Equal || cmp == op.NotEqual
	kind := lt.Kind()
	switch {
	case lt == rt && (lt.IsNumeric() || kind == types.KindString):
	case lt == rt && kind == types.KindBool && equality:
	case equality && lt.IsReference() && rt.IsReference():
		kind = types.KindObject
	case lt != rt:
		return c.compileErrorf(errors.E2001, "cannot compare %s with %s", lt, rt)
	default:
		return c.notSupported("comparison", "%s on %s", node.Op, lt)
	}
	if err := c.compile(node.Left, false); err != nil {
		return err
	}
	if err := c.compile(node.Right, false); err != nil {
		return err
	}
	c.emit(op.CompareOp, int32(cmp), int32(kind))
	return nil
}

// compileLogical emits short-circuit evaluation:
//
//	left; DUP; JUMP_IF_FALSE end; POP; right; end:
func (c *Compiler) compileLogical(node *ast.Binary) error {
	if node.Left.Type() != types.Bool || node.Right.Type() != types.Bool {
		return c.compileErrorf(errors.E2001, "operands of %s must be bool, got %s and %s",
			node.Op, node.Left.Type(), node.Right.Type())
	}
	if err := c.compile(node.Left, false); err != nil {
		return err
	}
	end := c.MakeLabel()
	c.emit(op.Dup)
	if node.Op == ast.AndAlso {
		c.emitBranch(op.JumpIfFalse, end)
	} else {
		c.emitBranch(op.JumpIfTrue, end)
	}
	c.emit(op.Pop)
	if err := c.compile(node.Right, false); err != nil {
		return err
	}
	c.Mark(end)
	return nil
}

func (c *Compiler) compileUnary(node *ast.Unary) error {
	typ := node.Operand.Type()
	var opcode op.Code
	switch node.Op {
	case ast.Negate, ast.NegateChecked:
		if !typ.IsNumeric() {
			return c.notSupported("unary operator", "%s on %s", node.Op, typ)
		}
		opcode = op.Negate
		if node.Op == ast.NegateChecked {
			opcode = op.NegateChecked
		}
	case ast.Not:
		if typ != types.Bool && !typ.IsInteger() {
			return c.notSupported("unary operator", "%s on %s", node.Op, typ)
		}
		opcode = op.Not
	case ast.OnesComplement:
		if !typ.IsInteger() {
			return c.notSupported("unary operator", "%s on %s", node.Op, typ)
		}
		opcode = op.Complement
	default:
		return c.compileErrorf(errors.E1002, "unknown unary operator %d", node.Op)
	}
	if err := c.compile(node.Operand, false); err != nil {
		return err
	}
	c.emit(opcode, int32(typ.Kind()))
	return nil
}

func (c *Compiler) compileTypeIs(node *ast.TypeIs) error {
	if node.Operand.Type().IsVoid() {
		return c.compileErrorf(errors.E2001, "type test on a void expression")
	}
	if node.Target == nil {
		return c.compileErrorf(errors.E1004, "type test without a target type")
	}
	if err := c.compile(node.Operand, false); err != nil {
		return err
	}
	index, err := c.constant(node.Target)
	if err != nil {
		return err
	}
	c.emit(op.TypeIs, index)
	return nil
}

func (c *Compiler) compileMember(node *ast.Member) error {
	field := node.Field
	index, err := c.constant(field)
	if err != nil {
		return err
	}
	if field.IsStatic() {
		c.emit(op.LoadStaticField, index)
		return nil
	}
	if node.Object == nil {
		return c.compileErrorf(errors.E2001, "instance field %s read without an object", field.Name())
	}
	if err := c.compile(node.Object, false); err != nil {
		return err
	}
	c.emit(op.LoadField, index)
	return nil
}

func (c *Compiler) compileNewArray(node *ast.NewArray) error {
	if node.Elem == nil || node.Elem.IsVoid() {
		return c.compileErrorf(errors.E1004, "array without an element type")
	}
	for _, item := range node.Items {
		if err := c.checkAssignable(node.Elem, item.Type(), "array element"); err != nil {
			return err
		}
		if err := c.compile(item, false); err != nil {
			return err
		}
	}
	index, err := c.constant(node.Elem)
	if err != nil {
		return err
	}
	c.emitWithEffect(op.NewArray, len(node.Items), 1, index, int32(len(node.Items)))
	return nil
}

func (c *Compiler) compileNewArrayBounds(node *ast.NewArrayBounds) error {
	if node.Elem == nil || node.Elem.IsVoid() {
		return c.compileErrorf(errors.E1004, "array without an element type")
	}
	if !node.Length.Type().IsInteger() {
		return c.compileErrorf(errors.E2001, "array length must be an integer, got %s", node.Length.Type())
	}
	if err := c.compile(node.Length, false); err != nil {
		return err
	}
	index, err := c.constant(node.Elem)
	if err != nil {
		return err
	}
	c.emit(op.NewArrayBounds, index)
	return nil
}

func (c *Compiler) checkIndex(node *ast.Index) error {
	if node.Array.Type().Kind() != types.KindArray {
		return c.compileErrorf(errors.E2001, "cannot index a value of type %s", node.Array.Type())
	}
	if !node.Index.Type().IsInteger() {
		return c.compileErrorf(errors.E2001, "array index must be an integer, got %s", node.Index.Type())
	}
	return nil
}

func (c *Compiler) compileIndex(node *ast.Index) error {
	if err := c.checkIndex(node); err != nil {
		return err
	}
	if err := c.compile(node.Array, false); err != nil {
		return err
	}
	if err := c.compile(node.Index, false); err != nil {
		return err
	}
	c.emit(op.LoadElement)
	return nil
}

func (c *Compiler) compileArrayLength(node *ast.ArrayLength) error {
	if node.Array.Type().Kind() != types.KindArray {
		return c.compileErrorf(errors.E2001, "length of a value of type %s", node.Array.Type())
	}
	if err := c.compile(node.Array, false); err != nil {
		return err
	}
	c.emit(op.ArrayLength)
	return nil
}
