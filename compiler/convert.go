package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

type conversion uint8

const (
	convertUnsupported conversion = iota
	convertIdentity
	convertNumeric
	convertBox
	convertUnbox
	convertUpcast
	convertDowncast
)

func (k conversion) String() string {
	switch k {
	case convertIdentity:
		return "identity"
	case convertNumeric:
		return "numeric"
	case convertBox:
		return "box"
	case convertUnbox:
		return "unbox"
	case convertUpcast:
		return "upcast"
	case convertDowncast:
		return "downcast"
	}
	return "unsupported"
}

// classifyConversion selects how a value of type from becomes a value of
// type to.
func classifyConversion(from, to *types.Type) conversion {
	switch {
	case from == to:
		return convertIdentity
	case from.IsNumeric() && to.IsNumeric():
		return convertNumeric
	case from.IsValueType() && to.Kind() == types.KindObject:
		return convertBox
	case from.Kind() == types.KindObject && to.IsValueType():
		return convertUnbox
	case from.IsReference() && to.IsReference() && to.AssignableFrom(from):
		return convertUpcast
	case from.IsReference() && to.IsReference() && from.AssignableFrom(to):
		return convertDowncast
	}
	return convertUnsupported
}

func (c *Compiler) compileConvert(node *ast.Convert) error {
	from, to := node.Operand.Type(), node.To
	if from.IsVoid() || to.IsVoid() {
		return c.compileErrorf(errors.E2001, "cannot convert %s to %s", from, to)
	}
	kind := classifyConversion(from, to)
	if kind == convertUnsupported {
		return c.notSupported("conversion", "%s to %s", from, to)
	}
	if err := c.compile(node.Operand, false); err != nil {
		return err
	}
	switch kind {
	case convertNumeric:
		opcode := op.Convert
		if node.Checked {
			opcode = op.ConvertChecked
		}
		c.emit(opcode, int32(from.Kind()), int32(to.Kind()))
	case convertUnbox, convertDowncast:
		index, err := c.constant(to)
		if err != nil {
			return err
		}
		if kind == convertUnbox {
			c.emit(op.Unbox, index)
		} else {
			c.emit(op.Cast, index)
		}
	}
	return nil
}
