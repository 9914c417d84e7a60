package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

// compileArgs compiles call arguments left to right, checking them
// against the callable's parameters.
func (c *Compiler) compileArgs(callable ast.Callable, args []ast.Node) error {
	params := callable.Params()
	if len(args) != len(params) {
		return c.compileErrorf(errors.E2009, "%s expects %d argument(s), got %d", callable.Name(), len(params), len(args))
	}
	for i, arg := range args {
		p := params[i]
		if p.ByRef {
			c.requireFullCompile("by-ref parameter %s of %s", p.Name, callable.Name())
		}
		if v, ok := arg.(*ast.Variable); ok && v.ByRef {
			c.requireFullCompile("by-ref argument %s to %s", v.Name, callable.Name())
		}
		if err := c.checkAssignable(p.Type, arg.Type(), "argument "+p.Name); err != nil {
			return err
		}
		if err := c.compile(arg, false); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileCall(node *ast.Call, asVoid bool) error {
	callable := node.Callable
	if callable == nil {
		return c.compileErrorf(errors.E1003, "call without a callable")
	}
	opcode := op.Call
	pops := len(node.Args)
	if node.Receiver != nil {
		recv := node.Receiver.Type()
		if recv.IsValueType() && callable.Mutates() {
			c.requireFullCompile("mutating call %s on value-type receiver %s", callable.Name(), recv)
		}
		if err := c.compile(node.Receiver, false); err != nil {
			return err
		}
		opcode = op.CallInst
		pops++
	}
	if err := c.compileArgs(callable, node.Args); err != nil {
		return err
	}
	index, err := c.constant(callable)
	if err != nil {
		return err
	}
	pushes := 0
	if !callable.ReturnType().IsVoid() {
		pushes = 1
	}
	c.emitWithEffect(opcode, pops, pushes, index, int32(len(node.Args)))
	if asVoid && pushes == 1 {
		c.emit(op.Pop)
	}
	return nil
}

func (c *Compiler) compileNew(node *ast.New) error {
	ctor := node.Constructor
	if ctor == nil {
		return c.compileErrorf(errors.E1003, "new without a constructor")
	}
	if ctor.ReturnType().IsVoid() {
		return c.compileErrorf(errors.E2001, "constructor %s does not produce a value", ctor.Name())
	}
	if err := c.compileArgs(ctor, node.Args); err != nil {
		return err
	}
	index, err := c.constant(ctor)
	if err != nil {
		return err
	}
	c.emitWithEffect(op.New, len(node.Args), 1, index, int32(len(node.Args)))
	return nil
}

// compileInvoke calls a function value. Argument types are checked by
// the interpreter against the closure's parameters.
func (c *Compiler) compileInvoke(node *ast.Invoke, asVoid bool) error {
	switch node.Target.Type().Kind() {
	case types.KindFunc, types.KindObject:
	default:
		return c.compileErrorf(errors.E2001, "cannot invoke a value of type %s", node.Target.Type())
	}
	if err := c.compile(node.Target, false); err != nil {
		return err
	}
	for _, arg := range node.Args {
		if arg.Type().IsVoid() {
			return c.compileErrorf(errors.E2001, "void expression used as an argument")
		}
		if err := c.compile(arg, false); err != nil {
			return err
		}
	}
	pushes := 0
	if !node.Type().IsVoid() {
		pushes = 1
	}
	c.emitWithEffect(op.Invoke, len(node.Args)+1, pushes, int32(len(node.Args)), int32(pushes))
	if asVoid && pushes == 1 {
		c.emit(op.Pop)
	}
	return nil
}
