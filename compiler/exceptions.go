package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

// compileTry lays out a protected region:
//
//	tryStart:  body
//	           [STORE_LOCAL result]   finally with a value only
//	           JUMP exit
//	tryEnd:    catch handlers, each ending in JUMP exit
//	exit:      ENTER_FINALLY          finally only
//	           finally or fault body
//	           END_FINALLY | END_FAULT
//	           [LOAD_LOCAL result]
//	end:
//
// Without a finally block, exit is end. The finally and fault regions
// cover the catch handlers as well as the body.
func (c *Compiler) compileTry(node *ast.Try, asVoid bool) error {
	if node.Body == nil {
		return c.compileErrorf(errors.E2004, "try without a body")
	}
	if node.Finally != nil && node.Fault != nil {
		return c.compileErrorf(errors.E2004, "try cannot have both a finally and a fault block")
	}
	if len(node.Handlers) == 0 && node.Finally == nil && node.Fault == nil {
		return c.compileErrorf(errors.E2004, "try requires a catch, finally or fault block")
	}
	for _, h := range node.Handlers {
		if h.Test == nil {
			return c.compileErrorf(errors.E2004, "catch block without an exception type")
		}
		if !types.Exception.AssignableFrom(h.Test) {
			return c.compileErrorf(errors.E2001, "%s is not an exception type", h.Test)
		}
		if h.Filter != nil {
			return c.notSupported("exception filter", "catch (%s) has a filter", h.Test)
		}
	}

	handlers, fault := node.Handlers, node.Fault
	if node.Finally == nil && fault == nil && isRethrowOnly(handlers) {
		handlers, fault = nil, ast.Empty()
	}

	typ := node.Type()
	hasValue := !asVoid && !typ.IsVoid()
	if hasValue {
		if err := c.checkAssignable(typ, node.Body.Type(), "try result"); err != nil {
			return err
		}
		for _, h := range handlers {
			if err := c.checkAssignable(typ, h.Body.Type(), "catch result"); err != nil {
				return err
			}
		}
	}

	start := c.depth
	var result *LocalDefinition
	if hasValue && node.Finally != nil {
		def := c.defineTemp("$result", typ)
		result = &def
	}
	end := c.MakeLabel()
	exit := end
	if node.Finally != nil {
		exit = c.MakeLabel()
	}

	tryStart := len(c.instructions)
	scope := c.pushScope(TryScope, node)
	if err := c.compile(node.Body, !hasValue); err != nil {
		return err
	}
	c.popScope(scope)
	c.leaveProtected(result, exit)
	tryEnd := len(c.instructions)

	for _, h := range handlers {
		if err := c.compileCatch(h, tryStart, tryEnd, start, hasValue, result, exit); err != nil {
			return err
		}
	}
	protectedEnd := len(c.instructions)

	switch {
	case node.Finally != nil:
		c.Mark(exit)
		c.emit(op.EnterFinally)
		if err := c.compileFinallyBlock(bytecode.FinallyHandler, node.Finally, tryStart, protectedEnd, start); err != nil {
			return err
		}
		if result != nil {
			c.emit(op.LoadLocal, int32(result.Index))
		}
	case fault != nil:
		if err := c.compileFinallyBlock(bytecode.FaultHandler, fault, tryStart, protectedEnd, start); err != nil {
			return err
		}
	}
	c.Mark(end)
	if result != nil {
		c.undefineTemp(*result)
	}
	return nil
}

// leaveProtected ends the normal path of a body or catch handler.
func (c *Compiler) leaveProtected(result *LocalDefinition, exit *BranchLabel) {
	if result != nil {
		c.emit(op.StoreLocal, int32(result.Index))
	}
	c.emitBranch(op.Jump, exit)
}

func (c *Compiler) compileCatch(h *ast.CatchBlock, tryStart, tryEnd, depth int, hasValue bool, result *LocalDefinition, exit *BranchLabel) error {
	label := c.makeLabelAt(depth, false)
	c.Mark(label)
	handlerStart := len(c.instructions)
	// The interpreter pushes the caught exception.
	c.setDepth(depth + 1)

	var defs []LocalDefinition
	rethrowSlot := -1
	needSlot := containsRethrow(h.Body)
	if h.Variable != nil {
		def := c.locals.DefineLocal(h.Variable, handlerStart)
		defs = append(defs, def)
		if needSlot {
			hidden := c.defineTemp("$exception", h.Test)
			defs = append(defs, hidden)
			rethrowSlot = hidden.Index
			c.emit(op.Dup)
			c.emit(op.StoreLocal, int32(hidden.Index))
		}
		if c.comp.captures.isHoisted(h.Variable) {
			c.locals.Box(h.Variable)
			zero, err := c.constant(nil)
			if err != nil {
				return err
			}
			c.emit(op.InitBox, int32(def.Index), zero)
		}
		c.storeVariable(h.Variable)
	} else if needSlot {
		hidden := c.defineTemp("$exception", h.Test)
		defs = append(defs, hidden)
		rethrowSlot = hidden.Index
		c.emit(op.StoreLocal, int32(hidden.Index))
	} else {
		c.emit(op.Pop)
	}

	scope := c.pushScope(CatchScope, h.Body)
	c.rethrowSlots = append(c.rethrowSlots, rethrowSlot)
	if err := c.compile(h.Body, !hasValue); err != nil {
		return err
	}
	c.rethrowSlots = c.rethrowSlots[:len(c.rethrowSlots)-1]
	c.popScope(scope)
	c.leaveProtected(result, exit)
	handlerEnd := len(c.instructions)

	for i := len(defs) - 1; i >= 0; i-- {
		c.locals.UndefineLocal(defs[i], handlerEnd)
	}
	c.handlers = append(c.handlers, bytecode.ExceptionHandler{
		Kind:          bytecode.CatchHandler,
		ExceptionType: h.Test,
		TryStart:      tryStart,
		TryEnd:        tryEnd,
		Label:         c.runtimeLabel(label),
		HandlerStart:  handlerStart,
		HandlerEnd:    handlerEnd,
	})
	return nil
}

// compileFinallyBlock emits a finally or fault body protecting
// [tryStart, tryEnd). The body runs with one more pending continuation
// than the surrounding code.
func (c *Compiler) compileFinallyBlock(kind bytecode.HandlerKind, body ast.Node, tryStart, tryEnd, depth int) error {
	label := c.makeLabelAt(depth, false)
	c.Mark(label)
	handlerStart := len(c.instructions)

	scopeKind := FinallyScope
	if kind == bytecode.FaultHandler {
		scopeKind = FaultScope
	}
	scope := c.pushScope(scopeKind, body)
	c.rethrowSlots = append(c.rethrowSlots, -1)
	c.continuationDepth++
	if err := c.compile(body, true); err != nil {
		return err
	}
	c.continuationDepth--
	c.rethrowSlots = c.rethrowSlots[:len(c.rethrowSlots)-1]
	c.popScope(scope)

	if kind == bytecode.FinallyHandler {
		c.emit(op.EndFinally)
	} else {
		c.emit(op.EndFault)
		c.reachable = false
	}
	c.handlers = append(c.handlers, bytecode.ExceptionHandler{
		Kind:         kind,
		TryStart:     tryStart,
		TryEnd:       tryEnd,
		Label:        c.runtimeLabel(label),
		HandlerStart: handlerStart,
		HandlerEnd:   len(c.instructions),
	})
	return nil
}

func (c *Compiler) compileThrow(node *ast.Throw, asVoid bool) error {
	start := c.depth
	if node.Value == nil {
		n := len(c.rethrowSlots)
		if n == 0 || c.rethrowSlots[n-1] == -1 {
			return c.compileErrorf(errors.E2006, "rethrow outside of a catch block")
		}
		c.emit(op.Rethrow, int32(c.rethrowSlots[n-1]))
	} else {
		vt := node.Value.Type()
		if vt.Kind() != types.KindObject && !types.Exception.AssignableFrom(vt) {
			return c.compileErrorf(errors.E2001, "cannot throw a value of type %s", vt)
		}
		if err := c.compile(node.Value, false); err != nil {
			return err
		}
		c.emit(op.Throw)
	}
	c.terminate(start, node, asVoid)
	return nil
}

// isRethrowOnly reports whether handlers is a single catch-all whose body
// does nothing but rethrow. Such a try behaves exactly like a fault block.
func isRethrowOnly(handlers []*ast.CatchBlock) bool {
	if len(handlers) != 1 {
		return false
	}
	h := handlers[0]
	if h.Test != types.Exception || h.Filter != nil {
		return false
	}
	body := h.Body
	for {
		block, ok := body.(*ast.Block)
		if !ok {
			break
		}
		var exprs []ast.Node
		for _, e := range block.Exprs {
			if _, isDebug := e.(*ast.DebugInfo); !isDebug {
				exprs = append(exprs, e)
			}
		}
		if len(block.Variables) > 0 || len(exprs) != 1 {
			return false
		}
		body = exprs[0]
	}
	throw, ok := body.(*ast.Throw)
	return ok && throw.Value == nil
}

// containsRethrow reports whether node rethrows the exception of the
// enclosing catch block. Nested lambdas are not searched.
func containsRethrow(node ast.Node) bool {
	found := false
	ast.Inspect(node, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Lambda:
			return false
		case *ast.Throw:
			if n.Value == nil {
				found = true
			}
		}
		return !found
	})
	return found
}
