package compiler

import (
	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

func (c *Compiler) compileBlock(node *ast.Block, asVoid bool) error {
	scope := c.pushScope(BlockScope, node)
	if err := c.registerStatementLabels(scope, node.Exprs); err != nil {
		return err
	}

	defs := make([]LocalDefinition, 0, len(node.Variables))
	for _, v := range node.Variables {
		def, err := c.defineBlockLocal(v)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	typ := node.Type()
	wantValue := !asVoid && !typ.IsVoid()
	if len(node.Exprs) == 0 && wantValue {
		if err := c.emitZero(typ); err != nil {
			return err
		}
	}
	for i, expr := range node.Exprs {
		if i == len(node.Exprs)-1 && wantValue {
			if err := c.checkAssignable(typ, expr.Type(), "block result"); err != nil {
				return err
			}
			if err := c.compile(expr, false); err != nil {
				return err
			}
			continue
		}
		if err := c.compile(expr, true); err != nil {
			return err
		}
	}

	end := len(c.instructions)
	for i := len(defs) - 1; i >= 0; i-- {
		c.locals.UndefineLocal(defs[i], end)
	}
	c.popScope(scope)
	return nil
}

// defineBlockLocal binds v and resets it to its zero value. Locals are
// reinitialized every time the block is entered, so each loop iteration
// sees a fresh value (and, when hoisted, a fresh cell).
func (c *Compiler) defineBlockLocal(v *ast.Variable) (LocalDefinition, error) {
	if v.Type().IsVoid() {
		return LocalDefinition{}, c.compileErrorf(errors.E2001, "variable %s has type void", v.Name)
	}
	def := c.locals.DefineLocal(v, len(c.instructions))
	zero, err := c.constant(v.Type().ZeroValue())
	if err != nil {
		return def, err
	}
	if c.comp.captures.isHoisted(v) {
		c.locals.Box(v)
		c.emit(op.InitBox, int32(def.Index), zero)
	} else {
		c.emit(op.InitLocal, int32(def.Index), zero)
	}
	return def, nil
}

// compileArm compiles a nested statement in its own label scope.
func (c *Compiler) compileArm(node ast.Node, asVoid bool) error {
	scope := c.pushScope(StatementScope, node)
	err := c.compile(node, asVoid)
	if err == nil {
		c.popScope(scope)
	}
	return err
}

func (c *Compiler) compileConditional(node *ast.Conditional, asVoid bool) error {
	if node.Test.Type() != types.Bool {
		return c.compileErrorf(errors.E2001, "condition must be bool, got %s", node.Test.Type())
	}
	typ := node.Type()
	hasValue := !asVoid && !typ.IsVoid()
	if hasValue {
		if node.IfFalse == nil {
			return c.compileErrorf(errors.E2001, "conditional of type %s requires an else branch", typ)
		}
		if err := c.checkAssignable(typ, node.IfTrue.Type(), "then branch"); err != nil {
			return err
		}
		if err := c.checkAssignable(typ, node.IfFalse.Type(), "else branch"); err != nil {
			return err
		}
	}
	if err := c.compile(node.Test, false); err != nil {
		return err
	}

	switch {
	case !hasValue && (node.IfFalse == nil || ast.IsEmpty(node.IfFalse)):
		end := c.MakeLabel()
		c.emitBranch(op.JumpIfFalse, end)
		if err := c.compileArm(node.IfTrue, true); err != nil {
			return err
		}
		c.Mark(end)
	case !hasValue && ast.IsEmpty(node.IfTrue):
		end := c.MakeLabel()
		c.emitBranch(op.JumpIfTrue, end)
		if err := c.compileArm(node.IfFalse, true); err != nil {
			return err
		}
		c.Mark(end)
	default:
		elseLabel, end := c.MakeLabel(), c.MakeLabel()
		c.emitBranch(op.JumpIfFalse, elseLabel)
		if err := c.compileArm(node.IfTrue, !hasValue); err != nil {
			return err
		}
		c.emitBranch(op.Jump, end)
		c.Mark(elseLabel)
		if err := c.compileArm(node.IfFalse, !hasValue); err != nil {
			return err
		}
		c.Mark(end)
	}
	return nil
}

// findLabelDefinition searches the scope chain of the current lambda for
// an existing registration of target.
func (c *Compiler) findLabelDefinition(target *ast.LabelTarget) *LabelInfo {
	for s := c.scope; s != nil; s = s.parent {
		if info, ok := s.labels[target]; ok {
			return info
		}
		if s.Kind == LambdaScope {
			break
		}
	}
	return nil
}

func (c *Compiler) compileLabel(node *ast.Label, asVoid bool) error {
	if node.Target == nil {
		return c.compileErrorf(errors.E1006, "label without a target")
	}
	info := c.findLabelDefinition(node.Target)
	switch {
	case info == nil:
		var err error
		if info, err = c.defineLabel(c.scope, node.Target, node); err != nil {
			return err
		}
	case info.node == nil:
		info.node = node
	case info.node != node:
		return c.compileErrorf(errors.E2013, "label %s is defined more than once", node.Target)
	}
	if info.Label.TargetIndex() != -1 {
		return c.compileErrorf(errors.E2013, "label %s is defined more than once", node.Target)
	}

	typ := node.Target.Type()
	hasValue := !typ.IsVoid()
	switch {
	case hasValue && node.Default != nil:
		if err := c.checkAssignable(typ, node.Default.Type(), "label value"); err != nil {
			return err
		}
		if err := c.compileArm(node.Default, false); err != nil {
			return err
		}
	case hasValue:
		if err := c.emitZero(typ); err != nil {
			return err
		}
	case node.Default != nil:
		if err := c.compileArm(node.Default, true); err != nil {
			return err
		}
	}
	c.Mark(info.Label)
	if asVoid && hasValue {
		c.emit(op.Pop)
	}
	return nil
}

func (c *Compiler) compileLoop(node *ast.Loop, asVoid bool) error {
	if node.Body == nil {
		return c.compileErrorf(errors.E1001, "loop without a body")
	}
	start := c.depth
	scope := c.pushScope(LoopScope, node)
	var breakLabel, continueLabel *BranchLabel
	if node.Break != nil {
		info, err := c.defineLabel(scope, node.Break, nil)
		if err != nil {
			return err
		}
		breakLabel = info.Label
	}
	if node.Continue != nil {
		if !node.Continue.Type().IsVoid() {
			return c.compileErrorf(errors.E2001, "continue label %s cannot carry a value", node.Continue)
		}
		info, err := c.defineLabel(scope, node.Continue, nil)
		if err != nil {
			return err
		}
		continueLabel = info.Label
	} else {
		continueLabel = c.makeLabelAt(start, false)
	}

	c.Mark(continueLabel)
	ordinal := c.loopCount
	c.loopCount++
	entry := c.emit(op.LoopEntry, int32(ordinal), 0)
	if err := c.compile(node.Body, true); err != nil {
		return err
	}
	c.instructions[entry].B = int32(len(c.instructions) - entry)
	c.emitBranch(op.Jump, continueLabel)

	if breakLabel != nil {
		c.Mark(breakLabel)
	} else {
		c.setDepth(start)
	}
	c.popScope(scope)
	if asVoid && !node.Type().IsVoid() && breakLabel != nil {
		c.emit(op.Pop)
	}
	return nil
}

func (c *Compiler) compileGoto(node *ast.Goto, asVoid bool) error {
	if node.Target == nil {
		return c.compileErrorf(errors.E1006, "%s without a target", node.Kind)
	}
	start := c.depth
	info, leave, err := c.lookupLabel(node.Target)
	if err != nil {
		return err
	}
	if info == nil {
		return c.notSupported("jump", "label %s is not defined in an enclosing scope", node.Target)
	}

	typ := node.Target.Type()
	switch {
	case !typ.IsVoid():
		if node.Value == nil {
			return c.compileErrorf(errors.E2012, "jump to %s requires a value of type %s", node.Target, typ)
		}
		if err := c.checkAssignable(typ, node.Value.Type(), "jump value"); err != nil {
			return err
		}
		if err := c.compile(node.Value, false); err != nil {
			return err
		}
	case node.Value != nil:
		if err := c.compile(node.Value, true); err != nil {
			return err
		}
	}

	label := info.Label
	switch {
	case label.StackDepth() > c.depth:
		return c.compileErrorf(errors.E2012, "jump to %s enters an expression", node.Target)
	case !leave && label.StackDepth() == c.depth:
		c.emitBranch(op.Jump, label)
	default:
		c.emitWithEffect(op.Leave, 0, 0, int32(c.runtimeLabel(label)))
	}
	c.terminate(start, node, asVoid)
	return nil
}

func (c *Compiler) compileReturn(node *ast.Return, asVoid bool) error {
	if kind, ok := c.insideFinally(); ok {
		return c.compileErrorf(errors.E2012, "cannot return from a %s block", kind)
	}
	start := c.depth
	ret := c.lambda.Returns()
	switch {
	case node.Value == nil:
		if !ret.IsVoid() {
			return c.compileErrorf(errors.E2005, "%s must return a value of type %s", c.displayName(), ret)
		}
		c.emitWithEffect(op.Return, 0, 0, 0)
	case ret.IsVoid():
		return c.compileErrorf(errors.E2005, "%s returns no value", c.displayName())
	default:
		if err := c.checkAssignable(ret, node.Value.Type(), "return value"); err != nil {
			return err
		}
		if err := c.compile(node.Value, false); err != nil {
			return err
		}
		c.emitWithEffect(op.Return, 1, 0, 1)
	}
	c.terminate(start, node, asVoid)
	return nil
}

// switchValue extracts the integer value of a case test.
func (c *Compiler) switchValue(node ast.Node) (int64, error) {
	constant, ok := node.(*ast.Constant)
	if !ok || !constant.Type().IsInteger() {
		return 0, c.notSupported("switch", "case values must be integer constants, got %s", node)
	}
	value, err := c.normalizeConstant(constant)
	if err != nil {
		return 0, err
	}
	switch v := value.(type) {
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	}
	return 0, c.notSupported("switch", "case value %v", value)
}

func (c *Compiler) compileSwitch(node *ast.Switch, asVoid bool) error {
	if vt := node.Value.Type(); !vt.IsInteger() {
		return c.notSupported("switch", "scrutinee of type %s", vt)
	}
	typ := node.Type()
	hasValue := !asVoid && !typ.IsVoid()
	values := make([][]int64, len(node.Cases))
	for i, cs := range node.Cases {
		if len(cs.TestValues) == 0 {
			return c.compileErrorf(errors.E2010, "switch case %d has no test values", i)
		}
		for _, tv := range cs.TestValues {
			if tv.Type() != node.Value.Type() {
				return c.compileErrorf(errors.E2001, "switch case value %s has type %s, want %s", tv, tv.Type(), node.Value.Type())
			}
			v, err := c.switchValue(tv)
			if err != nil {
				return err
			}
			values[i] = append(values[i], v)
		}
		if hasValue {
			if err := c.checkAssignable(typ, cs.Body.Type(), "case result"); err != nil {
				return err
			}
		}
	}
	if hasValue && node.Default != nil {
		if err := c.checkAssignable(typ, node.Default.Type(), "default result"); err != nil {
			return err
		}
	}

	start := c.depth
	scope := c.pushScope(SwitchScope, node)
	for _, cs := range node.Cases {
		if label, ok := cs.Body.(*ast.Label); ok {
			if _, err := c.defineLabel(scope, label.Target, label); err != nil {
				return err
			}
		}
	}

	if err := c.compile(node.Value, false); err != nil {
		return err
	}
	tableIndex, err := c.constant(nil)
	if err != nil {
		return err
	}
	sw := c.emit(op.Switch, tableIndex)
	end := c.MakeLabel()

	switch {
	case node.Default != nil:
		if err := c.compileArm(node.Default, !hasValue); err != nil {
			return err
		}
	case hasValue:
		if err := c.emitZero(typ); err != nil {
			return err
		}
	}
	c.emitBranch(op.Jump, end)

	var cases []bytecode.SwitchCase
	seen := map[int64]bool{}
	for i, cs := range node.Cases {
		c.reachable = true
		c.setDepth(start)
		offset := int32(len(c.instructions) - sw)
		for _, v := range values[i] {
			if !seen[v] {
				seen[v] = true
				cases = append(cases, bytecode.SwitchCase{Value: v, Offset: offset})
			}
		}
		if err := c.compileArm(cs.Body, !hasValue); err != nil {
			return err
		}
		c.emitBranch(op.Jump, end)
	}
	c.Mark(end)
	c.popScope(scope)
	c.constants[tableIndex] = bytecode.NewSwitchTable(cases)
	return nil
}
