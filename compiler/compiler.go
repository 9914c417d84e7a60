// Package compiler compiles expression trees into bytecode for the lightc
// interpreter.
//
// Each lambda in the tree is compiled by its own Compiler, which owns the
// function's local allocator, label scopes, exception handler list and
// debug records. Nested lambdas are compiled by child compilers that keep
// a pointer to their parent, used only to promote captured variables.
package compiler

import (
	"fmt"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

// Compiler compiles one lambda.
type Compiler struct {
	comp   *compilation
	parent *Compiler
	lambda *ast.Lambda
	id     int
	name   string

	instructions []bytecode.Instruction
	constants    []any
	constIndex   map[any]int32
	handlers     []bytecode.ExceptionHandler
	debugInfos   []bytecode.DebugInfo
	unsupported  []string

	locals        *LocalVariables
	labels        []*BranchLabel
	runtimeLabels []*BranchLabel
	scope         *LabelScope

	// Slots holding the exception bound by each enclosing catch block.
	// A -1 entry blocks rethrow, as inside a finally body.
	rethrowSlots []int

	depth             int
	maxDepth          int
	continuationDepth int
	reachable         bool
	loopCount         int
	location          errors.SourceLocation
}

// Compile compiles lambda and every lambda nested in it. Compiling the
// same tree twice yields identical artifacts.
//
// Errors in the tree are reported as *errors.CompileError. Constructs the
// interpreter cannot express are reported as *errors.NotSupportedError,
// which callers may treat as a signal to use another strategy.
func Compile(lambda *ast.Lambda, opts ...Option) (*bytecode.Function, error) {
	if lambda == nil {
		return nil, errors.CompileErrorf(errors.E1001, "nil lambda")
	}
	cfg := newConfig(opts)
	captures, err := analyzeCaptures(lambda)
	if err != nil {
		return nil, err
	}
	c := newCompiler(newCompilation(cfg, captures), nil, lambda)
	fn, err := c.compileFunction()
	if err != nil {
		return nil, err
	}
	if cfg.verify {
		if err := bytecode.Verify(fn.Code()); err != nil {
			return nil, fmt.Errorf("artifact verification failed: %w", err)
		}
	}
	return fn, nil
}

func newCompiler(comp *compilation, parent *Compiler, lambda *ast.Lambda) *Compiler {
	name := lambda.Name
	if name == "" && parent == nil {
		name = comp.cfg.name
	}
	return &Compiler{
		comp:       comp,
		parent:     parent,
		lambda:     lambda,
		id:         comp.newFunctionID(),
		name:       name,
		constIndex: map[any]int32{},
		locals:     NewLocalVariables(),
		reachable:  true,
	}
}

func (c *Compiler) displayName() string {
	if c.name == "" {
		return fmt.Sprintf("<lambda#%d>", c.id)
	}
	return c.name
}

func (c *Compiler) compileFunction() (*bytecode.Function, error) {
	lambda := c.lambda
	if lambda.Body == nil {
		return nil, c.compileErrorf(errors.E1001, "lambda %s has no body", c.displayName())
	}
	scope := c.pushScope(LambdaScope, lambda)

	params := make([]bytecode.Param, len(lambda.Params))
	defs := make([]LocalDefinition, len(lambda.Params))
	for i, p := range lambda.Params {
		params[i] = bytecode.Param{Name: p.Name, Type: p.Type()}
		if p.ByRef {
			c.requireFullCompile("by-ref parameter %s", p.Name)
		}
		defs[i] = c.locals.DefineLocal(p, 0)
		if c.comp.captures.isHoisted(p) {
			c.locals.Box(p)
			c.emit(op.BoxParam, int32(defs[i].Index))
		}
	}

	ret := lambda.Returns()
	if err := c.compileBody(lambda.Body, ret); err != nil {
		return nil, err
	}

	end := len(c.instructions)
	for i := len(defs) - 1; i >= 0; i-- {
		c.locals.UndefineLocal(defs[i], end)
	}
	c.popScope(scope)

	if n := c.locals.MaxLocalCount(); n > c.comp.cfg.maxLocals {
		return nil, c.compileErrorf(errors.E2007, "function uses %d locals, limit is %d", n, c.comp.cfg.maxLocals)
	}
	return c.finish(params, ret), nil
}

func (c *Compiler) compileBody(body ast.Node, ret *types.Type) error {
	bodyType := body.Type()
	switch {
	case ret.IsVoid():
		if err := c.compile(body, true); err != nil {
			return err
		}
		if c.reachable {
			c.emitWithEffect(op.Return, 0, 0, 0)
		}
	case bodyType.IsVoid():
		// The body exits through Return nodes. Falling off the end yields
		// the zero value.
		if err := c.compile(body, true); err != nil {
			return err
		}
		if c.reachable {
			if err := c.emitZero(ret); err != nil {
				return err
			}
			c.emitWithEffect(op.Return, 1, 0, 1)
		}
	default:
		if !ret.AssignableFrom(bodyType) {
			return c.compileErrorf(errors.E2001, "function %s returns %s but its body has type %s", c.displayName(), ret, bodyType)
		}
		if err := c.compile(body, false); err != nil {
			return err
		}
		c.emitWithEffect(op.Return, 1, 0, 1)
	}
	c.reachable = false
	return nil
}

func (c *Compiler) finish(params []bytecode.Param, ret *types.Type) *bytecode.Function {
	var cells []string
	for _, v := range c.locals.ClosureVariables() {
		cells = append(cells, v.Name)
	}
	code := bytecode.NewCode(bytecode.CodeParams{
		Name:          c.name,
		Params:        params,
		ReturnType:    ret,
		Instructions:  c.instructions,
		Constants:     c.constants,
		Labels:        c.resolveLabels(),
		Handlers:      c.handlers,
		DebugInfos:    c.debugInfos,
		Locals:        c.locals.Infos(),
		ClosureCells:  cells,
		LocalCount:    c.locals.MaxLocalCount(),
		MaxStackDepth: c.maxDepth,
		LoopCount:     c.loopCount,
		Unsupported:   c.unsupported,
	})
	c.comp.log.Debug().
		Int("id", c.id).
		Str("function", c.displayName()).
		Int("instructions", code.InstructionCount()).
		Int("locals", code.LocalCount()).
		Int("cells", code.ClosureCellCount()).
		Int("max_stack", code.MaxStackDepth()).
		Bool("requires_full_compile", code.RequiresFullCompile()).
		Msg("compiled function")
	return bytecode.NewFunction(bytecode.FunctionParams{
		ID:   c.id,
		Name: c.name,
		Code: code,
	})
}

// compile emits code for node. Afterwards the operand stack holds exactly
// one more value than before, or the same number when node is void or
// asVoid is set.
func (c *Compiler) compile(node ast.Node, asVoid bool) error {
	start := c.depth
	if err := c.compileNode(node, asVoid); err != nil {
		return err
	}
	want := start
	if !asVoid && !node.Type().IsVoid() {
		want++
	}
	if c.depth != want {
		errors.Internalf("%T left stack depth %d, expected %d", node, c.depth, want)
	}
	return nil
}

func (c *Compiler) compileNode(node ast.Node, asVoid bool) error {
	switch node := node.(type) {
	case *ast.Constant:
		if asVoid {
			return nil
		}
		return c.compileConstant(node)
	case *ast.Default:
		if asVoid || node.Type().IsVoid() {
			return nil
		}
		return c.emitZero(node.Type())
	case *ast.Variable:
		if asVoid {
			return nil
		}
		c.compileVariable(node)
		return nil
	case *ast.Assign:
		return c.compileAssign(node, asVoid)
	case *ast.Binary:
		return c.valued(c.compileBinary(node), asVoid)
	case *ast.Unary:
		return c.valued(c.compileUnary(node), asVoid)
	case *ast.Convert:
		return c.valued(c.compileConvert(node), asVoid)
	case *ast.TypeIs:
		return c.valued(c.compileTypeIs(node), asVoid)
	case *ast.Call:
		return c.compileCall(node, asVoid)
	case *ast.New:
		return c.valued(c.compileNew(node), asVoid)
	case *ast.Invoke:
		return c.compileInvoke(node, asVoid)
	case *ast.Member:
		return c.valued(c.compileMember(node), asVoid)
	case *ast.NewArray:
		return c.valued(c.compileNewArray(node), asVoid)
	case *ast.NewArrayBounds:
		return c.valued(c.compileNewArrayBounds(node), asVoid)
	case *ast.Index:
		return c.valued(c.compileIndex(node), asVoid)
	case *ast.ArrayLength:
		return c.valued(c.compileArrayLength(node), asVoid)
	case *ast.Lambda:
		return c.valued(c.compileLambda(node), asVoid)
	case *ast.RuntimeVariables:
		return c.valued(c.compileRuntimeVariables(node), asVoid)
	case *ast.Block:
		return c.compileBlock(node, asVoid)
	case *ast.Conditional:
		return c.compileConditional(node, asVoid)
	case *ast.Label:
		return c.compileLabel(node, asVoid)
	case *ast.Loop:
		return c.compileLoop(node, asVoid)
	case *ast.Goto:
		return c.compileGoto(node, asVoid)
	case *ast.Return:
		return c.compileReturn(node, asVoid)
	case *ast.Switch:
		return c.compileSwitch(node, asVoid)
	case *ast.Try:
		return c.compileTry(node, asVoid)
	case *ast.Throw:
		return c.compileThrow(node, asVoid)
	case *ast.DebugInfo:
		c.compileDebugInfo(node)
		return nil
	default:
		return c.notSupported("node", "%T", node)
	}
}

// valued discards the value a node left on the stack when asVoid is set.
func (c *Compiler) valued(err error, asVoid bool) error {
	if err != nil {
		return err
	}
	if asVoid {
		c.emit(op.Pop)
	}
	return nil
}

// terminate marks the rest of the current path unreachable. The depth is
// set as if node had completed normally, which keeps the depth checks of
// enclosing nodes consistent.
func (c *Compiler) terminate(start int, node ast.Node, asVoid bool) {
	c.reachable = false
	if !asVoid && !node.Type().IsVoid() {
		start++
	}
	c.setDepth(start)
}

func (c *Compiler) emit(opcode op.Code, operands ...int32) int {
	info := op.GetInfo(opcode)
	if info.Pops == op.Variable || info.Pushes == op.Variable {
		errors.Internalf("%s has an operand-dependent stack effect", opcode)
	}
	return c.emitWithEffect(opcode, info.Pops, info.Pushes, operands...)
}

func (c *Compiler) emitWithEffect(opcode op.Code, pops, pushes int, operands ...int32) int {
	inst := bytecode.Instruction{Op: opcode}
	switch len(operands) {
	case 0:
	case 1:
		inst.A = operands[0]
	case 2:
		inst.A, inst.B = operands[0], operands[1]
	default:
		errors.Internalf("%s takes at most two operands, got %d", opcode, len(operands))
	}
	pos := len(c.instructions)
	c.instructions = append(c.instructions, inst)
	if pops > c.depth {
		errors.Internalf("%s at %d pops %d values from a stack of depth %d", opcode, pos, pops, c.depth)
	}
	c.setDepth(c.depth - pops + pushes)
	return pos
}

func (c *Compiler) setDepth(depth int) {
	c.depth = depth
	if depth > c.maxDepth {
		c.maxDepth = depth
	}
}

// constant adds value to the constant pool. Scalars and types are
// deduplicated.
func (c *Compiler) constant(value any) (int32, error) {
	key, dedupe := constantKey(value)
	if dedupe {
		if index, ok := c.constIndex[key]; ok {
			return index, nil
		}
	}
	if len(c.constants) >= c.comp.cfg.maxConstants {
		return 0, c.compileErrorf(errors.E2008, "function uses more than %d constants", c.comp.cfg.maxConstants)
	}
	index := int32(len(c.constants))
	c.constants = append(c.constants, value)
	if dedupe {
		c.constIndex[key] = index
	}
	return index, nil
}

func constantKey(value any) (any, bool) {
	switch value.(type) {
	case bool, string, int8, int16, int32, int64, uint8, uint16, uint32, uint64, *types.Type:
		return value, true
	}
	return nil, false
}

// emitZero pushes the zero value of typ.
func (c *Compiler) emitZero(typ *types.Type) error {
	zero := typ.ZeroValue()
	switch zero {
	case nil:
		c.emit(op.Nil)
		return nil
	case false:
		c.emit(op.False)
		return nil
	}
	index, err := c.constant(zero)
	if err != nil {
		return err
	}
	c.emit(op.LoadConst, index)
	return nil
}

// requireFullCompile records a construct the interpreter cannot run
// faithfully. Emission continues so diagnostics stay complete.
func (c *Compiler) requireFullCompile(format string, args ...any) {
	note := fmt.Sprintf(format, args...)
	c.unsupported = append(c.unsupported, note)
	c.comp.log.Debug().
		Str("function", c.displayName()).
		Str("construct", note).
		Msg("function requires full compilation")
}

func (c *Compiler) compileErrorf(code errors.ErrorCode, format string, args ...any) *errors.CompileError {
	err := errors.CompileErrorf(code, format, args...)
	err.Function = c.name
	err.Location = c.location
	return err
}

func (c *Compiler) notSupported(construct, format string, args ...any) *errors.NotSupportedError {
	err := errors.NotSupportedf(construct, format, args...)
	err.Function = c.name
	err.Location = c.location
	return err
}
