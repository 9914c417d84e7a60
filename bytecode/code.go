package bytecode

import (
	"github.com/deepnoodle-ai/lightc/types"
)

// Param describes one parameter of a compiled function.
type Param struct {
	Name string
	Type *types.Type
}

// LocalInfo records the slot and live range of one local variable.
type LocalInfo struct {
	Name  string
	Index int
	Start int
	End   int
	Boxed bool
}

// Code is the compiled body of one function together with the tables the
// interpreter needs to run it. It is immutable after creation and safe for
// concurrent use.
type Code struct {
	name       string
	params     []Param
	returnType *types.Type

	instructions []Instruction
	constants    []any

	labels     []RuntimeLabel
	handlers   []ExceptionHandler
	debugInfos []DebugInfo
	locals     []LocalInfo

	// Names of the captured variables, in closure cell order.
	closureCells []string

	localCount    int
	maxStackDepth int
	loopCount     int

	requiresFullCompile bool
	unsupported         []string
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	Name         string
	Params       []Param
	ReturnType   *types.Type
	Instructions []Instruction
	Constants    []any
	Labels       []RuntimeLabel
	Handlers     []ExceptionHandler
	DebugInfos   []DebugInfo
	Locals       []LocalInfo
	ClosureCells []string

	LocalCount    int
	MaxStackDepth int
	LoopCount     int

	// Unsupported lists constructs the interpreter cannot execute
	// faithfully. A non-empty list marks the code as requiring full
	// compilation.
	Unsupported []string
}

// NewCode creates a new immutable Code from the given parameters.
// Input slices are copied to ensure immutability.
func NewCode(params CodeParams) *Code {
	returnType := params.ReturnType
	if returnType == nil {
		returnType = types.Void
	}
	return &Code{
		name:                params.Name,
		params:              copySlice(params.Params),
		returnType:          returnType,
		instructions:        copySlice(params.Instructions),
		constants:           copySlice(params.Constants),
		labels:              copySlice(params.Labels),
		handlers:            copySlice(params.Handlers),
		debugInfos:          copySlice(params.DebugInfos),
		locals:              copySlice(params.Locals),
		closureCells:        copySlice(params.ClosureCells),
		localCount:          params.LocalCount,
		maxStackDepth:       params.MaxStackDepth,
		loopCount:           params.LoopCount,
		requiresFullCompile: len(params.Unsupported) > 0,
		unsupported:         copySlice(params.Unsupported),
	}
}

// Name returns the name of the function, or empty for anonymous lambdas.
func (c *Code) Name() string {
	return c.name
}

// ParamCount returns the number of parameters.
func (c *Code) ParamCount() int {
	return len(c.params)
}

// ParamAt returns the parameter at the given index.
func (c *Code) ParamAt(index int) Param {
	return c.params[index]
}

// ReturnType returns the static return type.
func (c *Code) ReturnType() *types.Type {
	return c.returnType
}

// ReturnsVoid returns true if the function produces no value.
func (c *Code) ReturnsVoid() bool {
	return c.returnType.IsVoid()
}

// InstructionCount returns the number of instructions.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// InstructionAt returns the instruction at the given index.
func (c *Code) InstructionAt(index int) Instruction {
	return c.instructions[index]
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// LabelCount returns the number of runtime labels.
func (c *Code) LabelCount() int {
	return len(c.labels)
}

// LabelAt returns the runtime label at the given index.
func (c *Code) LabelAt(index int) RuntimeLabel {
	return c.labels[index]
}

// HandlerCount returns the number of exception handlers.
func (c *Code) HandlerCount() int {
	return len(c.handlers)
}

// HandlerAt returns the exception handler at the given index.
func (c *Code) HandlerAt(index int) ExceptionHandler {
	return c.handlers[index]
}

// FindHandler returns the handler that should receive an exception of the
// given runtime type raised at instruction ip: among handlers covering ip
// that accept the type, the one that is better than all others.
func (c *Code) FindHandler(ip int, excType *types.Type) (ExceptionHandler, int, bool) {
	var best *ExceptionHandler
	bestIndex := -1
	for i := range c.handlers {
		h := &c.handlers[i]
		if !h.Covers(ip) || !h.Matches(excType) {
			continue
		}
		if h.IsBetterThan(best) {
			best = h
			bestIndex = i
		}
	}
	if best == nil {
		return ExceptionHandler{}, -1, false
	}
	return *best, bestIndex, true
}

// DebugInfoCount returns the number of debug entries.
func (c *Code) DebugInfoCount() int {
	return len(c.debugInfos)
}

// DebugInfoAtIndex returns the debug entry at the given table index.
func (c *Code) DebugInfoAtIndex(index int) DebugInfo {
	return c.debugInfos[index]
}

// LocalInfoCount returns the number of recorded locals.
func (c *Code) LocalInfoCount() int {
	return len(c.locals)
}

// LocalInfoAt returns the local record at the given index.
func (c *Code) LocalInfoAt(index int) LocalInfo {
	return c.locals[index]
}

// LocalsAt returns the locals live at instruction ip.
func (c *Code) LocalsAt(ip int) []LocalInfo {
	var live []LocalInfo
	for _, l := range c.locals {
		if ip >= l.Start && ip < l.End {
			live = append(live, l)
		}
	}
	return live
}

// ClosureCellCount returns the number of captured variables.
func (c *Code) ClosureCellCount() int {
	return len(c.closureCells)
}

// ClosureCellAt returns the name of the captured variable at the given
// closure index.
func (c *Code) ClosureCellAt(index int) string {
	return c.closureCells[index]
}

// LocalCount returns the number of local slots.
func (c *Code) LocalCount() int {
	return c.localCount
}

// MaxStackDepth returns the maximum operand stack depth.
func (c *Code) MaxStackDepth() int {
	return c.maxStackDepth
}

// LoopCount returns the number of loops in the body.
func (c *Code) LoopCount() int {
	return c.loopCount
}

// RequiresFullCompile returns true if the interpreter must not execute
// this code.
func (c *Code) RequiresFullCompile() bool {
	return c.requiresFullCompile
}

// UnsupportedCount returns the number of recorded unsupported constructs.
func (c *Code) UnsupportedCount() int {
	return len(c.unsupported)
}

// UnsupportedAt returns the description of an unsupported construct.
func (c *Code) UnsupportedAt(index int) string {
	return c.unsupported[index]
}

// Functions returns the nested functions referenced from the constant pool,
// in constant order.
func (c *Code) Functions() []*Function {
	var fns []*Function
	for _, constant := range c.constants {
		if fn, ok := constant.(*Function); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Flatten returns this code and all nested function bodies in a flat slice.
func (c *Code) Flatten() []*Code {
	codes := []*Code{c}
	for _, fn := range c.Functions() {
		codes = append(codes, fn.Code().Flatten()...)
	}
	return codes
}

// Stats returns statistics about this code and its nested functions.
func (c *Code) Stats() Stats {
	var stats Stats
	for _, code := range c.Flatten() {
		stats.InstructionCount += code.InstructionCount()
		stats.ConstantCount += code.ConstantCount()
		stats.HandlerCount += code.HandlerCount()
		stats.LabelCount += code.LabelCount()
		stats.DebugInfoCount += code.DebugInfoCount()
		stats.LoopCount += code.LoopCount()
		if code.maxStackDepth > stats.MaxStackDepth {
			stats.MaxStackDepth = code.maxStackDepth
		}
		if code.RequiresFullCompile() {
			stats.FullCompileCount++
		}
	}
	stats.FunctionCount = len(c.Flatten()) - 1
	return stats
}
