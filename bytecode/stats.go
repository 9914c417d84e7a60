package bytecode

// Stats contains statistics about compiled bytecode.
// This is useful for auditing trees before execution.
type Stats struct {
	// InstructionCount is the total number of instructions.
	InstructionCount int

	// ConstantCount is the number of constants across all pools.
	ConstantCount int

	// FunctionCount is the number of nested functions.
	FunctionCount int

	// HandlerCount is the number of exception handler records.
	HandlerCount int

	LabelCount     int
	DebugInfoCount int
	LoopCount      int

	// MaxStackDepth is the deepest operand stack of any function.
	MaxStackDepth int

	// FullCompileCount is the number of functions the interpreter
	// cannot execute.
	FullCompileCount int
}
