// Package bytecode provides immutable representations of compiled lightc
// functions.
//
// This package defines the output of compilation: pure data structures that
// represent the instruction stream of one function body and the tables the
// interpreter needs to execute it. These types are created once during
// compilation and shared safely across goroutines and VM instances.
//
// # Key Types
//
//   - [Code]: an immutable compiled function body with its tables
//   - [Function]: a compiled function template referenced by closures
//   - [Instruction]: an opcode with two immediate operands (value type)
//   - [ExceptionHandler]: one protected region and its handler (value type)
//   - [RuntimeLabel]: a resolved branch target with its stack depths
//   - [DebugInfo]: maps an instruction index to a source range
//
// # Immutability Guarantees
//
// All types in this package are immutable after construction:
//
//   - No mutation methods exist on any type
//   - All fields are unexported
//   - Constructors copy input slices to prevent caller mutation
//   - Accessors return values or immutable pointers, never mutable slices
//
// Index-based access is used for all collections:
//
//	code.InstructionAt(0)
//	code.ConstantAt(i)
//	code.HandlerAt(j)
//
// # Branch Operands
//
// Jump operands are relative: the target of the branch at index i with
// operand d is i+d. Leave operands are indexes into the label table, which
// records the absolute target together with the stack and continuation
// depths the interpreter restores when the branch crosses a protected
// region.
package bytecode
