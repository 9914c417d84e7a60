package lightc

import (
	"github.com/deepnoodle-ai/lightc/bytecode"
)

// Program is a compiled top-level function.
// It is immutable after creation and safe for concurrent use.
type Program struct {
	fn *bytecode.Function

	// Metadata
	source   []byte
	filename string
}

// Name returns the name of the top-level function.
func (p *Program) Name() string {
	return p.fn.Name()
}

// Function returns the compiled top-level function.
func (p *Program) Function() *bytecode.Function {
	return p.fn
}

// Code returns the bytecode of the top-level function.
func (p *Program) Code() *bytecode.Code {
	return p.fn.Code()
}

// Source returns the JSON the program was compiled from, if any.
func (p *Program) Source() []byte {
	return p.source
}

// Filename returns the filename associated with this program, if any.
func (p *Program) Filename() string {
	return p.filename
}

// RequiresFullCompile reports whether the top-level function or any
// nested function must not be interpreted.
func (p *Program) RequiresFullCompile() bool {
	return p.Stats().FullCompileCount > 0
}

// Stats returns statistics about the program's code.
func (p *Program) Stats() bytecode.Stats {
	return p.fn.Code().Stats()
}
