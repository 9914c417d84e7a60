package object

import (
	"fmt"

	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/types"
)

// Closure is a runtime function instance with captured variables.
// It references an immutable bytecode.Function for its code and holds the
// cells of the variables it captured, in closure cell order.
type Closure struct {
	fn    *bytecode.Function
	cells []*Cell
}

// NewClosure returns a closure over fn. The number of cells must match the
// closure cell count of the function's code.
func NewClosure(fn *bytecode.Function, cells []*Cell) *Closure {
	if n := fn.Code().ClosureCellCount(); n != len(cells) {
		panic(fmt.Sprintf("closure %q expects %d cells, got %d", fn.Name(), n, len(cells)))
	}
	return &Closure{fn: fn, cells: cells}
}

// Function returns the function template.
func (c *Closure) Function() *bytecode.Function {
	return c.fn
}

// Name returns the function name.
func (c *Closure) Name() string {
	return c.fn.Name()
}

// Cells returns the captured cells. The slice is shared with the closure
// and must not be modified.
func (c *Closure) Cells() []*Cell {
	return c.cells
}

func (c *Closure) Type() *types.Type {
	return types.Func
}

func (c *Closure) String() string {
	if name := c.fn.Name(); name != "" {
		return fmt.Sprintf("closure(%s)", name)
	}
	return "closure(<lambda>)"
}
