package object

import (
	"fmt"

	"github.com/deepnoodle-ai/lightc/types"
)

// Cell is a heap-allocated storage location shared between a function and
// the closures that capture one of its variables. Cells are not
// synchronized; closures that share a cell across goroutines must
// coordinate externally.
type Cell struct {
	value any
}

// NewCell returns a cell holding value.
func NewCell(value any) *Cell {
	return &Cell{value: value}
}

// Value returns the current contents of the cell.
func (c *Cell) Value() any {
	return c.value
}

// Set replaces the contents of the cell.
func (c *Cell) Set(value any) {
	c.value = value
}

func (c *Cell) Type() *types.Type {
	return types.Object
}

func (c *Cell) String() string {
	if c.value == nil {
		return "cell()"
	}
	return fmt.Sprintf("cell(%v)", c.value)
}
