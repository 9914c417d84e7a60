package object

import (
	"github.com/deepnoodle-ai/lightc/types"
)

// RuntimeVariables is a live view over a set of variables drawn from two
// cell arrays: the boxed locals of the creating frame and the closure
// cells it inherited. Reads and writes go straight to the cells, so the
// view and the function observe each other's updates.
type RuntimeVariables struct {
	first   []*Cell
	second  []*Cell
	indexes []int
}

// NewRuntimeVariables returns a merged view. A non-negative index i selects
// first[i]; a negative index selects second[-1-i].
func NewRuntimeVariables(first, second []*Cell, indexes []int) *RuntimeVariables {
	return &RuntimeVariables{first: first, second: second, indexes: indexes}
}

func (v *RuntimeVariables) Type() *types.Type { return types.RuntimeVariables }

// Count returns the number of variables in the view.
func (v *RuntimeVariables) Count() int {
	return len(v.indexes)
}

// Get returns the current value of variable i.
func (v *RuntimeVariables) Get(i int) (any, error) {
	cell, err := v.cell(i)
	if err != nil {
		return nil, err
	}
	return cell.Value(), nil
}

// Set assigns variable i.
func (v *RuntimeVariables) Set(i int, value any) error {
	cell, err := v.cell(i)
	if err != nil {
		return err
	}
	cell.Set(value)
	return nil
}

func (v *RuntimeVariables) cell(i int) (*Cell, error) {
	if i < 0 || i >= len(v.indexes) {
		return nil, Errorf(types.IndexOutOfRangeError, "variable %d out of range [0, %d)", i, len(v.indexes))
	}
	idx := v.indexes[i]
	if idx >= 0 {
		return v.first[idx], nil
	}
	return v.second[-1-idx], nil
}
