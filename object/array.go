package object

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lightc/types"
)

// Array is a fixed-length, typed array.
type Array struct {
	elem  *types.Type
	items []any
}

// NewArray returns an array holding items, which are not copied.
func NewArray(elem *types.Type, items []any) *Array {
	return &Array{elem: elem, items: items}
}

// NewArrayLen returns a zero-filled array of the given length.
func NewArrayLen(elem *types.Type, length int) (*Array, error) {
	if length < 0 {
		return nil, Errorf(types.ArgumentError, "negative array length %d", length)
	}
	items := make([]any, length)
	zero := elem.ZeroValue()
	for i := range items {
		items[i] = zero
	}
	return &Array{elem: elem, items: items}, nil
}

func (a *Array) Type() *types.Type { return types.ArrayOf(a.elem) }
func (a *Array) Elem() *types.Type { return a.elem }
func (a *Array) Len() int          { return len(a.items) }

// Get returns the element at index.
func (a *Array) Get(index int64) (any, error) {
	if index < 0 || index >= int64(len(a.items)) {
		return nil, Errorf(types.IndexOutOfRangeError, "index %d out of range [0, %d)", index, len(a.items))
	}
	return a.items[index], nil
}

// Set replaces the element at index.
func (a *Array) Set(index int64, value any) error {
	if index < 0 || index >= int64(len(a.items)) {
		return Errorf(types.IndexOutOfRangeError, "index %d out of range [0, %d)", index, len(a.items))
	}
	a.items[index] = value
	return nil
}

func (a *Array) String() string {
	parts := make([]string, len(a.items))
	for i, item := range a.items {
		parts[i] = fmt.Sprintf("%v", item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
