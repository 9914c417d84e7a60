package object

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/types"
)

func TestTypeOf(t *testing.T) {
	require.Nil(t, TypeOf(nil))
	require.Equal(t, types.Int32, TypeOf(int32(1)))
	require.Equal(t, types.Uint64, TypeOf(uint64(1)))
	require.Equal(t, types.String, TypeOf("x"))
	require.Equal(t, types.DivideByZeroError, TypeOf(NewException(types.DivideByZeroError, "x")))
	require.Equal(t, types.ArrayOf(types.Int32), TypeOf(NewArray(types.Int32, nil)))
	require.Equal(t, types.RuntimeVariables, TypeOf(NewRuntimeVariables(nil, nil, nil)))
	require.Equal(t, types.Object, TypeOf(struct{}{}))

	require.True(t, IsInstance(nil, types.String))
	require.False(t, IsInstance(nil, types.Int32))
	require.True(t, IsInstance(int32(1), types.Object))
}

func TestEquals(t *testing.T) {
	a := NewArray(types.Int32, []any{int32(1)})
	b := NewArray(types.Int32, []any{int32(1)})
	require.True(t, Equals(a, a))
	require.False(t, Equals(a, b))
	require.True(t, Equals("x", "x"))
	require.True(t, Equals(nil, nil))
	require.False(t, Equals(nil, int32(0)))
	require.False(t, Equals([]int{1}, []int{1}))
}

func TestCell(t *testing.T) {
	c := NewCell(int64(1))
	require.Equal(t, int64(1), c.Value())
	c.Set(int64(2))
	require.Equal(t, int64(2), c.Value())
	require.Equal(t, "cell(2)", c.String())
	require.Equal(t, "cell()", NewCell(nil).String())
}

func TestClosure(t *testing.T) {
	code := bytecode.NewCode(bytecode.CodeParams{Name: "f", ClosureCells: []string{"n"}})
	fn := bytecode.NewFunction(bytecode.FunctionParams{ID: 1, Name: "f", Code: code})
	cell := NewCell(int64(3))
	c := NewClosure(fn, []*Cell{cell})
	require.Equal(t, "f", c.Name())
	require.Same(t, cell, c.Cells()[0])
	require.Equal(t, "closure(f)", c.String())
	require.Panics(t, func() { NewClosure(fn, nil) })
}

func TestAsException(t *testing.T) {
	exc := NewException(types.ArgumentError, "bad")
	got, ok := AsException(exc)
	require.True(t, ok)
	require.Same(t, exc, got)

	got, ok = AsException(fmt.Errorf("wrapped: %w", exc))
	require.True(t, ok)
	require.Same(t, exc, got)

	host := errors.New("disk full")
	got, ok = AsException(host)
	require.True(t, ok)
	require.Equal(t, types.Exception, got.Type())
	require.ErrorIs(t, got, host)

	_, ok = AsException(context.Canceled)
	require.False(t, ok)

	got, ok = AsException("plain value")
	require.True(t, ok)
	require.Equal(t, "plain value", got.Data())
	require.Equal(t, "Exception: plain value", got.Error())
}

func TestArray(t *testing.T) {
	arr, err := NewArrayLen(types.Int32, 3)
	require.NoError(t, err)
	require.Equal(t, 3, arr.Len())
	v, err := arr.Get(1)
	require.NoError(t, err)
	require.Equal(t, int32(0), v)

	require.NoError(t, arr.Set(2, int32(7)))
	require.Equal(t, "[0, 0, 7]", arr.String())

	_, err = arr.Get(3)
	var exc *Exception
	require.ErrorAs(t, err, &exc)
	require.Equal(t, types.IndexOutOfRangeError, exc.Type())
	require.Error(t, arr.Set(-1, int32(0)))

	_, err = NewArrayLen(types.Int32, -1)
	require.Error(t, err)
}

func TestRuntimeVariables(t *testing.T) {
	own := []*Cell{NewCell("a"), NewCell("b")}
	inherited := []*Cell{NewCell("x"), NewCell("y")}
	view := NewRuntimeVariables(own, inherited, []int{1, -2, 0, -1})

	require.Equal(t, 4, view.Count())
	values := make([]any, view.Count())
	for i := range values {
		v, err := view.Get(i)
		require.NoError(t, err)
		values[i] = v
	}
	require.Equal(t, []any{"b", "y", "a", "x"}, values)

	require.NoError(t, view.Set(1, "changed"))
	require.Equal(t, "changed", inherited[1].Value())

	own[0].Set("live")
	v, err := view.Get(2)
	require.NoError(t, err)
	require.Equal(t, "live", v)

	_, err = view.Get(4)
	require.Error(t, err)
}
