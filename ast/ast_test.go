package ast

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/lightc/types"
	"github.com/stretchr/testify/require"
)

func TestConstantTypeInference(t *testing.T) {
	tests := []struct {
		value any
		want  *types.Type
	}{
		{true, types.Bool},
		{int32(1), types.Int32},
		{int64(1), types.Int64},
		{1, types.Int64},
		{uint8(1), types.Uint8},
		{1.5, types.Float64},
		{float32(1.5), types.Float32},
		{"hi", types.String},
		{nil, types.Object},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NewConstant(tt.value).Type(), "%v", tt.value)
	}
}

func TestNodeTypes(t *testing.T) {
	a := NewVariable("a", types.Int32)
	b := NewVariable("b", types.Int32)

	require.Equal(t, types.Int32, (&Binary{Op: Add, Left: a, Right: b}).Type())
	require.Equal(t, types.Bool, (&Binary{Op: LessThan, Left: a, Right: b}).Type())
	require.Equal(t, types.Bool, (&Binary{Op: AndAlso, Left: NewConstant(true), Right: NewConstant(false)}).Type())
	require.Equal(t, types.Int32, NewBlock(nil, a).Type())
	require.Equal(t, types.Void, NewBlock(nil).Type())
	require.Equal(t, types.Void, (&Conditional{Test: NewConstant(true), IfTrue: a}).Type())
	require.Equal(t, types.Int32, (&ArrayLength{Array: &NewArray{Elem: types.Int32}}).Type())
	require.Equal(t, types.Int32, (&Index{Array: &NewArray{Elem: types.Int32}, Index: NewConstant(int32(0))}).Type())
	require.Equal(t, types.Void, (&Loop{Body: Empty()}).Type())
	require.True(t, IsEmpty(Empty()))
	require.False(t, IsEmpty(&Default{T: types.Int32}))
}

func TestLambdaReturns(t *testing.T) {
	x := NewVariable("x", types.Int64)
	fn := &Lambda{Name: "id", Params: []*Variable{x}, Body: x}
	require.Equal(t, types.Int64, fn.Returns())
	require.Equal(t, types.Func, fn.Type())
	require.Equal(t, "id(x int64) int64 { x }", fn.String())

	fn.ReturnType = types.Void
	require.Equal(t, types.Void, fn.Returns())
}

func TestFuncHandle(t *testing.T) {
	double := NewFunc("double", []Param{{Name: "n", Type: types.Int64}}, types.Int64,
		func(ctx context.Context, receiver any, args []any) (any, error) {
			return args[0].(int64) * 2, nil
		})
	require.Equal(t, "double", double.Name())
	require.Equal(t, types.Int64, double.ReturnType())
	require.False(t, double.Mutates())
	require.True(t, double.WithMutates().Mutates())
	require.False(t, double.Mutates())

	result, err := double.Invoke(context.Background(), nil, []any{int64(21)})
	require.NoError(t, err)
	require.Equal(t, int64(42), result)

	params := double.Params()
	params[0].Name = "changed"
	require.Equal(t, "n", double.Params()[0].Name)

	_, err = NewFunc("empty", nil, nil, nil).Invoke(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestFieldHandle(t *testing.T) {
	type point struct{ X int32 }
	field := NewField("X", types.Int32, FieldImpl{
		Get: func(obj any) (any, error) { return obj.(*point).X, nil },
		Set: func(obj any, v any) error { obj.(*point).X = v.(int32); return nil },
	})
	p := &point{X: 3}
	v, err := field.Get(p)
	require.NoError(t, err)
	require.Equal(t, int32(3), v)
	require.NoError(t, field.Set(p, int32(9)))
	require.Equal(t, int32(9), p.X)
	require.False(t, field.IsStatic())

	readOnly := NewStaticField("Max", types.Int32, FieldImpl{
		Get: func(any) (any, error) { return int32(100), nil },
	})
	require.True(t, readOnly.IsStatic())
	require.Error(t, readOnly.Set(nil, int32(1)))
}

func TestStrings(t *testing.T) {
	x := NewVariable("x", types.Int32)
	brk := NewLabelTarget("done")
	tree := &Try{
		Body: &Loop{
			Body:  &Goto{Kind: GotoBreak, Target: brk},
			Break: brk,
		},
		Handlers: []*CatchBlock{{Test: types.Exception, Variable: x, Body: Empty()}},
	}
	require.Equal(t, "try { loop { break done } } catch (Exception x) { default(void) }", tree.String())
	require.Equal(t, "rethrow", (&Throw{}).String())
	require.Equal(t, "#line main.lc:1:2-3:4",
		(&DebugInfo{File: "main.lc", StartLine: 1, StartColumn: 2, EndLine: 3, EndColumn: 4}).String())
}
