package vm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/object"
	"github.com/deepnoodle-ai/lightc/types"
)

func TestClosureSharesCapturedLocal(t *testing.T) {
	n := ast.NewVariable("n", types.Int32)
	inc := ast.NewVariable("inc", types.Func)
	lambda := &ast.Lambda{
		Name: "counter",
		Body: ast.NewBlock([]*ast.Variable{n, inc},
			&ast.Assign{Target: inc, Value: &ast.Lambda{
				Name: "inc",
				Body: &ast.Assign{Target: n, Value: &ast.Binary{Op: ast.Add, Left: n, Right: i32(1)}},
			}},
			&ast.Invoke{Target: inc, T: types.Int32},
			&ast.Invoke{Target: inc, T: types.Int32},
			&ast.Assign{Target: n, Value: &ast.Binary{Op: ast.Multiply, Left: n, Right: i32(10)}},
			&ast.Invoke{Target: inc, T: types.Int32},
			n,
		),
	}
	require.Equal(t, int32(21), run(t, lambda))
}

func TestClosureOutlivesFrame(t *testing.T) {
	x := ast.NewVariable("x", types.String)
	outer := &ast.Lambda{
		Name:   "makeGetter",
		Params: []*ast.Variable{x},
		Body:   &ast.Lambda{Name: "get", Body: x},
	}
	m := New()
	result, err := m.Call(context.Background(), compile(t, outer), "captured")
	require.NoError(t, err)
	closure, ok := result.(*object.Closure)
	require.True(t, ok)
	require.Equal(t, "get", closure.Name())
	require.Len(t, closure.Cells(), 1)

	value, err := m.CallClosure(context.Background(), closure)
	require.NoError(t, err)
	require.Equal(t, "captured", value)
}

func TestNestedCaptureThroughIntermediate(t *testing.T) {
	n := ast.NewVariable("n", types.Int64)
	innermost := &ast.Lambda{Name: "innermost", Body: &ast.Binary{Op: ast.Add, Left: n, Right: ast.NewConstant(1)}}
	middle := &ast.Lambda{Name: "middle", Body: &ast.Invoke{Target: innermost, T: types.Int64}}
	outer := &ast.Lambda{
		Name:   "outer",
		Params: []*ast.Variable{n},
		Body:   &ast.Invoke{Target: middle, T: types.Int64},
	}
	require.Equal(t, int64(42), run(t, outer, int64(41)))
}

func TestFreshCellPerIteration(t *testing.T) {
	i := ast.NewVariable("i", types.Int32)
	v := ast.NewVariable("v", types.Int32)
	fns := ast.NewVariable("fns", types.ArrayOf(types.Func))
	brk := ast.NewLabelTarget("break")
	first := &ast.Index{Array: fns, Index: i32(0)}
	lambda := &ast.Lambda{
		Body: ast.NewBlock([]*ast.Variable{i, fns},
			&ast.Assign{Target: fns, Value: &ast.NewArrayBounds{Elem: types.Func, Length: i32(2)}},
			&ast.Loop{
				Break: brk,
				Body: &ast.Conditional{
					Test: &ast.Binary{Op: ast.LessThan, Left: i, Right: i32(2)},
					IfTrue: ast.NewBlock([]*ast.Variable{v},
						&ast.Assign{Target: v, Value: &ast.Binary{Op: ast.Multiply, Left: i, Right: i32(100)}},
						&ast.Assign{Target: &ast.Index{Array: fns, Index: i}, Value: &ast.Lambda{Body: v}},
						&ast.Assign{Target: i, Value: &ast.Binary{Op: ast.Add, Left: i, Right: i32(1)}},
					),
					IfFalse: &ast.Goto{Kind: ast.GotoBreak, Target: brk},
					T:       types.Void,
				},
			},
			&ast.Binary{
				Op:    ast.Add,
				Left:  &ast.Invoke{Target: first, T: types.Int32},
				Right: &ast.Invoke{Target: &ast.Index{Array: fns, Index: i32(1)}, T: types.Int32},
			},
		),
	}
	require.Equal(t, int32(100), run(t, lambda))
}

func TestRuntimeVariablesView(t *testing.T) {
	a := ast.NewVariable("a", types.Int32)
	b := ast.NewVariable("b", types.String)
	set := ast.NewFunc("set", []ast.Param{
		{Name: "vars", Type: types.RuntimeVariables},
		{Name: "i", Type: types.Int32},
		{Name: "v", Type: types.Object},
	}, types.Void, func(_ context.Context, _ any, args []any) (any, error) {
		view := args[0].(*object.RuntimeVariables)
		return nil, view.Set(int(args[1].(int32)), args[2])
	})
	pair := ast.NewFunc("pair", []ast.Param{
		{Name: "a", Type: types.Int32},
		{Name: "b", Type: types.String},
	}, types.String, func(_ context.Context, _ any, args []any) (any, error) {
		return fmt.Sprintf("%s=%d", args[1], args[0]), nil
	})
	vars := &ast.RuntimeVariables{Variables: []*ast.Variable{a, b}}
	lambda := &ast.Lambda{
		Params: []*ast.Variable{b},
		Body: ast.NewBlock([]*ast.Variable{a},
			&ast.Call{Callable: set, Args: []ast.Node{vars, i32(0), i32(7)}},
			&ast.Call{Callable: set, Args: []ast.Node{vars, i32(1), ast.NewConstant("changed")}},
			&ast.Call{Callable: pair, Args: []ast.Node{a, b}},
		),
	}
	require.Equal(t, "changed=7", run(t, lambda, "start"))
}

func TestRuntimeVariablesInherited(t *testing.T) {
	outerVar := ast.NewVariable("outer", types.Int64)
	read := ast.NewFunc("read", []ast.Param{{Name: "vars", Type: types.RuntimeVariables}}, types.Object,
		func(_ context.Context, _ any, args []any) (any, error) {
			return args[0].(*object.RuntimeVariables).Get(0)
		})
	inner := &ast.Lambda{
		Name: "inner",
		Body: &ast.Call{Callable: read, Args: []ast.Node{
			&ast.RuntimeVariables{Variables: []*ast.Variable{outerVar}},
		}},
	}
	lambda := &ast.Lambda{
		Params: []*ast.Variable{outerVar},
		Body:   &ast.Invoke{Target: inner, T: types.Object},
	}
	require.Equal(t, int64(9), run(t, lambda, int64(9)))
}
