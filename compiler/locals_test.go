package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/types"
)

func TestLocalSlotsReused(t *testing.T) {
	locals := NewLocalVariables()
	a := ast.NewVariable("a", types.Int32)
	b := ast.NewVariable("b", types.Int32)
	c := ast.NewVariable("c", types.Int32)

	defA := locals.DefineLocal(a, 0)
	defB := locals.DefineLocal(b, 1)
	require.Equal(t, 0, defA.Index)
	require.Equal(t, 1, defB.Index)
	locals.UndefineLocal(defB, 4)

	defC := locals.DefineLocal(c, 4)
	require.Equal(t, 1, defC.Index)
	locals.UndefineLocal(defC, 6)
	locals.UndefineLocal(defA, 7)

	require.Equal(t, 0, locals.LocalCount())
	require.Equal(t, 2, locals.MaxLocalCount())
	infos := locals.Infos()
	require.Len(t, infos, 3)
	require.Equal(t, "b", infos[0].Name)
	require.Equal(t, 1, infos[0].Start)
	require.Equal(t, 4, infos[0].End)
	require.Equal(t, "a", infos[2].Name)
}

func TestLocalShadowing(t *testing.T) {
	locals := NewLocalVariables()
	v := ast.NewVariable("v", types.Int32)
	outer := locals.DefineLocal(v, 0)
	inner := locals.DefineLocal(v, 1)

	r, ok := locals.TryGetLocalOrClosure(v)
	require.True(t, ok)
	require.Equal(t, Resolution{Scope: Slot, Index: inner.Index}, r)

	locals.UndefineLocal(inner, 2)
	r, ok = locals.TryGetLocalOrClosure(v)
	require.True(t, ok)
	require.Equal(t, outer.Index, r.Index)
}

func TestLocalsReleasedInOrder(t *testing.T) {
	locals := NewLocalVariables()
	a := locals.DefineLocal(ast.NewVariable("a", types.Int32), 0)
	locals.DefineLocal(ast.NewVariable("b", types.Int32), 0)
	require.Panics(t, func() { locals.UndefineLocal(a, 1) })
}

func TestBoxAfterUsePanics(t *testing.T) {
	locals := NewLocalVariables()
	v := ast.NewVariable("v", types.Int32)
	locals.DefineLocal(v, 0)
	_, ok := locals.TryGetLocalOrClosure(v)
	require.True(t, ok)
	require.Panics(t, func() { locals.Box(v) })
}

func TestBoxedResolution(t *testing.T) {
	locals := NewLocalVariables()
	v := ast.NewVariable("v", types.Int32)
	locals.DefineLocal(v, 0)
	locals.Box(v)
	r, ok := locals.TryGetLocalOrClosure(v)
	require.True(t, ok)
	require.Equal(t, Boxed, r.Scope)
}

func TestClosureVariables(t *testing.T) {
	locals := NewLocalVariables()
	x := ast.NewVariable("x", types.Int32)
	y := ast.NewVariable("y", types.Int32)
	require.Equal(t, 0, locals.AddClosureVariable(x))
	require.Equal(t, 1, locals.AddClosureVariable(y))
	require.Equal(t, 0, locals.AddClosureVariable(x))
	require.Equal(t, []*ast.Variable{x, y}, locals.ClosureVariables())

	r, ok := locals.TryGetLocalOrClosure(y)
	require.True(t, ok)
	require.Equal(t, Resolution{Scope: Closure, Index: 1}, r)
}
