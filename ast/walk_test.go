package ast

import (
	"fmt"
	"testing"

	"github.com/deepnoodle-ai/lightc/types"
	"github.com/stretchr/testify/require"
)

func TestWalk(t *testing.T) {
	a := NewVariable("a", types.Int64)
	tree := NewBlock([]*Variable{a},
		&Assign{Target: a, Value: NewConstant(int64(1))},
		&Conditional{
			Test:    &Binary{Op: LessThan, Left: a, Right: NewConstant(int64(10))},
			IfTrue:  a,
			IfFalse: NewConstant(int64(0)),
		},
	)

	var visited []string
	Inspect(tree, func(n Node) bool {
		switch node := n.(type) {
		case *Block:
			visited = append(visited, "Block")
		case *Assign:
			visited = append(visited, "Assign")
		case *Conditional:
			visited = append(visited, "Conditional")
		case *Binary:
			visited = append(visited, "Binary:"+node.Op.String())
		case *Variable:
			visited = append(visited, "Var:"+node.Name)
		case *Constant:
			visited = append(visited, fmt.Sprintf("Const:%v", node.Value))
		}
		return true
	})

	require.Equal(t, []string{
		"Block", "Assign", "Var:a", "Const:1",
		"Conditional", "Binary:<", "Var:a", "Const:10", "Var:a", "Const:0",
	}, visited)
}

func TestInspectSkipsChildren(t *testing.T) {
	inner := NewVariable("inner", types.Int32)
	tree := NewBlock(nil,
		&Lambda{Params: []*Variable{inner}, Body: inner},
		NewConstant(int32(1)),
	)
	var count int
	Inspect(tree, func(n Node) bool {
		count++
		_, isLambda := n.(*Lambda)
		return !isLambda
	})
	// Block, Lambda, Constant
	require.Equal(t, 3, count)
}

func TestPreorderStopsEarly(t *testing.T) {
	tree := NewBlock(nil, NewConstant(1), NewConstant(2), NewConstant(3))
	var seen int
	for n := range Preorder(tree) {
		if _, ok := n.(*Constant); ok {
			seen++
			break
		}
	}
	require.Equal(t, 1, seen)
}

func TestWalkTry(t *testing.T) {
	e := NewVariable("e", types.Exception)
	tree := &Try{
		Body:     NewConstant(int32(1)),
		Handlers: []*CatchBlock{{Test: types.Exception, Variable: e, Body: NewConstant(int32(2))}},
		Finally:  &Throw{Value: e},
	}
	var kinds []string
	Inspect(tree, func(n Node) bool {
		kinds = append(kinds, fmt.Sprintf("%T", n))
		return true
	})
	require.Equal(t, []string{"*ast.Try", "*ast.Constant", "*ast.Constant", "*ast.Throw", "*ast.Variable"}, kinds)
}
