package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

func TestLabelPatching(t *testing.T) {
	c := newTestCompiler(t)
	l := c.MakeLabel()
	require.Equal(t, -1, l.TargetIndex())
	require.Equal(t, -1, l.StackDepth())

	c.emit(op.Nop)
	c.emitBranch(op.Jump, l)
	c.reachable = true
	c.emit(op.Nop)
	c.emitBranch(op.Jump, l)
	c.Mark(l)

	require.Equal(t, 4, l.TargetIndex())
	require.Equal(t, 0, l.StackDepth())
	require.Equal(t, int32(3), c.instructions[1].A)
	require.Equal(t, int32(1), c.instructions[3].A)

	// Branches added after the label is marked are patched immediately.
	c.emitBranch(op.Jump, l)
	require.Equal(t, int32(0), c.instructions[4].A)
}

func TestMarkAdoptsPresetDepthWhenUnreachable(t *testing.T) {
	c := newTestCompiler(t)
	l := c.makeLabelAt(1, true)
	c.reachable = false
	c.Mark(l)
	require.Equal(t, 1, c.depth)
	require.True(t, c.reachable)
}

func TestLabelDepthMismatchPanics(t *testing.T) {
	c := newTestCompiler(t)
	l := c.makeLabelAt(0, false)
	c.emit(op.True)
	require.Panics(t, func() { c.Mark(l) })
}

func TestRuntimeLabelsAllocatedLazily(t *testing.T) {
	c := newTestCompiler(t)
	a, b := c.MakeLabel(), c.MakeLabel()
	require.Equal(t, 0, c.runtimeLabel(b))
	require.Equal(t, 1, c.runtimeLabel(a))
	require.Equal(t, 0, c.runtimeLabel(b))
	c.Mark(a)
	c.emit(op.Nop)
	c.Mark(b)
	labels := c.resolveLabels()
	require.Len(t, labels, 2)
	require.Equal(t, 1, labels[0].Index)
	require.Equal(t, 0, labels[1].Index)
}

func TestGotoWithValue(t *testing.T) {
	result := &ast.LabelTarget{Name: "result", T: types.Int32}
	code := mustCompile(t, &ast.Lambda{
		Name: "early",
		Body: ast.NewBlock(nil,
			&ast.Goto{Target: result, Value: ast.NewConstant(int32(3))},
			&ast.Label{Target: result, Default: ast.NewConstant(int32(9))},
		),
	})
	require.Equal(t, []op.Code{
		op.LoadConst, // 0: 3
		op.Jump,      // 1: -> result
		op.LoadConst, // 2: 9
		op.Return,    // 3: result
	}, opcodes(code))
	require.Equal(t, int32(2), code.InstructionAt(1).A)
	require.Equal(t, 1, code.MaxStackDepth())
}

func TestGotoBackward(t *testing.T) {
	top := ast.NewLabelTarget("top")
	flag := ast.NewVariable("flag", types.Bool)
	code := mustCompile(t, &ast.Lambda{
		Params: []*ast.Variable{flag},
		Body: ast.NewBlock(nil,
			&ast.Label{Target: top},
			&ast.Call{Callable: risky},
			&ast.Conditional{Test: flag, IfTrue: &ast.Goto{Target: top}},
		),
	})
	require.Equal(t, []op.Code{op.Call, op.LoadLocal, op.JumpIfFalse, op.Jump, op.Return}, opcodes(code))
	require.Equal(t, int32(-3), code.InstructionAt(3).A)
}

func TestDuplicateLabels(t *testing.T) {
	target := ast.NewLabelTarget("twice")
	label := &ast.Label{Target: target}
	tests := []struct {
		name string
		body ast.Node
	}{
		{"distinct nodes", ast.NewBlock(nil, &ast.Label{Target: target}, &ast.Label{Target: target})},
		{"same node", ast.NewBlock(nil, label, label)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&ast.Lambda{Body: tt.body})
			var compileErr *errors.CompileError
			require.ErrorAs(t, err, &compileErr)
			require.Equal(t, errors.E2013, compileErr.Code)
		})
	}
}

func TestLoopLabels(t *testing.T) {
	i := ast.NewVariable("i", types.Int32)
	brk, cont := ast.NewLabelTarget("break"), ast.NewLabelTarget("continue")
	loop := func() *ast.Loop {
		return &ast.Loop{
			Break:    brk,
			Continue: cont,
			Body: &ast.Conditional{
				Test:    &ast.Binary{Op: ast.GreaterThan, Left: i, Right: ast.NewConstant(int32(10))},
				IfTrue:  &ast.Goto{Kind: ast.GotoBreak, Target: brk},
				IfFalse: &ast.Goto{Kind: ast.GotoContinue, Target: cont},
			},
		}
	}
	code := mustCompile(t, &ast.Lambda{
		Params: []*ast.Variable{i},
		Body:   ast.NewBlock(nil, loop(), loop()),
	})
	var ordinals []int32
	for ip := 0; ip < code.InstructionCount(); ip++ {
		if instr := code.InstructionAt(ip); instr.Op == op.LoopEntry {
			ordinals = append(ordinals, instr.A)
		}
	}
	require.Equal(t, []int32{0, 1}, ordinals)
	require.Equal(t, 2, code.LoopCount())
}

func TestContinueCannotCarryValue(t *testing.T) {
	_, err := Compile(&ast.Lambda{Body: &ast.Loop{
		Body:     ast.Empty(),
		Break:    ast.NewLabelTarget("break"),
		Continue: &ast.LabelTarget{Name: "continue", T: types.Int32},
	}})
	var compileErr *errors.CompileError
	require.ErrorAs(t, err, &compileErr)
	require.Equal(t, errors.E2001, compileErr.Code)
}

func TestDebugInfo(t *testing.T) {
	line := func(n int) *ast.DebugInfo {
		return &ast.DebugInfo{File: "main.lc", StartLine: n, StartColumn: 1, EndLine: n, EndColumn: 20}
	}
	code := mustCompile(t, &ast.Lambda{
		Body: ast.NewBlock(nil,
			line(1),
			&ast.Call{Callable: risky},
			&ast.Call{Callable: risky},
			line(2),
			line(3),
			&ast.Call{Callable: risky},
			ast.ClearDebugInfo("main.lc"),
		),
	})
	require.Equal(t, 3, code.DebugInfoCount())
	require.Equal(t, 0, code.DebugInfoAtIndex(0).Index)
	require.Equal(t, 1, code.DebugInfoAtIndex(0).StartLine)
	require.Equal(t, 2, code.DebugInfoAtIndex(1).Index)
	require.Equal(t, 3, code.DebugInfoAtIndex(1).StartLine)
	require.True(t, code.DebugInfoAtIndex(2).IsClear)

	info, ok := code.DebugInfoAt(1)
	require.True(t, ok)
	require.Equal(t, 1, info.StartLine)
	info, ok = code.DebugInfoAt(2)
	require.True(t, ok)
	require.Equal(t, "main.lc:3:1", info.Location())
	_, ok = code.DebugInfoAt(3)
	require.False(t, ok)
}

func TestErrorLocationFromDebugInfo(t *testing.T) {
	_, err := Compile(&ast.Lambda{
		Name: "located",
		Body: ast.NewBlock(nil,
			&ast.DebugInfo{File: "main.lc", StartLine: 7, StartColumn: 3, EndLine: 7, EndColumn: 10},
			&ast.Throw{},
		),
	})
	var compileErr *errors.CompileError
	require.ErrorAs(t, err, &compileErr)
	require.Equal(t, errors.E2006, compileErr.Code)
	require.Equal(t, "located", compileErr.Function)
	require.Equal(t, "main.lc", compileErr.Location.Filename)
	require.Equal(t, 7, compileErr.Location.Line)
	require.Equal(t, 3, compileErr.Location.Column)
}
