package dis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/compiler"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

func noColor(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func compile(t *testing.T, lambda *ast.Lambda) *bytecode.Code {
	t.Helper()
	fn, err := compiler.Compile(lambda)
	require.NoError(t, err)
	return fn.Code()
}

func addLambda() *ast.Lambda {
	a := ast.NewVariable("a", types.Int32)
	b := ast.NewVariable("b", types.Int32)
	return &ast.Lambda{
		Name:   "add",
		Params: []*ast.Variable{a, b},
		Body:   &ast.Binary{Op: ast.Add, Left: a, Right: b},
	}
}

func TestFunctionDisassembly(t *testing.T) {
	noColor(t)
	instructions, err := Disassemble(compile(t, addLambda()))
	require.NoError(t, err)
	require.Len(t, instructions, 4)
	require.Equal(t, op.BinaryOp, instructions[2].Opcode)
	require.Equal(t, []int32{1, 4}, instructions[2].Operands)

	var buf bytes.Buffer
	Print(instructions, &buf)
	expected := strings.TrimSpace(`
+--------+------------+----------+---------+
| OFFSET |   OPCODE   | OPERANDS |  INFO   |
+--------+------------+----------+---------+
|      0 | LOAD_LOCAL |        0 | a       |
|      1 | LOAD_LOCAL |        1 | b       |
|      2 | BINARY_OP  |      1 4 | + int32 |
|      3 | RETURN     |        1 |         |
+--------+------------+----------+---------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestAnnotations(t *testing.T) {
	x := ast.NewVariable("x", types.Int32)
	brk := ast.NewLabelTarget("break")
	code := compile(t, &ast.Lambda{
		Name: "loop",
		Body: ast.NewBlock([]*ast.Variable{x},
			&ast.Loop{
				Break: brk,
				Body: &ast.Conditional{
					Test:    &ast.Binary{Op: ast.LessThan, Left: x, Right: ast.NewConstant(int32(3))},
					IfTrue:  &ast.Assign{Target: x, Value: &ast.Binary{Op: ast.Add, Left: x, Right: ast.NewConstant(int32(1))}},
					IfFalse: &ast.Goto{Kind: ast.GotoBreak, Target: brk},
					T:       types.Void,
				},
			},
			x,
		),
	})
	instructions, err := Disassemble(code)
	require.NoError(t, err)

	byOp := map[op.Code][]Instruction{}
	for _, instr := range instructions {
		byOp[instr.Opcode] = append(byOp[instr.Opcode], instr)
	}
	require.Equal(t, "< int32", byOp[op.CompareOp][0].Info)
	require.Equal(t, "loop 0", byOp[op.LoopEntry][0].Info)
	require.Equal(t, "x", byOp[op.StoreLocal][0].Info)
	for _, jump := range byOp[op.Jump] {
		require.True(t, strings.HasPrefix(jump.Info, "-> "), jump.Info)
	}
}

func TestPrintCodeTables(t *testing.T) {
	noColor(t)
	n := ast.NewVariable("n", types.Int32)
	risky := ast.NewFunc("risky", nil, types.Int32, nil)
	code := compile(t, &ast.Lambda{
		Name:   "outer",
		Params: []*ast.Variable{n},
		Body: ast.NewBlock(nil,
			&ast.DebugInfo{File: "main.lc", StartLine: 2, StartColumn: 3, EndLine: 2, EndColumn: 9},
			&ast.Try{
				Body:     &ast.Call{Callable: risky},
				Handlers: []*ast.CatchBlock{{Test: types.DivideByZeroError, Body: ast.NewConstant(int32(0))}},
			},
			&ast.Lambda{Name: "inner", Body: n},
		),
	})

	var buf bytes.Buffer
	require.NoError(t, PrintCode(code, &buf))
	out := buf.String()
	require.Contains(t, out, "func outer(n int32)")
	require.Contains(t, out, "func inner() int32")
	require.Contains(t, out, "| catch | DivideByZeroError |")
	require.Contains(t, out, "main.lc:2:3")
	require.Contains(t, out, "CREATE_CLOSURE")
	require.Contains(t, out, "func inner")
	require.Contains(t, out, "| CELL | CAPTURED |")
	require.Contains(t, out, "| 0    | n        |")
}

func TestRequiresFullCompileHeader(t *testing.T) {
	noColor(t)
	p := &ast.Variable{Name: "p", T: types.Int32, ByRef: true}
	code := compile(t, &ast.Lambda{Name: "byref", Params: []*ast.Variable{p}, Body: p})
	var buf bytes.Buffer
	require.NoError(t, PrintCode(code, &buf))
	require.Contains(t, buf.String(), "requires full compile: by-ref parameter p")
}

func TestDisassembleRejectsBadConstant(t *testing.T) {
	code := bytecode.NewCode(bytecode.CodeParams{
		Name:         "bad",
		Instructions: []bytecode.Instruction{{Op: op.LoadConst, A: 3}, {Op: op.Return, A: 1}},
		ReturnType:   types.Int32,
	})
	_, err := Disassemble(code)
	require.ErrorContains(t, err, "constant 3 out of range")
}
