package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

func TestNewCodeImmutability(t *testing.T) {
	instructions := []Instruction{{Op: op.LoadConst}, {Op: op.Return, A: 1}}
	constants := []any{int64(42), "hello"}
	handlers := []ExceptionHandler{{TryStart: 0, TryEnd: 1}}
	cells := []string{"n"}

	code := NewCode(CodeParams{
		Name:         "test",
		Instructions: instructions,
		Constants:    constants,
		Handlers:     handlers,
		ClosureCells: cells,
		LocalCount:   2,
	})

	instructions[0] = Instruction{Op: op.Nil}
	constants[0] = 99
	handlers[0] = ExceptionHandler{TryStart: 999}
	cells[0] = "changed"

	require.Equal(t, op.LoadConst, code.InstructionAt(0).Op)
	require.Equal(t, int64(42), code.ConstantAt(0))
	require.Equal(t, 0, code.HandlerAt(0).TryStart)
	require.Equal(t, "n", code.ClosureCellAt(0))
}

func TestCodeAccessors(t *testing.T) {
	code := NewCode(CodeParams{
		Name:          "add",
		Params:        []Param{{Name: "a", Type: types.Int32}, {Name: "b", Type: types.Int32}},
		ReturnType:    types.Int32,
		Instructions:  []Instruction{{Op: op.LoadLocal, A: 0}, {Op: op.Return, A: 1}},
		LocalCount:    2,
		MaxStackDepth: 2,
		Unsupported:   []string{"by-ref argument"},
	})
	require.Equal(t, "add", code.Name())
	require.Equal(t, 2, code.ParamCount())
	require.Equal(t, "b", code.ParamAt(1).Name)
	require.False(t, code.ReturnsVoid())
	require.Equal(t, 2, code.LocalCount())
	require.Equal(t, 2, code.MaxStackDepth())
	require.True(t, code.RequiresFullCompile())
	require.Equal(t, "by-ref argument", code.UnsupportedAt(0))

	require.True(t, NewCode(CodeParams{}).ReturnsVoid())
	require.False(t, NewCode(CodeParams{}).RequiresFullCompile())
}

func TestInstructionString(t *testing.T) {
	require.Equal(t, "POP", Instruction{Op: op.Pop}.String())
	require.Equal(t, "JUMP -3", Instruction{Op: op.Jump, A: -3}.String())
	require.Equal(t, "BINARY_OP 1 4", Instruction{Op: op.BinaryOp, A: 1, B: 4}.String())
}

func TestSwitchTableLookup(t *testing.T) {
	table := NewSwitchTable([]SwitchCase{{Value: -5, Offset: 2}, {Value: 1, Offset: 4}, {Value: 9, Offset: 6}})
	offset, ok := table.Lookup(1)
	require.True(t, ok)
	require.Equal(t, int32(4), offset)
	offset, ok = table.Lookup(-5)
	require.True(t, ok)
	require.Equal(t, int32(2), offset)
	_, ok = table.Lookup(2)
	require.False(t, ok)
	require.Equal(t, 3, table.CaseCount())
}

func TestSwitchTableSortsCases(t *testing.T) {
	table := NewSwitchTable([]SwitchCase{{Value: 10, Offset: 2}, {Value: 1, Offset: 4}, {Value: 5, Offset: 6}, {Value: 1, Offset: 8}})
	require.Equal(t, 3, table.CaseCount())
	for value, want := range map[int64]int32{10: 2, 1: 4, 5: 6} {
		offset, ok := table.Lookup(value)
		require.True(t, ok, "case %d", value)
		require.Equal(t, want, offset, "case %d", value)
	}
	require.Equal(t, int64(1), table.CaseAt(0).Value)
}

func TestFunction(t *testing.T) {
	code := NewCode(CodeParams{
		Name:       "inc",
		Params:     []Param{{Name: "x", Type: types.Int64}},
		ReturnType: types.Int64,
	})
	fn := NewFunction(FunctionParams{ID: 3, Name: "inc", Code: code})
	require.Equal(t, 3, fn.ID())
	require.Equal(t, 1, fn.ParameterCount())
	require.Equal(t, "func inc(x int64) int64", fn.String())

	outer := NewCode(CodeParams{Constants: []any{int64(1), fn}})
	require.Equal(t, []*Function{fn}, outer.Functions())
	require.Len(t, outer.Flatten(), 2)
	require.Equal(t, 1, outer.Stats().FunctionCount)
}

func TestLocalsAt(t *testing.T) {
	code := NewCode(CodeParams{
		Locals: []LocalInfo{
			{Name: "a", Index: 0, Start: 0, End: 4},
			{Name: "b", Index: 1, Start: 2, End: 3},
		},
	})
	require.Len(t, code.LocalsAt(0), 1)
	require.Len(t, code.LocalsAt(2), 2)
	require.Len(t, code.LocalsAt(4), 0)
}
