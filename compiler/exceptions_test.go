package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

func TestTryCatch(t *testing.T) {
	e := ast.NewVariable("e", types.Exception)
	code := mustCompile(t, &ast.Lambda{
		Name: "guarded",
		Body: &ast.Try{
			Body: &ast.Call{Callable: risky},
			Handlers: []*ast.CatchBlock{{
				Test:     types.Exception,
				Variable: e,
				Body:     &ast.Call{Callable: handle, Args: []ast.Node{e}},
			}},
		},
	})
	require.Equal(t, []op.Code{
		op.Call,       // 0: risky()
		op.Jump,       // 1: -> end
		op.StoreLocal, // 2: handler entry, bind e
		op.LoadLocal,  // 3
		op.Call,       // 4: handle(e)
		op.Jump,       // 5: -> end
		op.Return,     // 6: end
	}, opcodes(code))
	require.Equal(t, int32(5), code.InstructionAt(1).A)
	require.Equal(t, int32(1), code.InstructionAt(5).A)

	require.Equal(t, 1, code.HandlerCount())
	h := code.HandlerAt(0)
	require.Equal(t, bytecode.ExceptionHandler{
		Kind:          bytecode.CatchHandler,
		ExceptionType: types.Exception,
		TryStart:      0,
		TryEnd:        2,
		Label:         0,
		HandlerStart:  2,
		HandlerEnd:    6,
	}, h)
	label := code.LabelAt(h.Label)
	require.Equal(t, 2, label.Index)
	require.Equal(t, 0, label.StackDepth)

	// The instruction after the entry store begins the catch body.
	require.Equal(t, op.LoadLocal, code.InstructionAt(h.HandlerStart+1).Op)

	for _, exc := range []*types.Type{types.Exception, types.ArgumentError} {
		found, index, ok := code.FindHandler(0, exc)
		require.True(t, ok)
		require.Equal(t, 0, index)
		require.Equal(t, h, found)
	}
	_, _, ok := code.FindHandler(3, types.Exception)
	require.False(t, ok)
}

func TestTryCatchFinallyWithValue(t *testing.T) {
	code := mustCompile(t, &ast.Lambda{
		Name: "attempt",
		Body: &ast.Try{
			Body: &ast.Call{Callable: riskyInt},
			Handlers: []*ast.CatchBlock{{
				Test: types.ArgumentError,
				Body: ast.NewConstant(int32(7)),
			}},
			Finally: &ast.Call{Callable: cleanup},
		},
	})
	require.Equal(t, []op.Code{
		op.Call,         // 0: riskyInt()
		op.StoreLocal,   // 1: $result
		op.Jump,         // 2: -> exit
		op.Pop,          // 3: catch entry
		op.LoadConst,    // 4: 7
		op.StoreLocal,   // 5: $result
		op.Jump,         // 6: -> exit
		op.EnterFinally, // 7: exit
		op.Call,         // 8: cleanup()
		op.EndFinally,   // 9
		op.LoadLocal,    // 10: $result
		op.Return,       // 11
	}, opcodes(code))
	require.Equal(t, int32(5), code.InstructionAt(2).A)
	require.Equal(t, int32(1), code.InstructionAt(6).A)
	require.Equal(t, int32(1), code.InstructionAt(11).A)

	require.Equal(t, 2, code.HandlerCount())
	catch, finally := code.HandlerAt(0), code.HandlerAt(1)
	require.Equal(t, bytecode.CatchHandler, catch.Kind)
	require.Equal(t, [4]int{0, 3, 3, 7}, [4]int{catch.TryStart, catch.TryEnd, catch.HandlerStart, catch.HandlerEnd})
	require.Equal(t, bytecode.FinallyHandler, finally.Kind)
	require.Nil(t, finally.ExceptionType)
	require.Equal(t, [4]int{0, 7, 8, 10}, [4]int{finally.TryStart, finally.TryEnd, finally.HandlerStart, finally.HandlerEnd})
	require.Equal(t, finally.HandlerStart, code.LabelAt(finally.Label).Index)

	// The catch wins inside the body; only the finally covers the catch.
	_, index, ok := code.FindHandler(0, types.ArgumentError)
	require.True(t, ok)
	require.Equal(t, 0, index)
	_, index, ok = code.FindHandler(0, types.DivideByZeroError)
	require.True(t, ok)
	require.Equal(t, 1, index)
	_, index, ok = code.FindHandler(4, types.ArgumentError)
	require.True(t, ok)
	require.Equal(t, 1, index)

	require.Equal(t, 1, code.LocalCount())
	require.Equal(t, "$result", code.LocalInfoAt(0).Name)
}

func TestLeaveThroughFinally(t *testing.T) {
	done := ast.NewLabelTarget("done")
	code := mustCompile(t, &ast.Lambda{
		Body: ast.NewBlock(nil,
			&ast.Try{
				Body:    &ast.Goto{Target: done},
				Finally: &ast.Call{Callable: cleanup},
			},
			&ast.Label{Target: done},
		),
	})
	require.Equal(t, []op.Code{
		op.Leave,        // 0: goto done
		op.Jump,         // 1: -> exit
		op.EnterFinally, // 2
		op.Call,         // 3: cleanup()
		op.EndFinally,   // 4
		op.Return,       // 5: done
	}, opcodes(code))
	require.Equal(t, int32(0), code.InstructionAt(0).A)
	require.Equal(t, 2, code.LabelCount())
	done0 := code.LabelAt(0)
	require.Equal(t, 5, done0.Index)
	require.Equal(t, 0, done0.StackDepth)
	require.False(t, done0.HasValue)

	finally := code.HandlerAt(0)
	require.Equal(t, bytecode.FinallyHandler, finally.Kind)
	require.Equal(t, 0, finally.TryStart)
	require.Equal(t, 2, finally.TryEnd)
	require.Equal(t, 3, finally.HandlerStart)
	require.Equal(t, 3, code.LabelAt(finally.Label).Index)
	require.Equal(t, 0, done0.ContinuationDepth)
}

func TestRethrowOnlyCatchBecomesFault(t *testing.T) {
	code := mustCompile(t, &ast.Lambda{
		Body: &ast.Try{
			Body: &ast.Call{Callable: risky},
			Handlers: []*ast.CatchBlock{{
				Test: types.Exception,
				Body: ast.NewBlock(nil, &ast.DebugInfo{File: "f.lc", StartLine: 3}, &ast.Throw{}),
			}},
		},
	})
	require.Equal(t, []op.Code{op.Call, op.Jump, op.EndFault, op.Return}, opcodes(code))
	require.Equal(t, 1, code.HandlerCount())
	fault := code.HandlerAt(0)
	require.Equal(t, bytecode.FaultHandler, fault.Kind)
	require.Equal(t, 0, fault.TryStart)
	require.Equal(t, 2, fault.TryEnd)
	require.Equal(t, 2, fault.HandlerStart)
	require.Equal(t, 3, fault.HandlerEnd)
}

func TestRethrowUsesHiddenSlot(t *testing.T) {
	e := ast.NewVariable("e", types.ArgumentError)
	code := mustCompile(t, &ast.Lambda{
		Body: &ast.Try{
			Body: &ast.Call{Callable: risky},
			Handlers: []*ast.CatchBlock{{
				Test:     types.ArgumentError,
				Variable: e,
				Body: ast.NewBlock(nil,
					&ast.Call{Callable: handle, Args: []ast.Node{e}},
					&ast.Throw{},
				),
			}},
		},
	})
	require.Equal(t, []op.Code{
		op.Call,       // 0
		op.Jump,       // 1
		op.Dup,        // 2: entry
		op.StoreLocal, // 3: $exception
		op.StoreLocal, // 4: e
		op.LoadLocal,  // 5
		op.Call,       // 6
		op.Rethrow,    // 7
		op.Jump,       // 8
		op.Return,     // 9
	}, opcodes(code))
	require.Equal(t, int32(1), code.InstructionAt(3).A)
	require.Equal(t, int32(0), code.InstructionAt(4).A)
	require.Equal(t, int32(1), code.InstructionAt(7).A)
}

func TestFaultBlock(t *testing.T) {
	code := mustCompile(t, &ast.Lambda{
		Body: &ast.Try{
			Body:  &ast.Call{Callable: risky},
			Fault: &ast.Call{Callable: cleanup},
		},
	})
	require.Equal(t, []op.Code{op.Call, op.Jump, op.Call, op.EndFault, op.Return}, opcodes(code))
	require.Equal(t, bytecode.FaultHandler, code.HandlerAt(0).Kind)
}

func TestNestedTryOrdering(t *testing.T) {
	code := mustCompile(t, &ast.Lambda{
		Body: &ast.Try{
			Body: &ast.Try{
				Body:     &ast.Call{Callable: risky},
				Handlers: []*ast.CatchBlock{{Test: types.ArgumentError, Body: ast.Empty()}},
			},
			Handlers: []*ast.CatchBlock{{Test: types.Exception, Body: ast.Empty()}},
		},
	})
	require.Equal(t, 2, code.HandlerCount())
	inner, outer := code.HandlerAt(0), code.HandlerAt(1)
	require.Equal(t, types.ArgumentError, inner.ExceptionType)
	require.Equal(t, types.Exception, outer.ExceptionType)

	_, index, ok := code.FindHandler(0, types.ArgumentError)
	require.True(t, ok)
	require.Equal(t, 0, index)
	_, index, ok = code.FindHandler(0, types.OverflowError)
	require.True(t, ok)
	require.Equal(t, 1, index)
	require.NoError(t, bytecode.Verify(code))
}

func TestExceptionErrors(t *testing.T) {
	e := ast.NewVariable("e", types.Exception)
	tests := []struct {
		name string
		body ast.Node
		code errors.ErrorCode
	}{
		{"rethrow outside catch", &ast.Throw{}, errors.E2006},
		{"rethrow in finally", &ast.Try{
			Body: ast.Empty(),
			Handlers: []*ast.CatchBlock{{Test: types.Exception, Variable: e, Body: &ast.Try{
				Body:    ast.Empty(),
				Finally: &ast.Throw{},
			}}},
		}, errors.E2006},
		{"finally and fault", &ast.Try{Body: ast.Empty(), Finally: ast.Empty(), Fault: ast.Empty()}, errors.E2004},
		{"no handlers", &ast.Try{Body: ast.Empty()}, errors.E2004},
		{"return in finally", &ast.Try{Body: ast.Empty(), Finally: &ast.Return{}}, errors.E2012},
		{"catch non-exception", &ast.Try{
			Body:     ast.Empty(),
			Handlers: []*ast.CatchBlock{{Test: types.String, Body: ast.Empty()}},
		}, errors.E2001},
		{"throw int", &ast.Throw{Value: ast.NewConstant(int32(1))}, errors.E2001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&ast.Lambda{Body: tt.body})
			var compileErr *errors.CompileError
			require.ErrorAs(t, err, &compileErr)
			require.Equal(t, tt.code, compileErr.Code)
		})
	}
}

func TestGotoOutOfFinally(t *testing.T) {
	out := ast.NewLabelTarget("out")
	_, err := Compile(&ast.Lambda{
		Body: ast.NewBlock(nil,
			&ast.Try{
				Body:    ast.Empty(),
				Finally: &ast.Goto{Target: out},
			},
			&ast.Label{Target: out},
		),
	})
	var compileErr *errors.CompileError
	require.ErrorAs(t, err, &compileErr)
	require.Equal(t, errors.E2012, compileErr.Code)
}

func TestThrowTerminatesPath(t *testing.T) {
	code := mustCompile(t, &ast.Lambda{
		ReturnType: types.Int32,
		Body: ast.NewBlock(nil,
			&ast.Throw{Value: &ast.New{Constructor: ast.NewFunc("ArgumentError", nil, types.ArgumentError, nil)}},
		),
	})
	// Falling off a void body into a valued return yields the zero value,
	// but nothing follows a throw.
	require.Equal(t, []op.Code{op.New, op.Throw}, opcodes(code))
}
