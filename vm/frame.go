package vm

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/object"
)

const (
	// DefaultFrameLocals is the number of local variables that can be stored
	// directly in the frame's fixed storage array, avoiding heap allocation.
	DefaultFrameLocals = 8
)

type continuationKind uint8

const (
	fallThrough continuationKind = iota
	pendingJump
	pendingReturn
	pendingException
)

// continuation is the work deferred while a finally block runs.
type continuation struct {
	kind     continuationKind
	label    int
	value    any
	hasValue bool
	exc      *object.Exception
}

// Frame is the activation record of one call. Frames are owned by the
// goroutine executing the call; observers may inspect a frame only during
// a callback.
type Frame struct {
	fn      *Function
	closure *object.Closure
	prog    *program
	ip      int
	depth   int
	stack   []any
	storage [DefaultFrameLocals]any
	locals  []any
	pending []continuation
}

func newFrame(fn *Function, closure *object.Closure, prog *program, args []any, depth int) *Frame {
	code := prog.code
	f := &Frame{
		fn:      fn,
		closure: closure,
		prog:    prog,
		depth:   depth,
		stack:   make([]any, 0, code.MaxStackDepth()),
	}
	if n := code.LocalCount(); n > DefaultFrameLocals {
		f.locals = make([]any, n)
	} else {
		f.locals = f.storage[:n]
	}
	copy(f.locals, args)
	return f
}

// Function returns the function executing in this frame.
func (f *Frame) Function() *Function { return f.fn }

// IP returns the index of the current instruction.
func (f *Frame) IP() int { return f.ip }

// Depth returns the call depth of the frame, starting at 1.
func (f *Frame) Depth() int { return f.depth }

// Location returns the source location of the current instruction, or the
// zero location when none is recorded.
func (f *Frame) Location() errors.SourceLocation {
	d, ok := f.prog.code.DebugInfoAt(f.ip)
	if !ok {
		return errors.SourceLocation{}
	}
	return errors.SourceLocation{
		Filename:  d.FileName,
		Line:      d.StartLine,
		Column:    d.StartColumn,
		EndLine:   d.EndLine,
		EndColumn: d.EndColumn,
	}
}

// Snapshot returns the variables visible at the current instruction by
// name: live locals, with boxed locals read through their cells, and
// captured variables. Compiler temporaries are omitted.
func (f *Frame) Snapshot() map[string]any {
	code := f.prog.code
	vars := map[string]any{}
	for i, cell := range f.closure.Cells() {
		vars[code.ClosureCellAt(i)] = cell.Value()
	}
	for _, info := range code.LocalsAt(f.ip) {
		if strings.HasPrefix(info.Name, "$") || info.Index >= len(f.locals) {
			continue
		}
		v := f.locals[info.Index]
		if info.Boxed {
			if cell, ok := v.(*object.Cell); ok {
				v = cell.Value()
			}
		}
		vars[info.Name] = v
	}
	return vars
}

func (f *Frame) stackFrame() errors.StackFrame {
	return errors.StackFrame{
		Function: f.fn.Name(),
		IP:       f.ip,
		Location: f.Location(),
	}
}

func (f *Frame) push(v any) {
	f.stack = append(f.stack, v)
}

func (f *Frame) pop() any {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack[n] = nil
	f.stack = f.stack[:n]
	return v
}

func (f *Frame) peek() any {
	return f.stack[len(f.stack)-1]
}

// popN removes the top n values and returns them in push order.
func (f *Frame) popN(n int) []any {
	start := len(f.stack) - n
	values := make([]any, n)
	copy(values, f.stack[start:])
	f.truncate(start)
	return values
}

func (f *Frame) truncate(depth int) {
	if depth < 0 {
		depth = 0
	}
	for i := depth; i < len(f.stack); i++ {
		f.stack[i] = nil
	}
	if depth < len(f.stack) {
		f.stack = f.stack[:depth]
	}
}

func (f *Frame) truncatePending(depth int) {
	if depth < len(f.pending) {
		f.pending = f.pending[:depth]
	}
}

func (f *Frame) popPending() (continuation, bool) {
	n := len(f.pending)
	if n == 0 {
		return continuation{}, false
	}
	c := f.pending[n-1]
	f.pending = f.pending[:n-1]
	return c, true
}

func (f *Frame) cell(slot int32) (*object.Cell, error) {
	cell, ok := f.locals[slot].(*object.Cell)
	if !ok {
		return nil, fmt.Errorf("%w: local %d of %s is not boxed", ErrInvalidCode, slot, f.fn.Name())
	}
	return cell, nil
}
