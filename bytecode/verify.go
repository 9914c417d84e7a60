package bytecode

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/lightc/op"
)

// Verify checks the structural invariants of code and its nested
// functions: every branch lands inside the instruction stream, every label
// is resolved, handler ranges are well formed and debug entries are sorted.
// All violations are returned together.
func Verify(code *Code) error {
	var result *multierror.Error
	for _, c := range code.Flatten() {
		for _, err := range verifyCode(c) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func verifyCode(c *Code) []error {
	var errs []error
	fail := func(format string, args ...any) {
		name := c.name
		if name == "" {
			name = "<lambda>"
		}
		errs = append(errs, fmt.Errorf("%s: "+format, append([]any{name}, args...)...))
	}
	n := len(c.instructions)
	inRange := func(target int) bool { return target >= 0 && target < n }

	for ip, instr := range c.instructions {
		switch instr.Op {
		case op.Jump, op.JumpIfFalse, op.JumpIfTrue:
			if target := ip + int(instr.A); !inRange(target) {
				fail("branch at %d targets %d outside [0, %d)", ip, target, n)
			}
		case op.Leave:
			if int(instr.A) < 0 || int(instr.A) >= len(c.labels) {
				fail("leave at %d references unknown label %d", ip, instr.A)
			}
		case op.Switch:
			table, ok := constantAt[*SwitchTable](c, instr.A)
			if !ok {
				fail("switch at %d has no jump table", ip)
				continue
			}
			for i := 0; i < table.CaseCount(); i++ {
				if target := ip + int(table.CaseAt(i).Offset); !inRange(target) {
					fail("switch case at %d targets %d outside [0, %d)", ip, target, n)
				}
			}
		case op.Invalid:
			fail("invalid opcode at %d", ip)
		}
	}

	for i, label := range c.labels {
		if !inRange(label.Index) {
			fail("label %d is unresolved or out of range (%d)", i, label.Index)
		}
		if label.StackDepth < 0 || label.StackDepth > c.maxStackDepth {
			fail("label %d has stack depth %d outside [0, %d]", i, label.StackDepth, c.maxStackDepth)
		}
	}

	for i, h := range c.handlers {
		if h.TryStart < 0 || h.TryStart > h.TryEnd || h.TryEnd > n {
			fail("handler %d has malformed protected range [%d, %d)", i, h.TryStart, h.TryEnd)
		}
		if h.HandlerStart < h.TryEnd || h.HandlerStart > h.HandlerEnd || h.HandlerEnd > n {
			fail("handler %d has malformed handler range %d..%d", i, h.HandlerStart, h.HandlerEnd)
		}
		if h.Label < 0 || h.Label >= len(c.labels) {
			fail("handler %d references unknown label %d", i, h.Label)
		} else if c.labels[h.Label].Index != h.HandlerStart {
			fail("handler %d label resolves to %d, not handler start %d", i, c.labels[h.Label].Index, h.HandlerStart)
		}
		if h.Kind == CatchHandler && h.ExceptionType == nil {
			fail("catch handler %d has no exception type", i)
		}
	}

	for i := 1; i < len(c.debugInfos); i++ {
		if c.debugInfos[i].Index < c.debugInfos[i-1].Index {
			fail("debug info %d is out of order", i)
		}
	}
	return errs
}

func constantAt[T any](c *Code, index int32) (T, bool) {
	var zero T
	if index < 0 || int(index) >= len(c.constants) {
		return zero, false
	}
	v, ok := c.constants[index].(T)
	return v, ok
}
