package bytecode

import (
	"fmt"

	"github.com/deepnoodle-ai/lightc/types"
)

// HandlerKind distinguishes the three kinds of exception handler.
type HandlerKind uint8

const (
	CatchHandler HandlerKind = iota
	FaultHandler
	FinallyHandler
)

func (k HandlerKind) String() string {
	switch k {
	case CatchHandler:
		return "catch"
	case FaultHandler:
		return "fault"
	case FinallyHandler:
		return "finally"
	}
	return fmt.Sprintf("handler(%d)", k)
}

// ExceptionHandler describes one protected region [TryStart, TryEnd) and
// the handler that runs when an exception escapes it. Label is the index of
// the runtime label at the handler entry, which carries the stack depth the
// interpreter restores before running the handler.
type ExceptionHandler struct {
	Kind          HandlerKind
	ExceptionType *types.Type // nil for fault and finally handlers
	TryStart      int
	TryEnd        int
	Label         int
	HandlerStart  int
	HandlerEnd    int
}

// Covers reports whether ip lies inside the protected region.
func (h ExceptionHandler) Covers(ip int) bool {
	return ip >= h.TryStart && ip < h.TryEnd
}

// Matches reports whether the handler accepts an exception of the given
// runtime type. Fault and finally handlers accept everything.
func (h ExceptionHandler) Matches(excType *types.Type) bool {
	if h.Kind != CatchHandler || h.ExceptionType == nil {
		return true
	}
	return h.ExceptionType.AssignableFrom(excType)
}

// IsBetterThan orders candidate handlers covering the same instruction.
// A nested region beats the region enclosing it; among handlers for the
// same region the one declared first wins. Partially overlapping regions
// are never better than each other. Every handler is better than nil.
func (h *ExceptionHandler) IsBetterThan(other *ExceptionHandler) bool {
	if other == nil {
		return true
	}
	if h.TryStart == other.TryStart && h.TryEnd == other.TryEnd {
		return h.HandlerStart < other.HandlerStart
	}
	return h.TryStart >= other.TryStart && h.TryEnd <= other.TryEnd
}

func (h ExceptionHandler) String() string {
	if h.Kind == CatchHandler && h.ExceptionType != nil {
		return fmt.Sprintf("%s(%s) [%d, %d) -> %d..%d", h.Kind, h.ExceptionType, h.TryStart, h.TryEnd, h.HandlerStart, h.HandlerEnd)
	}
	return fmt.Sprintf("%s [%d, %d) -> %d..%d", h.Kind, h.TryStart, h.TryEnd, h.HandlerStart, h.HandlerEnd)
}

// RuntimeLabel is a resolved branch target. StackDepth is the operand
// stack depth at the target and ContinuationDepth the number of pending
// finally continuations. HasValue marks labels that receive a value.
type RuntimeLabel struct {
	Index             int
	StackDepth        int
	ContinuationDepth int
	HasValue          bool
}

func (l RuntimeLabel) String() string {
	s := fmt.Sprintf("-> %d [stack %d, cont %d]", l.Index, l.StackDepth, l.ContinuationDepth)
	if l.HasValue {
		s += " value"
	}
	return s
}
