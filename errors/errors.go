// Package errors defines error types with source locations and stack traces.
package errors

import (
	"fmt"
	"strings"
)

// SourceLocation represents a position in source code, as recorded by the
// debug markers of a tree.
type SourceLocation struct {
	Filename  string
	Line      int // 1-based line number
	Column    int // 1-based column number
	EndLine   int
	EndColumn int
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string
	IP       int
	Location SourceLocation
}

// String returns a formatted string representation of the stack frame.
func (f StackFrame) String() string {
	name := f.Function
	if name == "" {
		name = "<lambda>"
	}
	if f.Location.IsZero() {
		return fmt.Sprintf("at %s (ip %d)", name, f.IP)
	}
	return fmt.Sprintf("at %s (%s)", name, f.Location.String())
}

// FormatStackTrace formats a slice of stack frames as a human-readable string.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace:\n")
	for _, frame := range frames {
		b.WriteString("  ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}

// FriendlyError is an interface for errors that have a human friendly message
// in addition to a the lower level default error message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// FormattableError is an interface for errors that can be formatted with
// the enhanced error formatter (with colors, source context, etc).
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}

// InternalError reports a violated compiler invariant. It is raised with
// panic and indicates a bug, never a problem with the input tree.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal compiler error: " + e.Message
}

// Internalf panics with an InternalError.
func Internalf(format string, args ...any) {
	panic(&InternalError{Message: fmt.Sprintf(format, args...)})
}
