package errors

import (
	"fmt"
	"strings"
)

// RuntimeError reports an exception that escaped every frame, or a fault
// in the interpreter itself.
type RuntimeError struct {
	Code          ErrorCode
	ExceptionType string
	Message       string
	Location      SourceLocation
	Stack         []StackFrame
	Cause         error
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	if e.ExceptionType != "" {
		fmt.Fprintf(&b, "%s: %s", e.ExceptionType, e.Message)
	} else {
		b.WriteString(e.Message)
	}
	if !e.Location.IsZero() {
		fmt.Fprintf(&b, " (%s)", e.Location)
	}
	return b.String()
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// FriendlyErrorMessage returns the message followed by the stack trace.
func (e *RuntimeError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *RuntimeError) ToFormatted() *FormattedError {
	msg := e.Message
	if e.ExceptionType != "" {
		msg = e.ExceptionType + ": " + msg
	}
	return &FormattedError{
		Code:     e.Code,
		Kind:     "runtime error",
		Message:  msg,
		Filename: e.Location.Filename,
		Line:     e.Location.Line,
		Column:   e.Location.Column,
		Stack:    e.Stack,
	}
}

// StackTrace returns the formatted stack trace.
func (e *RuntimeError) StackTrace() string {
	return FormatStackTrace(e.Stack)
}
