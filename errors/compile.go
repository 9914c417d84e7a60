package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrNotSupported is matched by every NotSupportedError.
var ErrNotSupported = stderrors.New("construct not supported")

// CompileError represents an error in the input tree.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Function    string
	Node        string
	Location    SourceLocation
	Suggestions []Suggestion
	Note        string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile error: ")
	b.WriteString(e.Message)
	if !e.Location.IsZero() {
		fmt.Fprintf(&b, " (%s)", e.Location)
	}
	return b.String()
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *CompileError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:     e.Code,
		Kind:     "compile error",
		Message:  e.Message,
		Filename: e.Location.Filename,
		Line:     e.Location.Line,
		Column:   e.Location.Column,
		Note:     e.Note,
	}
	if e.Node != "" {
		fe.Context = e.Node
	}
	if len(e.Suggestions) > 0 {
		fe.Hint = FormatSuggestions(e.Suggestions)
	}
	return fe
}

// CompileErrorf returns a CompileError with a formatted message.
func CompileErrorf(code ErrorCode, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotSupportedError reports a construct the compiler cannot translate.
// Callers may fall back to another execution strategy.
type NotSupportedError struct {
	Construct string
	Message   string
	Function  string
	Location  SourceLocation
}

func (e *NotSupportedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "not supported: %s", e.Construct)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if !e.Location.IsZero() {
		fmt.Fprintf(&b, " (%s)", e.Location)
	}
	return b.String()
}

// Is reports whether target is ErrNotSupported.
func (e *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *NotSupportedError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *NotSupportedError) ToFormatted() *FormattedError {
	return &FormattedError{
		Code:     E2011,
		Kind:     "compile error",
		Message:  strings.TrimPrefix(e.Error(), "not supported: "),
		Filename: e.Location.Filename,
		Line:     e.Location.Line,
		Column:   e.Location.Column,
		Note:     "the construct has no interpreter translation",
	}
}

// NotSupportedf returns a NotSupportedError for construct.
func NotSupportedf(construct, format string, args ...any) *NotSupportedError {
	return &NotSupportedError{Construct: construct, Message: fmt.Sprintf(format, args...)}
}

// IsNotSupported reports whether err or any error it wraps is a
// NotSupportedError.
func IsNotSupported(err error) bool {
	return stderrors.Is(err, ErrNotSupported)
}
