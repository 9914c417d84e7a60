package astjson

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/lightc/errors"
)

// DecodeError reports one problem found while decoding a tree. Path
// locates the offending node, e.g. "body.exprs[2].left".
type DecodeError struct {
	Code        errors.ErrorCode
	Path        string
	Message     string
	Suggestions []errors.Suggestion
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode error: ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if hint := errors.FormatSuggestions(e.Suggestions); hint != "" {
		b.WriteString(" (")
		b.WriteString(hint)
		b.WriteString(")")
	}
	return b.String()
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *DecodeError) FriendlyErrorMessage() string {
	return errors.NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *DecodeError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:    e.Code,
		Kind:    "decode error",
		Message: e.Message,
		Context: e.Path,
		Hint:    errors.FormatSuggestions(e.Suggestions),
	}
}

// DecodeErrors returns the individual decode errors wrapped in err.
func DecodeErrors(err error) []*DecodeError {
	var merr *multierror.Error
	if stderrors.As(err, &merr) {
		var result []*DecodeError
		for _, e := range merr.WrappedErrors() {
			result = append(result, DecodeErrors(e)...)
		}
		return result
	}
	var derr *DecodeError
	if stderrors.As(err, &derr) {
		return []*DecodeError{derr}
	}
	return nil
}

func formatErrors(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  * " + err.Error()
	}
	return fmt.Sprintf("%d decode errors:\n%s", len(errs), strings.Join(lines, "\n"))
}
