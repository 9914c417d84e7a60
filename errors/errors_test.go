package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceLocation_String(t *testing.T) {
	tests := []struct {
		name     string
		loc      SourceLocation
		expected string
	}{
		{"with filename", SourceLocation{Filename: "main.lc", Line: 10, Column: 5}, "main.lc:10:5"},
		{"without filename", SourceLocation{Line: 10, Column: 5}, "10:5"},
		{"zero location", SourceLocation{}, "0:0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.loc.String())
		})
	}
	require.True(t, SourceLocation{}.IsZero())
	require.False(t, SourceLocation{Line: 1}.IsZero())
}

func TestStackFrame_String(t *testing.T) {
	require.Equal(t, "at main (main.lc:3:1)",
		StackFrame{Function: "main", Location: SourceLocation{Filename: "main.lc", Line: 3, Column: 1}}.String())
	require.Equal(t, "at <lambda> (ip 7)", StackFrame{IP: 7}.String())
}

func TestFormatStackTrace(t *testing.T) {
	require.Equal(t, "", FormatStackTrace(nil))
	trace := FormatStackTrace([]StackFrame{
		{Function: "inner", IP: 2},
		{Function: "outer", Location: SourceLocation{Line: 4, Column: 2}},
	})
	require.Equal(t, "Stack trace:\n  at inner (ip 2)\n  at outer (4:2)\n", trace)
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, "unsupported construct", E2011.Description())
	require.Equal(t, "duplicate label", E2013.Description())
	require.Equal(t, "unknown error", ErrorCode("E9999").Description())
	require.Equal(t, "decode", E1003.Category())
	require.Equal(t, "compile", E2012.Category())
	require.Equal(t, "runtime", E3006.Category())
	require.Equal(t, "unknown", ErrorCode("X").Category())
	require.Equal(t, "E3002", E3002.String())
}

func TestCompileError(t *testing.T) {
	err := &CompileError{
		Code:     E2001,
		Message:  "operands of + have types int32 and int64",
		Location: SourceLocation{Filename: "a.lc", Line: 2, Column: 4},
		Node:     "(a + b)",
	}
	require.Equal(t, "compile error: operands of + have types int32 and int64 (a.lc:2:4)", err.Error())

	msg := err.FriendlyErrorMessage()
	require.Contains(t, msg, "compile error[E2001]: operands of +")
	require.Contains(t, msg, "--> a.lc:2:4")
	require.Contains(t, msg, "| (a + b)")

	plain := CompileErrorf(E2003, "label %q is not defined", "done")
	require.Equal(t, `compile error: label "done" is not defined`, plain.Error())
}

func TestNotSupportedError(t *testing.T) {
	err := NotSupportedf("catch filter", "filters are not translated")
	require.Equal(t, "not supported: catch filter: filters are not translated", err.Error())
	require.True(t, stderrors.Is(err, ErrNotSupported))
	require.True(t, IsNotSupported(fmt.Errorf("compiling main: %w", err)))
	require.False(t, IsNotSupported(CompileErrorf(E2001, "x")))
	require.Contains(t, err.FriendlyErrorMessage(), "[E2011]")
}

func TestInternalErrorPanics(t *testing.T) {
	defer func() {
		r := recover()
		ie, ok := r.(*InternalError)
		require.True(t, ok)
		require.Equal(t, "internal compiler error: label marked twice", ie.Error())
	}()
	Internalf("label marked %s", "twice")
}

func TestRuntimeError(t *testing.T) {
	cause := stderrors.New("boom")
	err := &RuntimeError{
		Code:          E3008,
		ExceptionType: "ArgumentError",
		Message:       "bad input",
		Location:      SourceLocation{Filename: "x.lc", Line: 1, Column: 2},
		Stack:         []StackFrame{{Function: "f", IP: 3}},
		Cause:         cause,
	}
	require.Equal(t, "ArgumentError: bad input (x.lc:1:2)", err.Error())
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.StackTrace(), "at f (ip 3)")
	msg := err.FriendlyErrorMessage()
	require.Contains(t, msg, "runtime error[E3008]: ArgumentError: bad input")
	require.Contains(t, msg, "stack trace:")
}

func TestSuggestSimilar(t *testing.T) {
	candidates := []string{"print", "concat", "strlen", "sqrt", "itoa"}
	s := SuggestSimilar("prnt", candidates)
	require.Len(t, s, 1)
	require.Equal(t, "print", s[0].Value)

	require.Empty(t, SuggestSimilar("zzzzzzzz", candidates))
	require.Empty(t, SuggestSimilar("", candidates))
	require.Empty(t, SuggestSimilar("print", candidates))

	many := SuggestSimilar("aaaa", []string{"aaab", "aaac", "aaad", "aaae"})
	require.Len(t, many, MaxSuggestions)
}

func TestFormatSuggestions(t *testing.T) {
	require.Equal(t, "", FormatSuggestions(nil))
	require.Equal(t, "did you mean 'print'?", FormatSuggestions([]Suggestion{{Value: "print"}}))
	require.Equal(t, "did you mean one of: 'a', 'b'?",
		FormatSuggestions([]Suggestion{{Value: "a"}, {Value: "b"}}))
}

func TestEditDistance(t *testing.T) {
	require.Equal(t, 0, editDistance("abc", "abc"))
	require.Equal(t, 3, editDistance("", "abc"))
	require.Equal(t, 1, editDistance("kitten", "sitten"))
	require.Equal(t, 3, editDistance("kitten", "sitting"))
}

func TestFormatter_FormatMultiple(t *testing.T) {
	f := NewFormatter(false)
	out := f.FormatMultiple([]*FormattedError{
		{Kind: "compile error", Message: "first"},
		{Kind: "compile error", Message: "second"},
	})
	require.Contains(t, out, "compile error[1/2]: first")
	require.Contains(t, out, "compile error[2/2]: second")
	require.True(t, strings.HasSuffix(out, "found 2 errors\n"))
	require.Equal(t, "", f.FormatMultiple(nil))
}

func TestFormatter_FormatWithColor(t *testing.T) {
	out := NewFormatter(true).Format(&FormattedError{Kind: "error", Message: "boom", Hint: "try again"})
	require.Contains(t, out, "\x1b[")
	require.Contains(t, out, "boom")
	require.Contains(t, out, "try again")
}
