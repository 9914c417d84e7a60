package object

import (
	"context"
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/lightc/types"
)

// Exception is a thrown runtime value. Any value may be thrown; values that
// are not exceptions are wrapped so that handler matching always has a
// type to work with.
type Exception struct {
	typ     *types.Type
	message string
	data    any
	cause   error
}

// NewException returns an exception of type typ.
func NewException(typ *types.Type, message string) *Exception {
	return &Exception{typ: typ, message: message}
}

// Errorf returns an exception of type typ with a formatted message.
func Errorf(typ *types.Type, format string, args ...any) *Exception {
	return &Exception{typ: typ, message: fmt.Sprintf(format, args...)}
}

// WithData returns a copy of e carrying an arbitrary payload.
func (e *Exception) WithData(data any) *Exception {
	clone := *e
	clone.data = data
	return &clone
}

func (e *Exception) Type() *types.Type { return e.typ }
func (e *Exception) Message() string   { return e.message }
func (e *Exception) Data() any         { return e.data }

func (e *Exception) Error() string {
	return e.typ.Name() + ": " + e.message
}

func (e *Exception) Unwrap() error {
	return e.cause
}

// AsException converts a thrown value or a host error into an Exception.
// Exceptions pass through unchanged; context cancellation is not wrapped
// and reports false.
func AsException(v any) (*Exception, bool) {
	switch v := v.(type) {
	case *Exception:
		return v, true
	case error:
		if errors.Is(v, context.Canceled) || errors.Is(v, context.DeadlineExceeded) {
			return nil, false
		}
		var exc *Exception
		if errors.As(v, &exc) {
			return exc, true
		}
		return &Exception{typ: types.Exception, message: v.Error(), cause: v}, true
	case nil:
		return NewException(types.NullReferenceError, "null thrown"), true
	}
	if t := TypeOf(v); t != nil && t.Kind() == types.KindClass && types.Exception.AssignableFrom(t) {
		return &Exception{typ: t, message: fmt.Sprintf("%v", v), data: v}, true
	}
	return &Exception{typ: types.Exception, message: fmt.Sprintf("%v", v), data: v}, true
}
