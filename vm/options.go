package vm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/lightc/object"
)

// Option is a configuration function for a Machine.
type Option func(*Machine)

// FallbackFunc executes a closure whose code requires full compilation.
type FallbackFunc func(ctx context.Context, closure *object.Closure, args []any) (any, error)

// WithLogger sets the logger used for tiering and fallback events.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Machine) {
		m.log = log
	}
}

// WithObserver sets an observer for execution events. Returning false from
// any observer method halts execution.
func WithObserver(observer Observer) Option {
	return func(m *Machine) {
		m.observer = observer
	}
}

// WithContextCheckInterval sets how often, in instructions, a running call
// checks its context for cancellation. Zero disables the periodic check;
// the context is still checked on every call.
func WithContextCheckInterval(interval int) Option {
	return func(m *Machine) {
		m.contextCheckInterval = interval
	}
}

// WithMaxFrameDepth sets the call depth at which StackOverflowError is
// raised.
func WithMaxFrameDepth(depth int) Option {
	return func(m *Machine) {
		m.maxFrameDepth = depth
	}
}

// WithTierThreshold sets the weighted invocation count at which a function
// is promoted to the linked tier. Zero disables promotion.
func WithTierThreshold(threshold int64) Option {
	return func(m *Machine) {
		m.tierThreshold = threshold
	}
}

// WithFallback sets the entry used for functions that the interpreter must
// not execute.
func WithFallback(fallback FallbackFunc) Option {
	return func(m *Machine) {
		m.fallback = fallback
	}
}
