package compiler

import (
	"github.com/rs/zerolog"
)

// DefaultMaxLocals is the default limit on local slots per function.
const DefaultMaxLocals = 1 << 16

// DefaultMaxConstants is the default limit on constants per function.
const DefaultMaxConstants = 1 << 20

// Option configures a compilation.
type Option func(*config)

type config struct {
	logger       zerolog.Logger
	verify       bool
	maxLocals    int
	maxConstants int
	name         string
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:       zerolog.Nop(),
		verify:       true,
		maxLocals:    DefaultMaxLocals,
		maxConstants: DefaultMaxConstants,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger used for compilation events.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithVerify enables or disables verification of the finished artifact.
// Verification is on by default.
func WithVerify(enabled bool) Option {
	return func(cfg *config) {
		cfg.verify = enabled
	}
}

// WithMaxLocals limits the number of local slots a function may use.
func WithMaxLocals(n int) Option {
	return func(cfg *config) {
		cfg.maxLocals = n
	}
}

// WithMaxConstants limits the number of constants a function may use.
func WithMaxConstants(n int) Option {
	return func(cfg *config) {
		cfg.maxConstants = n
	}
}

// WithName names the top-level function when the lambda has no name.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}
