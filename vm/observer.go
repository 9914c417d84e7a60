package vm

import (
	"github.com/gofrs/uuid"

	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/object"
	"github.com/deepnoodle-ai/lightc/op"
)

// StepMode controls when OnStep callbacks are triggered.
type StepMode uint8

const (
	// StepAll calls OnStep for every instruction.
	// Use for: detailed tracing, instruction-level debugging.
	StepAll StepMode = iota

	// StepNone never calls OnStep.
	// Use for: profilers that only need Call/Return events.
	StepNone

	// StepSampled calls OnStep every N instructions.
	// Use for: statistical CPU profiling.
	StepSampled

	// StepOnLine calls OnStep when the source location changes.
	// Use for: coverage tools, line-level debugging.
	StepOnLine
)

// ObserverConfig specifies what events an observer wants to receive.
// Use NewObserverConfig() to create configs with safe defaults.
type ObserverConfig struct {
	// StepMode controls OnStep callback frequency.
	StepMode StepMode

	// SampleInterval is the number of instructions between OnStep calls
	// when StepMode is StepSampled. Values <= 0 are treated as 1.
	SampleInterval int

	// ObserveCalls enables OnCall callbacks.
	ObserveCalls bool

	// ObserveReturns enables OnReturn callbacks.
	ObserveReturns bool

	// ObserveExceptions enables OnException callbacks.
	ObserveExceptions bool
}

// NewObserverConfig creates a config with safe defaults. Call, return and
// exception events are enabled.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:          mode,
		SampleInterval:    1000,
		ObserveCalls:      true,
		ObserveReturns:    true,
		ObserveExceptions: true,
	}
}

// NormalizeConfig validates and clamps config values.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	if cfg.StepMode == StepSampled && cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer receives execution events from a Machine. Implementations can
// embed NoOpObserver and override only the methods they need.
//
// Observer methods are called synchronously on the executing goroutine.
// Returning false from any method halts execution with ErrHalted.
type Observer interface {
	// Config returns the observer's configuration. Called once when the
	// observer is attached.
	Config() ObserverConfig

	OnStep(event StepEvent) bool
	OnCall(event CallEvent) bool
	OnReturn(event ReturnEvent) bool

	// OnException is called when an exception is raised in a frame, before
	// a handler is searched for.
	OnException(event ExceptionEvent) bool
}

// StepEvent describes the instruction about to execute.
type StepEvent struct {
	FunctionID uuid.UUID
	Function   string
	IP         int
	Opcode     op.Code
	OpcodeName string
	Location   errors.SourceLocation
	StackDepth int
	FrameDepth int

	// Frame is valid only for the duration of the callback.
	Frame *Frame
}

// CallEvent describes a function entry.
type CallEvent struct {
	FunctionID uuid.UUID
	Function   string
	ArgCount   int
	Tier       Tier
	FrameDepth int
}

// ReturnEvent describes a function exit. Err is set when the function
// exited with an exception.
type ReturnEvent struct {
	FunctionID uuid.UUID
	Function   string
	Location   errors.SourceLocation
	FrameDepth int
	Err        error
}

// ExceptionEvent describes a raised exception.
type ExceptionEvent struct {
	FunctionID uuid.UUID
	Function   string
	IP         int
	Exception  *object.Exception
	Location   errors.SourceLocation
	FrameDepth int
}

// NoOpObserver is an Observer implementation that does nothing.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool           { return true }
func (NoOpObserver) OnCall(CallEvent) bool           { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool       { return true }
func (NoOpObserver) OnException(ExceptionEvent) bool { return true }

var _ Observer = NoOpObserver{}
