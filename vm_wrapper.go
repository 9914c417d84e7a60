package lightc

import (
	"context"

	"github.com/deepnoodle-ai/lightc/vm"
)

// VM provides stateful execution. Unlike Run, which creates a fresh
// interpreter on each call, a VM keeps tiering state across calls so that
// hot functions are promoted and stay promoted.
type VM struct {
	machine *vm.Machine
}

// NewVM creates a new VM with the given options.
func NewVM(opts ...Option) *VM {
	o := collectOptions(opts...)
	return &VM{machine: vm.New(o.vmOpts()...)}
}

// Run calls the program's top-level function with args.
func (v *VM) Run(ctx context.Context, program *Program, args ...any) (any, error) {
	return v.machine.Call(ctx, program.fn, args...)
}

// Tier returns the tier the program's top-level function currently
// executes through on this VM.
func (v *VM) Tier(program *Program) vm.Tier {
	return v.machine.Function(program.fn).Tier()
}

// InternalVM returns the underlying vm.Machine.
func (v *VM) InternalVM() *vm.Machine {
	return v.machine
}
