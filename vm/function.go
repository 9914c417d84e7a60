package vm

import (
	"sync/atomic"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/lightc/bytecode"
)

// Function tracks the executable entry of one compiled function. It starts
// interpreted and is promoted once to a linked entry when its invocation
// count crosses the machine's tier threshold. Promotion runs in the
// background and is published with a single pointer swap; calls already
// running keep the entry they started with.
type Function struct {
	id        uuid.UUID
	fn        *bytecode.Function
	log       zerolog.Logger
	threshold int64
	count     atomic.Int64
	promoting atomic.Bool
	entry     atomic.Pointer[program]
	promoted  chan struct{}
}

func newFunction(fn *bytecode.Function, threshold int64, log zerolog.Logger) *Function {
	f := &Function{
		id:        uuid.Must(uuid.NewV4()),
		fn:        fn,
		threshold: threshold,
		promoted:  make(chan struct{}),
	}
	f.log = log.With().
		Str("function", fn.Name()).
		Str("function_id", f.id.String()).
		Logger()
	f.entry.Store(interpret(fn.Code()))
	return f
}

// ID returns the identity of this Function instance. It is stable for the
// lifetime of the Machine and is not part of the compiled artifact.
func (f *Function) ID() uuid.UUID { return f.id }

// Name returns the function name.
func (f *Function) Name() string { return f.fn.Name() }

// Code returns the compiled artifact.
func (f *Function) Code() *bytecode.Code { return f.fn.Code() }

// Tier returns the tier of the currently published entry.
func (f *Function) Tier() Tier { return f.entry.Load().tier }

// Count returns the weighted invocation count.
func (f *Function) Count() int64 { return f.count.Load() }

// Promoted returns a channel that is closed once the linked entry has been
// published.
func (f *Function) Promoted() <-chan struct{} { return f.promoted }

// record adds weight to the invocation count and starts promotion the first
// time the threshold is crossed.
func (f *Function) record(weight int64) {
	if f.threshold <= 0 {
		return
	}
	if f.count.Add(weight) < f.threshold {
		return
	}
	if !f.promoting.CompareAndSwap(false, true) {
		return
	}
	go f.promote()
}

func (f *Function) promote() {
	linked := link(f.fn.Code())
	f.entry.Store(linked)
	close(f.promoted)
	f.log.Debug().
		Int64("count", f.count.Load()).
		Stringer("tier", linked.tier).
		Msg("function promoted")
}

// loopWeight is the count contributed by one loop back-edge. Longer loop
// bodies weigh more.
func loopWeight(hint int32) int64 {
	if hint < 0 {
		hint = 0
	}
	return 1 + int64(hint)/8
}
