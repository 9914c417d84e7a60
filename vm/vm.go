// Package vm executes compiled artifacts.
//
// A Machine runs bytecode.Function values produced by the compiler. Each
// call owns its frame: an operand stack sized from the artifact, local
// slots and the continuations pending while finally blocks run. Machines
// are safe for concurrent use; concurrent calls share only the per
// function tiering state.
package vm

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/lightc/ast"
	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/errors"
	"github.com/deepnoodle-ai/lightc/object"
	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

const (
	// DefaultContextCheckInterval is the number of instructions between
	// context cancellation checks.
	DefaultContextCheckInterval = 1000

	// DefaultMaxFrameDepth is the call depth at which StackOverflowError is
	// raised.
	DefaultMaxFrameDepth = 1024

	// DefaultTierThreshold is the weighted invocation count that promotes a
	// function to the linked tier.
	DefaultTierThreshold = 1000
)

var (
	// ErrRequiresFullCompile is returned when a function whose artifact
	// requires full compilation is called and no fallback is configured.
	ErrRequiresFullCompile = stderrors.New("function requires full compilation")

	// ErrHalted is returned when an observer stops execution.
	ErrHalted = stderrors.New("execution halted by observer")

	// ErrInvalidCode is returned for artifacts the interpreter cannot
	// execute, such as code that was never verified.
	ErrInvalidCode = stderrors.New("invalid code")
)

// Machine executes compiled functions.
type Machine struct {
	log                  zerolog.Logger
	observer             Observer
	observerCfg          ObserverConfig
	contextCheckInterval int
	maxFrameDepth        int
	tierThreshold        int64
	fallback             FallbackFunc
	functions            sync.Map // *bytecode.Function -> *Function
}

// New returns a Machine configured with the given options.
func New(options ...Option) *Machine {
	m := &Machine{
		log:                  zerolog.Nop(),
		contextCheckInterval: DefaultContextCheckInterval,
		maxFrameDepth:        DefaultMaxFrameDepth,
		tierThreshold:        DefaultTierThreshold,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.observer != nil {
		m.observerCfg = NormalizeConfig(m.observer.Config())
	}
	return m
}

// Function returns the tiering state of fn on this machine, creating it on
// first use.
func (m *Machine) Function(fn *bytecode.Function) *Function {
	if f, ok := m.functions.Load(fn); ok {
		return f.(*Function)
	}
	f, _ := m.functions.LoadOrStore(fn, newFunction(fn, m.tierThreshold, m.log))
	return f.(*Function)
}

// Call runs a function that captures no variables.
func (m *Machine) Call(ctx context.Context, fn *bytecode.Function, args ...any) (any, error) {
	if n := fn.Code().ClosureCellCount(); n > 0 {
		return nil, fmt.Errorf("function %s captures %d variable(s); use CallClosure", fn.Name(), n)
	}
	return m.CallClosure(ctx, object.NewClosure(fn, nil), args...)
}

// CallClosure runs a closure. An exception that escapes the closure is
// returned as an *errors.RuntimeError carrying its location and stack
// trace.
func (m *Machine) CallClosure(ctx context.Context, closure *object.Closure, args ...any) (any, error) {
	t := &thread{m: m, ctx: ctx}
	result, err := t.call(closure, args)
	if err != nil {
		return nil, t.runtimeError(err)
	}
	return result, nil
}

// thread is the state of one top-level call and everything it calls.
type thread struct {
	m            *Machine
	ctx          context.Context
	depth        int
	steps        int64
	trace        []errors.StackFrame
	lastLocation errors.SourceLocation
}

func (t *thread) call(closure *object.Closure, args []any) (any, error) {
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	fn := t.m.Function(closure.Function())
	code := fn.Code()
	if code.RequiresFullCompile() {
		return t.callFallback(fn, closure, args)
	}
	if err := checkArgs(code, args); err != nil {
		return nil, err
	}
	if t.depth >= t.m.maxFrameDepth {
		return nil, object.Errorf(types.StackOverflowError, "call depth exceeded %d frames calling %s", t.m.maxFrameDepth, fn.Name())
	}
	fn.record(1)

	t.depth++
	defer func() { t.depth-- }()
	f := newFrame(fn, closure, fn.entry.Load(), args, t.depth)
	if err := t.notifyCall(f, len(args)); err != nil {
		return nil, err
	}
	result, err := t.run(f)
	if herr := t.notifyReturn(f, err); herr != nil {
		return nil, herr
	}
	return result, err
}

func (t *thread) callFallback(fn *Function, closure *object.Closure, args []any) (any, error) {
	code := fn.Code()
	construct := "unsupported construct"
	if code.UnsupportedCount() > 0 {
		construct = code.UnsupportedAt(0)
	}
	if t.m.fallback == nil {
		return nil, &errors.RuntimeError{
			Code:    errors.E3010,
			Message: fmt.Sprintf("%s cannot be interpreted: %s", fn.Name(), construct),
			Cause:   ErrRequiresFullCompile,
		}
	}
	fn.log.Debug().Str("construct", construct).Msg("calling fallback entry")
	return t.m.fallback(t.ctx, closure, args)
}

// run executes f until it returns or an exception escapes it.
func (t *thread) run(f *Frame) (any, error) {
	p := f.prog
	for {
		if f.ip < 0 || f.ip >= len(p.instructions) {
			return nil, t.fault(f, fmt.Errorf("%w: instruction pointer %d out of range in %s", ErrInvalidCode, f.ip, f.fn.Name()))
		}
		instr := p.instructions[f.ip]
		if err := t.step(f, instr); err != nil {
			return nil, t.fault(f, err)
		}

		var err error
		next := f.ip + 1

		switch instr.Op {
		case op.Nop:

		case op.LoopEntry:
			f.fn.record(loopWeight(instr.B))

		case op.Call, op.CallInst, op.New:
			callable, ok := p.constants[instr.A].(ast.Callable)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			args := f.popN(int(instr.B))
			var recv any
			if instr.Op == op.CallInst {
				if recv = f.pop(); recv == nil {
					err = object.Errorf(types.NullReferenceError, "%s called on a null receiver", callable.Name())
					break
				}
			}
			var result any
			if result, err = callable.Invoke(t.ctx, recv, args); err != nil {
				break
			}
			if instr.Op == op.New || !callable.ReturnType().IsVoid() {
				f.push(result)
			}

		case op.Invoke:
			args := f.popN(int(instr.A))
			var result any
			switch target := f.pop().(type) {
			case *object.Closure:
				result, err = t.call(target, args)
			case ast.Callable:
				result, err = target.Invoke(t.ctx, nil, args)
			case nil:
				err = object.NewException(types.NullReferenceError, "invoke of a null function value")
			default:
				err = object.Errorf(types.InvalidCastError, "cannot invoke a value of type %s", object.TypeOf(target))
			}
			if err == nil && instr.B == 1 {
				f.push(result)
			}

		case op.Return:
			var value any
			if instr.A == 1 {
				value = f.pop()
			}
			if f.leaveTo(-1, continuation{kind: pendingReturn, value: value, hasValue: instr.A == 1}) {
				continue
			}
			return value, nil

		case op.Jump:
			next = p.target(f.ip)

		case op.JumpIfFalse, op.JumpIfTrue:
			cond, ok := f.pop().(bool)
			if !ok {
				return nil, t.fault(f, fmt.Errorf("%w: branch condition is not a bool in %s", ErrInvalidCode, f.fn.Name()))
			}
			if cond == (instr.Op == op.JumpIfTrue) {
				next = p.target(f.ip)
			}

		case op.Switch:
			table, ok := p.constants[instr.A].(*bytecode.SwitchTable)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			if n, ok := asInt64(f.pop()); ok {
				if offset, found := table.Lookup(n); found {
					next = f.ip + int(offset)
				}
			}

		case op.Leave:
			label := p.code.LabelAt(int(instr.A))
			var value any
			if label.HasValue {
				value = f.pop()
			}
			cont := continuation{kind: pendingJump, label: int(instr.A), value: value, hasValue: label.HasValue}
			if !f.leaveTo(label.Index, cont) {
				f.jumpToLabel(label, value)
			}
			continue

		case op.LoadConst:
			f.push(p.constants[instr.A])

		case op.LoadLocal:
			f.push(f.locals[instr.A])

		case op.LoadBoxed:
			cell, cerr := f.cell(instr.A)
			if cerr != nil {
				return nil, t.fault(f, cerr)
			}
			f.push(cell.Value())

		case op.LoadClosure:
			f.push(f.closure.Cells()[instr.A].Value())

		case op.LoadCell:
			cell, cerr := f.cell(instr.A)
			if cerr != nil {
				return nil, t.fault(f, cerr)
			}
			f.push(cell)

		case op.LoadClosureCell:
			f.push(f.closure.Cells()[instr.A])

		case op.LoadField, op.LoadStaticField:
			field, ok := p.constants[instr.A].(ast.Field)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			var obj any
			if instr.Op == op.LoadField {
				if obj = f.pop(); obj == nil {
					err = object.Errorf(types.NullReferenceError, "read of field %s on a null reference", field.Name())
					break
				}
			}
			var v any
			if v, err = field.Get(obj); err == nil {
				f.push(v)
			}

		case op.StoreLocal:
			f.locals[instr.A] = f.pop()

		case op.StoreBoxed:
			cell, cerr := f.cell(instr.A)
			if cerr != nil {
				return nil, t.fault(f, cerr)
			}
			cell.Set(f.pop())

		case op.StoreClosure:
			f.closure.Cells()[instr.A].Set(f.pop())

		case op.StoreField:
			field, ok := p.constants[instr.A].(ast.Field)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			value := f.pop()
			obj := f.pop()
			if obj == nil {
				err = object.Errorf(types.NullReferenceError, "write of field %s on a null reference", field.Name())
				break
			}
			err = field.Set(obj, value)

		case op.StoreStaticField:
			field, ok := p.constants[instr.A].(ast.Field)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			err = field.Set(nil, f.pop())

		case op.InitLocal:
			f.locals[instr.A] = p.constants[instr.B]

		case op.InitBox:
			f.locals[instr.A] = object.NewCell(p.constants[instr.B])

		case op.BoxParam:
			f.locals[instr.A] = object.NewCell(f.locals[instr.A])

		case op.BinaryOp:
			b := f.pop()
			a := f.pop()
			var v any
			if v, err = object.BinaryOp(op.BinaryOpType(instr.A), types.Kind(instr.B), a, b); err == nil {
				f.push(v)
			}

		case op.CompareOp:
			b := f.pop()
			a := f.pop()
			var v bool
			if v, err = object.Compare(op.CompareOpType(instr.A), types.Kind(instr.B), a, b); err == nil {
				f.push(v)
			}

		case op.Negate, op.NegateChecked:
			var v any
			if v, err = object.Negate(types.Kind(instr.A), f.pop(), instr.Op == op.NegateChecked); err == nil {
				f.push(v)
			}

		case op.Not:
			var v any
			if v, err = object.Not(types.Kind(instr.A), f.pop()); err == nil {
				f.push(v)
			}

		case op.Complement:
			var v any
			if v, err = object.Complement(types.Kind(instr.A), f.pop()); err == nil {
				f.push(v)
			}

		case op.Convert, op.ConvertChecked:
			var v any
			if v, err = object.Convert(types.Kind(instr.A), types.Kind(instr.B), f.pop(), instr.Op == op.ConvertChecked); err == nil {
				f.push(v)
			}

		case op.Unbox, op.Cast, op.TypeIs:
			typ, ok := p.constants[instr.A].(*types.Type)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			v := f.pop()
			switch instr.Op {
			case op.TypeIs:
				f.push(v != nil && object.IsInstance(v, typ))
			case op.Unbox:
				if v == nil {
					err = object.Errorf(types.NullReferenceError, "unbox of a null reference to %s", typ)
				} else if !object.IsInstance(v, typ) {
					err = object.Errorf(types.InvalidCastError, "cannot unbox %s as %s", object.TypeOf(v), typ)
				} else {
					f.push(v)
				}
			default:
				if v != nil && !object.IsInstance(v, typ) {
					err = object.Errorf(types.InvalidCastError, "cannot cast %s to %s", object.TypeOf(v), typ)
				} else {
					f.push(v)
				}
			}

		case op.NewArray:
			elem, ok := p.constants[instr.A].(*types.Type)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			f.push(object.NewArray(elem, f.popN(int(instr.B))))

		case op.NewArrayBounds:
			elem, ok := p.constants[instr.A].(*types.Type)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			n, ok := asInt64(f.pop())
			if !ok {
				return nil, t.fault(f, fmt.Errorf("%w: array bound is not an integer in %s", ErrInvalidCode, f.fn.Name()))
			}
			var arr *object.Array
			if arr, err = object.NewArrayLen(elem, int(n)); err == nil {
				f.push(arr)
			}

		case op.LoadElement:
			index := f.pop()
			var arr *object.Array
			if arr, err = asArray(f.pop()); err != nil {
				break
			}
			n, _ := asInt64(index)
			var v any
			if v, err = arr.Get(n); err == nil {
				f.push(v)
			}

		case op.StoreElement:
			value := f.pop()
			index := f.pop()
			var arr *object.Array
			if arr, err = asArray(f.pop()); err != nil {
				break
			}
			n, _ := asInt64(index)
			err = arr.Set(n, value)

		case op.ArrayLength:
			var arr *object.Array
			if arr, err = asArray(f.pop()); err == nil {
				f.push(int32(arr.Len()))
			}

		case op.Swap:
			n := len(f.stack)
			f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]

		case op.Dup:
			f.push(f.peek())

		case op.Pop:
			f.pop()

		case op.Nil:
			f.push(nil)

		case op.False:
			f.push(false)

		case op.True:
			f.push(true)

		case op.CreateClosure:
			fn, ok := p.constants[instr.A].(*bytecode.Function)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			cells, cerr := asCells(f.popN(int(instr.B)))
			if cerr != nil {
				return nil, t.fault(f, cerr)
			}
			f.push(object.NewClosure(fn, cells))

		case op.MakeRuntimeVariables:
			m, ok := p.constants[instr.A].(*bytecode.CellMap)
			if !ok {
				return nil, t.fault(f, invalidConstant(f, instr))
			}
			own, cerr := asCells(f.popN(int(instr.B)))
			if cerr != nil {
				return nil, t.fault(f, cerr)
			}
			indexes := make([]int, m.Len())
			for i := range indexes {
				indexes[i] = m.At(i)
			}
			f.push(object.NewRuntimeVariables(own, f.closure.Cells(), indexes))

		case op.Throw:
			exc, _ := object.AsException(f.pop())
			err = exc

		case op.Rethrow:
			exc, ok := f.locals[instr.A].(*object.Exception)
			if !ok {
				return nil, t.fault(f, fmt.Errorf("%w: rethrow slot %d holds no exception in %s", ErrInvalidCode, instr.A, f.fn.Name()))
			}
			err = exc

		case op.EnterFinally:
			f.pending = append(f.pending, continuation{kind: fallThrough})

		case op.EndFinally, op.EndFault:
			cont, ok := f.popPending()
			if !ok {
				return nil, t.fault(f, fmt.Errorf("%w: %s without a pending continuation in %s", ErrInvalidCode, instr.Op, f.fn.Name()))
			}
			if instr.Op == op.EndFault && cont.kind != pendingException {
				return nil, t.fault(f, fmt.Errorf("%w: fault block completed without an exception in %s", ErrInvalidCode, f.fn.Name()))
			}
			switch cont.kind {
			case fallThrough:
			case pendingException:
				err = cont.exc
			case pendingReturn:
				if f.leaveTo(-1, cont) {
					continue
				}
				return cont.value, nil
			case pendingJump:
				label := p.code.LabelAt(cont.label)
				if !f.leaveTo(label.Index, cont) {
					f.jumpToLabel(label, cont.value)
				}
				continue
			}

		default:
			return nil, t.fault(f, fmt.Errorf("%w: unknown opcode %d in %s", ErrInvalidCode, instr.Op, f.fn.Name()))
		}

		if err != nil {
			if herr := t.raise(f, err); herr != nil {
				return nil, herr
			}
			continue
		}
		f.ip = next
	}
}

// leaveTo routes a control transfer out of protected regions. When a
// finally block protects the current instruction but not target, the
// continuation is queued and the finally body is entered; leaveTo then
// reports true.
func (f *Frame) leaveTo(target int, cont continuation) bool {
	h, ok := f.prog.finallyFor(f.ip, target)
	if !ok {
		return false
	}
	label := f.prog.code.LabelAt(h.Label)
	f.truncate(label.StackDepth)
	f.truncatePending(label.ContinuationDepth)
	f.pending = append(f.pending, cont)
	f.ip = h.HandlerStart
	return true
}

func (f *Frame) jumpToLabel(label bytecode.RuntimeLabel, value any) {
	depth := label.StackDepth
	if label.HasValue {
		depth--
	}
	f.truncate(depth)
	if label.HasValue {
		f.push(value)
	}
	f.truncatePending(label.ContinuationDepth)
	f.ip = label.Index
}

// raise dispatches err at the current instruction. It returns nil when a
// handler in f takes over, and the error to propagate otherwise.
func (t *thread) raise(f *Frame, err error) error {
	exc, ok := t.exception(err)
	if !ok {
		return t.fault(f, err)
	}
	if herr := t.notifyException(f, exc); herr != nil {
		return t.fault(f, herr)
	}
	h, found := f.prog.findHandler(f.ip, exc.Type())
	if !found {
		t.trace = append(t.trace, f.stackFrame())
		return exc
	}
	t.trace = t.trace[:0]
	label := f.prog.code.LabelAt(h.Label)
	f.truncate(label.StackDepth)
	f.truncatePending(label.ContinuationDepth)
	if h.Kind == bytecode.CatchHandler {
		f.push(exc)
	} else {
		f.pending = append(f.pending, continuation{kind: pendingException, exc: exc})
	}
	f.ip = h.HandlerStart
	return nil
}

// fault records f in the trace of an error that no handler may observe.
func (t *thread) fault(f *Frame, err error) error {
	t.trace = append(t.trace, f.stackFrame())
	return err
}

// exception converts err to the exception raised in the executing code.
// Cancellation, observer halts and interpreter faults are not catchable.
func (t *thread) exception(err error) (*object.Exception, bool) {
	switch {
	case stderrors.Is(err, context.Canceled),
		stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, ErrHalted),
		stderrors.Is(err, ErrRequiresFullCompile),
		stderrors.Is(err, ErrInvalidCode):
		return nil, false
	}
	return object.AsException(err)
}

// runtimeError converts an error escaping the top-level call.
func (t *thread) runtimeError(err error) error {
	var rerr *errors.RuntimeError
	if stderrors.As(err, &rerr) {
		if rerr.Stack == nil {
			rerr.Stack = t.trace
		}
		return rerr
	}
	var location errors.SourceLocation
	if len(t.trace) > 0 {
		location = t.trace[0].Location
	}
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return &errors.RuntimeError{
			Code:     errors.E3011,
			Message:  err.Error(),
			Location: location,
			Stack:    t.trace,
			Cause:    err,
		}
	case stderrors.Is(err, ErrHalted), stderrors.Is(err, ErrInvalidCode):
		return err
	}
	exc, ok := object.AsException(err)
	if !ok {
		return err
	}
	return &errors.RuntimeError{
		Code:          exceptionCode(exc.Type()),
		ExceptionType: exc.Type().Name(),
		Message:       exc.Message(),
		Location:      location,
		Stack:         t.trace,
		Cause:         exc,
	}
}

func exceptionCode(typ *types.Type) errors.ErrorCode {
	switch {
	case types.DivideByZeroError.AssignableFrom(typ):
		return errors.E3002
	case types.IndexOutOfRangeError.AssignableFrom(typ):
		return errors.E3003
	case types.OverflowError.AssignableFrom(typ):
		return errors.E3004
	case types.NullReferenceError.AssignableFrom(typ):
		return errors.E3005
	case types.StackOverflowError.AssignableFrom(typ):
		return errors.E3006
	case types.InvalidCastError.AssignableFrom(typ):
		return errors.E3007
	case types.ArgumentError.AssignableFrom(typ):
		return errors.E3009
	}
	return errors.E3008
}

func (t *thread) step(f *Frame, instr bytecode.Instruction) error {
	t.steps++
	if n := int64(t.m.contextCheckInterval); n > 0 && t.steps%n == 0 {
		if err := t.ctx.Err(); err != nil {
			return err
		}
	}
	obs := t.m.observer
	if obs == nil {
		return nil
	}
	cfg := t.m.observerCfg
	switch cfg.StepMode {
	case StepNone:
		return nil
	case StepSampled:
		if t.steps%int64(cfg.SampleInterval) != 0 {
			return nil
		}
	case StepOnLine:
		loc := f.Location()
		if loc.IsZero() || loc == t.lastLocation {
			return nil
		}
		t.lastLocation = loc
	}
	event := StepEvent{
		FunctionID: f.fn.ID(),
		Function:   f.fn.Name(),
		IP:         f.ip,
		Opcode:     instr.Op,
		OpcodeName: op.GetInfo(instr.Op).Name,
		Location:   f.Location(),
		StackDepth: len(f.stack),
		FrameDepth: f.depth,
		Frame:      f,
	}
	if !obs.OnStep(event) {
		return ErrHalted
	}
	return nil
}

func (t *thread) notifyCall(f *Frame, argc int) error {
	if t.m.observer == nil || !t.m.observerCfg.ObserveCalls {
		return nil
	}
	event := CallEvent{
		FunctionID: f.fn.ID(),
		Function:   f.fn.Name(),
		ArgCount:   argc,
		Tier:       f.prog.tier,
		FrameDepth: f.depth,
	}
	if !t.m.observer.OnCall(event) {
		return ErrHalted
	}
	return nil
}

func (t *thread) notifyReturn(f *Frame, err error) error {
	if t.m.observer == nil || !t.m.observerCfg.ObserveReturns {
		return nil
	}
	event := ReturnEvent{
		FunctionID: f.fn.ID(),
		Function:   f.fn.Name(),
		Location:   f.Location(),
		FrameDepth: f.depth - 1,
		Err:        err,
	}
	if !t.m.observer.OnReturn(event) {
		return ErrHalted
	}
	return nil
}

func (t *thread) notifyException(f *Frame, exc *object.Exception) error {
	if t.m.observer == nil || !t.m.observerCfg.ObserveExceptions {
		return nil
	}
	event := ExceptionEvent{
		FunctionID: f.fn.ID(),
		Function:   f.fn.Name(),
		IP:         f.ip,
		Exception:  exc,
		Location:   f.Location(),
		FrameDepth: f.depth,
	}
	if !t.m.observer.OnException(event) {
		return ErrHalted
	}
	return nil
}
