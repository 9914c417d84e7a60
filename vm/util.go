package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/lightc/bytecode"
	"github.com/deepnoodle-ai/lightc/object"
	"github.com/deepnoodle-ai/lightc/types"
)

func checkArgs(code *bytecode.Code, args []any) error {
	paramsCount := code.ParamCount()
	if len(args) != paramsCount {
		msg := "function"
		if name := code.Name(); name != "" {
			msg = fmt.Sprintf("%s %q", msg, name)
		}
		switch paramsCount {
		case 0:
			msg = fmt.Sprintf("%s takes 0 arguments (%d given)", msg, len(args))
		case 1:
			msg = fmt.Sprintf("%s takes 1 argument (%d given)", msg, len(args))
		default:
			msg = fmt.Sprintf("%s takes %d arguments (%d given)", msg, paramsCount, len(args))
		}
		return object.NewException(types.ArgumentError, msg)
	}
	for i, arg := range args {
		p := code.ParamAt(i)
		if !object.IsInstance(arg, p.Type) {
			return object.Errorf(types.ArgumentError, "argument %s of %q: cannot use %s as %s",
				p.Name, code.Name(), describeType(arg), p.Type)
		}
	}
	return nil
}

func describeType(v any) string {
	if t := object.TypeOf(v); t != nil {
		return t.String()
	}
	return "null"
}

func asInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

func asArray(v any) (*object.Array, error) {
	switch v := v.(type) {
	case *object.Array:
		return v, nil
	case nil:
		return nil, object.NewException(types.NullReferenceError, "array access on a null reference")
	}
	return nil, object.Errorf(types.InvalidCastError, "%s is not an array", describeType(v))
}

func asCells(values []any) ([]*object.Cell, error) {
	cells := make([]*object.Cell, len(values))
	for i, v := range values {
		cell, ok := v.(*object.Cell)
		if !ok {
			return nil, fmt.Errorf("%w: expected a cell, got %T", ErrInvalidCode, v)
		}
		cells[i] = cell
	}
	return cells, nil
}

func invalidConstant(f *Frame, instr bytecode.Instruction) error {
	return fmt.Errorf("%w: %s in %s references constant %d of type %T",
		ErrInvalidCode, instr, f.fn.Name(), instr.A, f.prog.constants[instr.A])
}
