package object

import (
	"fmt"
	"math"

	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type integer interface {
	signed | unsigned
}

type float interface {
	~float32 | ~float64
}

// BinaryOp applies an arithmetic or bitwise operator to two operands of
// the given kind. Integer division by zero raises DivideByZeroError.
func BinaryOp(opType op.BinaryOpType, kind types.Kind, a, b any) (any, error) {
	switch kind {
	case types.KindInt8:
		return intOp(opType, a.(int8), b.(int8), 8)
	case types.KindInt16:
		return intOp(opType, a.(int16), b.(int16), 16)
	case types.KindInt32:
		return intOp(opType, a.(int32), b.(int32), 32)
	case types.KindInt64:
		return intOp(opType, a.(int64), b.(int64), 64)
	case types.KindUint8:
		return intOp(opType, a.(uint8), b.(uint8), 8)
	case types.KindUint16:
		return intOp(opType, a.(uint16), b.(uint16), 16)
	case types.KindUint32:
		return intOp(opType, a.(uint32), b.(uint32), 32)
	case types.KindUint64:
		return intOp(opType, a.(uint64), b.(uint64), 64)
	case types.KindFloat32:
		return floatOp(opType, a.(float32), b.(float32))
	case types.KindFloat64:
		return floatOp(opType, a.(float64), b.(float64))
	case types.KindBool:
		return boolOp(opType, a.(bool), b.(bool))
	case types.KindString:
		if opType == op.Add {
			return a.(string) + b.(string), nil
		}
	}
	return nil, Errorf(types.InvalidCastError, "operator %s is not defined on %s", opType, kind)
}

func intOp[T integer](opType op.BinaryOpType, a, b T, bits uint) (any, error) {
	switch opType {
	case op.Add:
		return a + b, nil
	case op.Subtract:
		return a - b, nil
	case op.Multiply:
		return a * b, nil
	case op.Divide:
		if b == 0 {
			return nil, NewException(types.DivideByZeroError, "integer division by zero")
		}
		return a / b, nil
	case op.Modulo:
		if b == 0 {
			return nil, NewException(types.DivideByZeroError, "integer division by zero")
		}
		return a % b, nil
	case op.And:
		return a & b, nil
	case op.Or:
		return a | b, nil
	case op.Xor:
		return a ^ b, nil
	case op.LShift:
		return a << (uint64(b) & uint64(bits-1)), nil
	case op.RShift:
		return a >> (uint64(b) & uint64(bits-1)), nil
	}
	return nil, Errorf(types.InvalidCastError, "operator %s is not defined on integers", opType)
}

func floatOp[T float](opType op.BinaryOpType, a, b T) (any, error) {
	switch opType {
	case op.Add:
		return a + b, nil
	case op.Subtract:
		return a - b, nil
	case op.Multiply:
		return a * b, nil
	case op.Divide:
		return a / b, nil
	case op.Modulo:
		return T(math.Mod(float64(a), float64(b))), nil
	}
	return nil, Errorf(types.InvalidCastError, "operator %s is not defined on floats", opType)
}

func boolOp(opType op.BinaryOpType, a, b bool) (any, error) {
	switch opType {
	case op.And:
		return a && b, nil
	case op.Or:
		return a || b, nil
	case op.Xor:
		return a != b, nil
	}
	return nil, Errorf(types.InvalidCastError, "operator %s is not defined on bool", opType)
}

// Compare applies a comparison operator to two operands of the given kind.
// Equality on reference kinds compares identity.
func Compare(opType op.CompareOpType, kind types.Kind, a, b any) (bool, error) {
	switch opType {
	case op.Equal:
		return Equals(a, b), nil
	case op.NotEqual:
		return !Equals(a, b), nil
	}
	var c int
	switch kind {
	case types.KindInt8:
		c = cmp(a.(int8), b.(int8))
	case types.KindInt16:
		c = cmp(a.(int16), b.(int16))
	case types.KindInt32:
		c = cmp(a.(int32), b.(int32))
	case types.KindInt64:
		c = cmp(a.(int64), b.(int64))
	case types.KindUint8:
		c = cmp(a.(uint8), b.(uint8))
	case types.KindUint16:
		c = cmp(a.(uint16), b.(uint16))
	case types.KindUint32:
		c = cmp(a.(uint32), b.(uint32))
	case types.KindUint64:
		c = cmp(a.(uint64), b.(uint64))
	case types.KindFloat32:
		x, y := a.(float32), b.(float32)
		if x != x || y != y {
			return false, nil
		}
		c = cmp(x, y)
	case types.KindFloat64:
		x, y := a.(float64), b.(float64)
		if math.IsNaN(x) || math.IsNaN(y) {
			return false, nil
		}
		c = cmp(x, y)
	case types.KindString:
		c = cmp(a.(string), b.(string))
	default:
		return false, Errorf(types.InvalidCastError, "operator %s is not defined on %s", opType, kind)
	}
	switch opType {
	case op.LessThan:
		return c < 0, nil
	case op.LessThanOrEqual:
		return c <= 0, nil
	case op.GreaterThan:
		return c > 0, nil
	case op.GreaterThanOrEqual:
		return c >= 0, nil
	}
	return false, fmt.Errorf("unknown comparison operator: %d", opType)
}

func cmp[T integer | float | ~string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Negate returns -v. When checked, negating the minimum signed value or a
// non-zero unsigned value raises OverflowError.
func Negate(kind types.Kind, v any, checked bool) (any, error) {
	switch kind {
	case types.KindInt8:
		return negSigned(v.(int8), math.MinInt8, checked)
	case types.KindInt16:
		return negSigned(v.(int16), math.MinInt16, checked)
	case types.KindInt32:
		return negSigned(v.(int32), math.MinInt32, checked)
	case types.KindInt64:
		return negSigned(v.(int64), math.MinInt64, checked)
	case types.KindUint8:
		return negUnsigned(v.(uint8), checked)
	case types.KindUint16:
		return negUnsigned(v.(uint16), checked)
	case types.KindUint32:
		return negUnsigned(v.(uint32), checked)
	case types.KindUint64:
		return negUnsigned(v.(uint64), checked)
	case types.KindFloat32:
		return -v.(float32), nil
	case types.KindFloat64:
		return -v.(float64), nil
	}
	return nil, Errorf(types.InvalidCastError, "negation is not defined on %s", kind)
}

func negSigned[T signed](v, minValue T, checked bool) (any, error) {
	if checked && v == minValue {
		return nil, Errorf(types.OverflowError, "negation of %d overflows", v)
	}
	return -v, nil
}

func negUnsigned[T unsigned](v T, checked bool) (any, error) {
	if checked && v != 0 {
		return nil, Errorf(types.OverflowError, "negation of unsigned %d overflows", v)
	}
	return -v, nil
}

// Not returns the logical negation of a bool or the bitwise complement of
// an integer.
func Not(kind types.Kind, v any) (any, error) {
	if kind == types.KindBool {
		return !v.(bool), nil
	}
	return Complement(kind, v)
}

// Complement returns the bitwise complement of an integer.
func Complement(kind types.Kind, v any) (any, error) {
	switch kind {
	case types.KindInt8:
		return ^v.(int8), nil
	case types.KindInt16:
		return ^v.(int16), nil
	case types.KindInt32:
		return ^v.(int32), nil
	case types.KindInt64:
		return ^v.(int64), nil
	case types.KindUint8:
		return ^v.(uint8), nil
	case types.KindUint16:
		return ^v.(uint16), nil
	case types.KindUint32:
		return ^v.(uint32), nil
	case types.KindUint64:
		return ^v.(uint64), nil
	}
	return nil, Errorf(types.InvalidCastError, "complement is not defined on %s", kind)
}
