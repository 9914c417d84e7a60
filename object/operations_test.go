package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lightc/op"
	"github.com/deepnoodle-ai/lightc/types"
)

func requireException(t *testing.T, err error, typ *types.Type) {
	t.Helper()
	var exc *Exception
	require.ErrorAs(t, err, &exc)
	require.Equal(t, typ, exc.Type())
}

func TestBinaryOp(t *testing.T) {
	tests := []struct {
		op   op.BinaryOpType
		kind types.Kind
		a, b any
		want any
	}{
		{op.Add, types.KindInt32, int32(2), int32(3), int32(5)},
		{op.Subtract, types.KindInt64, int64(2), int64(5), int64(-3)},
		{op.Multiply, types.KindUint8, uint8(16), uint8(17), uint8(16)},
		{op.Divide, types.KindInt32, int32(7), int32(2), int32(3)},
		{op.Modulo, types.KindInt32, int32(-7), int32(3), int32(-1)},
		{op.LShift, types.KindInt32, int32(1), int32(33), int32(2)},
		{op.RShift, types.KindUint16, uint16(0x100), uint16(4), uint16(0x10)},
		{op.Xor, types.KindInt8, int8(5), int8(3), int8(6)},
		{op.Divide, types.KindFloat64, 1.0, 4.0, 0.25},
		{op.Modulo, types.KindFloat64, 7.5, 2.0, 1.5},
		{op.And, types.KindBool, true, false, false},
		{op.Xor, types.KindBool, true, false, true},
		{op.Add, types.KindString, "ab", "cd", "abcd"},
	}
	for _, tt := range tests {
		got, err := BinaryOp(tt.op, tt.kind, tt.a, tt.b)
		require.NoError(t, err, "%v %s %v", tt.a, tt.op, tt.b)
		require.Equal(t, tt.want, got, "%v %s %v", tt.a, tt.op, tt.b)
	}
}

func TestBinaryOpErrors(t *testing.T) {
	_, err := BinaryOp(op.Divide, types.KindInt64, int64(1), int64(0))
	requireException(t, err, types.DivideByZeroError)
	_, err = BinaryOp(op.Modulo, types.KindUint32, uint32(1), uint32(0))
	requireException(t, err, types.DivideByZeroError)
	_, err = BinaryOp(op.Subtract, types.KindString, "a", "b")
	require.Error(t, err)

	v, err := BinaryOp(op.Divide, types.KindFloat64, 1.0, 0.0)
	require.NoError(t, err)
	require.True(t, math.IsInf(v.(float64), 1))
}

func TestCompare(t *testing.T) {
	lt, err := Compare(op.LessThan, types.KindInt32, int32(1), int32(2))
	require.NoError(t, err)
	require.True(t, lt)

	ge, err := Compare(op.GreaterThanOrEqual, types.KindString, "b", "a")
	require.NoError(t, err)
	require.True(t, ge)

	nan, err := Compare(op.LessThan, types.KindFloat64, math.NaN(), 1.0)
	require.NoError(t, err)
	require.False(t, nan)

	eq, err := Compare(op.Equal, types.KindObject, nil, nil)
	require.NoError(t, err)
	require.True(t, eq)

	_, err = Compare(op.LessThan, types.KindBool, true, false)
	require.Error(t, err)
}

func TestNegate(t *testing.T) {
	v, err := Negate(types.KindInt32, int32(5), false)
	require.NoError(t, err)
	require.Equal(t, int32(-5), v)

	v, err = Negate(types.KindInt8, int8(math.MinInt8), false)
	require.NoError(t, err)
	require.Equal(t, int8(math.MinInt8), v)

	_, err = Negate(types.KindInt8, int8(math.MinInt8), true)
	requireException(t, err, types.OverflowError)
	_, err = Negate(types.KindUint32, uint32(1), true)
	requireException(t, err, types.OverflowError)

	v, err = Not(types.KindBool, true)
	require.NoError(t, err)
	require.Equal(t, false, v)
	v, err = Not(types.KindInt32, int32(0))
	require.NoError(t, err)
	require.Equal(t, int32(-1), v)
	v, err = Complement(types.KindUint8, uint8(0x0f))
	require.NoError(t, err)
	require.Equal(t, uint8(0xf0), v)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		from, to types.Kind
		v        any
		want     any
	}{
		{types.KindInt32, types.KindInt64, int32(-3), int64(-3)},
		{types.KindInt64, types.KindInt8, int64(300), int8(44)},
		{types.KindInt32, types.KindUint8, int32(-1), uint8(255)},
		{types.KindFloat64, types.KindInt32, 3.9, int32(3)},
		{types.KindFloat64, types.KindInt32, -3.9, int32(-3)},
		{types.KindUint64, types.KindFloat64, uint64(10), 10.0},
		{types.KindInt32, types.KindFloat32, int32(2), float32(2)},
		{types.KindFloat32, types.KindFloat64, float32(0.5), 0.5},
	}
	for _, tt := range tests {
		got, err := Convert(tt.from, tt.to, tt.v, false)
		require.NoError(t, err)
		require.Equal(t, tt.want, got, "%v -> %s", tt.v, tt.to)
	}
}

func TestConvertChecked(t *testing.T) {
	_, err := Convert(types.KindInt64, types.KindInt8, int64(300), true)
	requireException(t, err, types.OverflowError)
	_, err = Convert(types.KindInt32, types.KindUint8, int32(-1), true)
	requireException(t, err, types.OverflowError)
	_, err = Convert(types.KindUint64, types.KindInt64, uint64(math.MaxUint64), true)
	requireException(t, err, types.OverflowError)
	_, err = Convert(types.KindFloat64, types.KindInt32, 3e10, true)
	requireException(t, err, types.OverflowError)
	_, err = Convert(types.KindFloat64, types.KindUint8, 256.0, true)
	requireException(t, err, types.OverflowError)
	_, err = Convert(types.KindFloat64, types.KindInt64, math.NaN(), true)
	requireException(t, err, types.OverflowError)

	v, err := Convert(types.KindFloat64, types.KindUint8, 255.9, true)
	require.NoError(t, err)
	require.Equal(t, uint8(255), v)
	v, err = Convert(types.KindInt64, types.KindInt8, int64(-128), true)
	require.NoError(t, err)
	require.Equal(t, int8(-128), v)
}
