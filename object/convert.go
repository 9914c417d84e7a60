package object

import (
	"math"

	"github.com/deepnoodle-ai/lightc/types"
)

// number is the widened form of a numeric value.
type number struct {
	kind types.Kind
	i    int64
	u    uint64
	f    float64
}

func widen(kind types.Kind, v any) (number, bool) {
	n := number{kind: kind}
	switch v := v.(type) {
	case int8:
		n.i = int64(v)
	case int16:
		n.i = int64(v)
	case int32:
		n.i = int64(v)
	case int64:
		n.i = v
	case uint8:
		n.u = uint64(v)
	case uint16:
		n.u = uint64(v)
	case uint32:
		n.u = uint64(v)
	case uint64:
		n.u = v
	case float32:
		n.f = float64(v)
	case float64:
		n.f = v
	default:
		return n, false
	}
	return n, true
}

func (n number) isSigned() bool   { return n.kind >= types.KindInt8 && n.kind <= types.KindInt64 }
func (n number) isUnsigned() bool { return n.kind.IsUnsigned() }

var (
	signedMin = map[types.Kind]int64{
		types.KindInt8: math.MinInt8, types.KindInt16: math.MinInt16,
		types.KindInt32: math.MinInt32, types.KindInt64: math.MinInt64,
	}
	signedMax = map[types.Kind]int64{
		types.KindInt8: math.MaxInt8, types.KindInt16: math.MaxInt16,
		types.KindInt32: math.MaxInt32, types.KindInt64: math.MaxInt64,
	}
	unsignedMax = map[types.Kind]uint64{
		types.KindUint8: math.MaxUint8, types.KindUint16: math.MaxUint16,
		types.KindUint32: math.MaxUint32, types.KindUint64: math.MaxUint64,
	}
)

// Convert converts a numeric value between numeric kinds. Unchecked
// integer conversions wrap; checked conversions raise OverflowError when
// the value is not representable in the destination kind.
func Convert(from, to types.Kind, v any, checked bool) (any, error) {
	n, ok := widen(from, v)
	if !ok {
		return nil, Errorf(types.InvalidCastError, "cannot convert %T to %s", v, to)
	}
	if checked {
		if err := checkRange(n, to); err != nil {
			return nil, err
		}
	}
	switch {
	case to.IsFloat():
		var f float64
		switch {
		case n.isSigned():
			f = float64(n.i)
		case n.isUnsigned():
			f = float64(n.u)
		default:
			f = n.f
		}
		if to == types.KindFloat32 {
			return float32(f), nil
		}
		return f, nil
	case to.IsInteger():
		var bits uint64
		switch {
		case n.isSigned():
			bits = uint64(n.i)
		case n.isUnsigned():
			bits = n.u
		default:
			if to.IsUnsigned() {
				bits = uint64(n.f)
			} else {
				bits = uint64(int64(n.f))
			}
		}
		return fromBits(to, bits), nil
	}
	return nil, Errorf(types.InvalidCastError, "cannot convert %s to %s", from, to)
}

func fromBits(kind types.Kind, bits uint64) any {
	switch kind {
	case types.KindInt8:
		return int8(bits)
	case types.KindInt16:
		return int16(bits)
	case types.KindInt32:
		return int32(bits)
	case types.KindInt64:
		return int64(bits)
	case types.KindUint8:
		return uint8(bits)
	case types.KindUint16:
		return uint16(bits)
	case types.KindUint32:
		return uint32(bits)
	}
	return bits
}

func checkRange(n number, to types.Kind) error {
	overflow := func() error {
		return Errorf(types.OverflowError, "value does not fit in %s", to)
	}
	switch {
	case to.IsFloat():
		if to == types.KindFloat32 && !n.isSigned() && !n.isUnsigned() &&
			!math.IsInf(n.f, 0) && !math.IsNaN(n.f) && math.Abs(n.f) > math.MaxFloat32 {
			return overflow()
		}
		return nil
	case to.IsUnsigned():
		limit := unsignedMax[to]
		switch {
		case n.isSigned():
			if n.i < 0 || uint64(n.i) > limit {
				return overflow()
			}
		case n.isUnsigned():
			if n.u > limit {
				return overflow()
			}
		default:
			t := math.Trunc(n.f)
			if math.IsNaN(n.f) || t < 0 || t >= float64(limit)+1 {
				return overflow()
			}
		}
	case to.IsInteger():
		lo, hi := signedMin[to], signedMax[to]
		switch {
		case n.isSigned():
			if n.i < lo || n.i > hi {
				return overflow()
			}
		case n.isUnsigned():
			if n.u > uint64(hi) {
				return overflow()
			}
		default:
			t := math.Trunc(n.f)
			if math.IsNaN(n.f) || t < float64(lo) || t >= -float64(lo) {
				return overflow()
			}
		}
	}
	return nil
}
