package query

import (
	"fmt"
	"math"
)

// Kind identifies the type carried by a Value.
type Kind int

// Supported value kinds. The zero Kind is invalid so that an uninitialised
// Value is rejected instead of being bound as something else.
const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindInt64
	KindUint
	KindFloat64
	KindFloat32
	KindChar
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindUint:
		return "uint"
	case KindFloat64:
		return "float64"
	case KindFloat32:
		return "float32"
	case KindChar:
		return "char"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("invalid(%d)", int(k))
	}
}

// Value is a typed value bound to a statement placeholder.
type Value struct {
	kind Kind
	s    string
	i    int64
	u    uint64
	f    float64
	r    rune
}

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer value.
func Int(i int) Value { return Value{kind: KindInt, i: int64(i)} }

// Int64 returns a 64-bit integer value.
func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

// Uint returns an unsigned integer value.
func Uint(u uint32) Value { return Value{kind: KindUint, u: uint64(u)} }

// Float64 returns a double-precision value.
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

// Float32 returns a single-precision value.
func Float32(f float32) Value { return Value{kind: KindFloat32, f: float64(f)} }

// Char returns a single character value, stored as a one-character string.
func Char(r rune) Value { return Value{kind: KindChar, r: r} }

// Null returns the SQL NULL value.
func Null() Value { return Value{kind: KindNull} }

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// ValueOf converts a Go value into a Value. nil becomes Null; pointers to
// supported types are dereferenced, nil pointers become Null. Any other type
// fails with ErrUnsupportedValueType.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		if t.kind == KindInvalid {
			return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedValueType, t.kind)
		}
		return t, nil
	case string:
		return String(t), nil
	case int:
		return Int(t), nil
	case int32:
		return Int(int(t)), nil
	case int64:
		return Int64(t), nil
	case uint:
		if uint64(t) > math.MaxUint32 {
			return Value{}, fmt.Errorf("%w: uint %d overflows", ErrUnsupportedValueType, t)
		}
		return Uint(uint32(t)), nil
	case uint32:
		return Uint(t), nil
	case float64:
		return Float64(t), nil
	case float32:
		return Float32(t), nil
	case bool:
		if t {
			return Int(1), nil
		}
		return Int(0), nil
	case *string:
		if t == nil {
			return Null(), nil
		}
		return String(*t), nil
	case *int64:
		if t == nil {
			return Null(), nil
		}
		return Int64(*t), nil
	case *float64:
		if t == nil {
			return Null(), nil
		}
		return Float64(*t), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValueType, x)
	}
}

// Values converts each Go value with ValueOf.
func Values(xs ...any) ([]Value, error) {
	values := make([]Value, len(xs))
	for i, x := range xs {
		v, err := ValueOf(x)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// arg returns the driver argument for v. Every kind is matched explicitly.
func (v Value) arg() (any, error) {
	switch v.kind {
	case KindString:
		return v.s, nil
	case KindInt, KindInt64:
		return v.i, nil
	case KindUint:
		return int64(v.u), nil
	case KindFloat64, KindFloat32:
		return v.f, nil
	case KindChar:
		return string(v.r), nil
	case KindNull:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValueType, v.kind)
	}
}
