package storage

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"strconv"
)

// Kind is the type tag carried by a Value
type Kind int8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBinary:
		return "binary"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single stored datum. Values are immutable: constructors copy
// binary input and accessors hand out copies, so a Value never shares memory
// with its caller. The zero Value is the null value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	bin  []byte
}

func IntValue(v int64) Value     { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func BoolValue(v bool) Value     { return Value{kind: KindBool, b: v} }

func BinaryValue(v []byte) Value {
	return Value{kind: KindBinary, bin: copyBytes(v)}
}

// ValueOf converts a Go scalar into a Value. Any integer type maps to KindInt,
// float32/float64 to KindFloat. Unsigned values above math.MaxInt64 and
// unsupported types are rejected with an InvalidArgument error.
func ValueOf(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t.Clone(), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return uintValue(uint64(t))
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		return uintValue(t)
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case []byte:
		return BinaryValue(t), nil
	default:
		return Value{}, NewError(InvalidArgument, "value", "", "",
			fmt.Errorf("unsupported value type %T", v))
	}
}

func uintValue(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return Value{}, NewError(InvalidArgument, "value", "", "",
			fmt.Errorf("unsigned value %d overflows int64", v))
	}
	return IntValue(int64(v)), nil
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) Str() (string, bool)    { return v.s, v.kind == KindString }
func (v Value) Bool() (bool, bool)     { return v.b, v.kind == KindBool }

// Bytes returns a copy of the binary payload
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBinary {
		return nil, false
	}
	return copyBytes(v.bin), true
}

// Clone returns a Value that shares no memory with v
func (v Value) Clone() Value {
	if v.kind == KindBinary {
		v.bin = copyBytes(v.bin)
	}
	return v
}

// Equal reports whether v and o have the same kind and content. Floats compare by
// bit pattern so NaN equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindBinary:
		return bytes.Equal(v.bin, o.bin)
	default:
		return true
	}
}

// Compare orders values by kind, then content. Returns -1, 0 or 1.
func (v Value) Compare(o Value) int {
	if c := cmp.Compare(v.kind, o.kind); c != 0 {
		return c
	}
	switch v.kind {
	case KindInt:
		return cmp.Compare(v.i, o.i)
	case KindFloat:
		return cmp.Compare(v.f, o.f)
	case KindString:
		return cmp.Compare(v.s, o.s)
	case KindBool:
		switch {
		case v.b == o.b:
			return 0
		case !v.b:
			return -1
		default:
			return 1
		}
	case KindBinary:
		return bytes.Compare(v.bin, o.bin)
	default:
		return 0
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindBinary:
		return fmt.Sprintf("0x%x", v.bin)
	default:
		return "null"
	}
}

// Size approximates the payload size in bytes
func (v Value) Size() int {
	switch v.kind {
	case KindString:
		return len(v.s)
	case KindBinary:
		return len(v.bin)
	case KindNull:
		return 0
	default:
		return 8
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
