// Package value defines the dynamic scalar values that make up a table row
// and their canonical JSON text encoding.
//
// A Value is a closed union of exactly five kinds: null, boolean, 64-bit
// integer, 64-bit float, and UTF-8 string. A Row is an ordered list of named
// values; the order reflects the column order of the data source and is
// preserved verbatim when the row is encoded.
package value

import (
	"fmt"
	"math"
)

// Kind identifies which variant of the union a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a dynamically typed table cell. The zero value is the null value.
//
// Exactly one kind is active at a time; there is no implicit coercion
// between kinds. Values are immutable and safe to copy.
type Value struct {
	kind Kind
	num  uint64
	str  string
}

// NullValue returns the null Value.
func NullValue() Value {
	return Value{}
}

// BoolValue returns a Value holding the boolean b.
func BoolValue(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

// IntValue returns a Value holding the 64-bit integer i.
func IntValue(i int64) Value {
	return Value{kind: KindInt64, num: uint64(i)}
}

// FloatValue returns a Value holding the 64-bit float f.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat64, num: math.Float64bits(f)}
}

// StringValue returns a Value holding the string s.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// Bool returns the boolean payload. It panics if the kind is not KindBool.
func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.num != 0
}

// Int64 returns the integer payload. It panics if the kind is not KindInt64.
func (v Value) Int64() int64 {
	v.mustBe(KindInt64)
	return int64(v.num)
}

// Float64 returns the float payload. It panics if the kind is not KindFloat64.
func (v Value) Float64() float64 {
	v.mustBe(KindFloat64)
	return math.Float64frombits(v.num)
}

// Str returns the string payload. It panics if the kind is not KindString.
func (v Value) Str() string {
	v.mustBe(KindString)
	return v.str
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("value: %s accessed as %s", v.kind, k))
	}
}

// Equal reports whether two values hold the same kind and payload. Float
// comparison is bitwise, so NaN equals NaN and -0 differs from 0.
func (v Value) Equal(w Value) bool {
	return v == w
}

// String renders the value for debugging. The JSON encoding lives in
// AppendJSON; this is only for error messages and test output.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.num != 0)
	case KindInt64:
		return fmt.Sprintf("%d", int64(v.num))
	case KindFloat64:
		return fmt.Sprintf("%g", math.Float64frombits(v.num))
	case KindString:
		return fmt.Sprintf("%q", v.str)
	default:
		return fmt.Sprintf("Value(%s)", v.kind)
	}
}

// FromAny converts a decoded Go scalar into a Value. It accepts the types
// produced by the parquet reader (all integer widths, both float widths,
// bool, string, []byte, nil) and maps everything else to its string form.
// The conversion is total and never fails.
func FromAny(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return IntValue(int64(x))
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		return IntValue(int64(x))
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case string:
		return StringValue(x)
	case []byte:
		return StringValue(string(x))
	default:
		return StringValue(fmt.Sprintf("%v", x))
	}
}

// Field is one named cell of a row.
type Field struct {
	Name  string
	Value Value
}

// Row is one record of the tabular stream: an ordered mapping from column
// name to Value. Column names are unique within a row and the order is
// significant; it reflects the data source's column ordering, not a sorted
// order.
type Row []Field
