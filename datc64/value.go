package datc64

import "encoding/json"

// Kind discriminates which field of Value is populated. A zero Value
// is KindNull, so null is always explicit rather than inferred from a
// zero number or empty string.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindRow
	KindForeignRow
	KindEnum
	KindArray
)

// Value is the tagged sum type every decoded cell is represented as,
// preserving the null/empty/zero distinction spec.md's row model
// requires: a null row reference and a zero row id are different
// values, and an empty string is not the same as a null string.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Array []Value
}

func Null() Value                 { return Value{Kind: KindNull} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func RowValue(id int64) Value     { return Value{Kind: KindRow, Int: id} }
func ForeignRowValue(id int64) Value { return Value{Kind: KindForeignRow, Int: id} }
func EnumValue(v int64) Value     { return Value{Kind: KindEnum, Int: v} }
func ArrayValue(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindArray, Array: items}
}

// MarshalJSON renders the value the way a consumer expects: numbers
// and booleans as JSON primitives, null as JSON null, arrays as JSON
// arrays of the same rendering applied recursively.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindInt, KindRow, KindForeignRow, KindEnum:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindString:
		return json.Marshal(v.Str)
	case KindArray:
		return json.Marshal(v.Array)
	default:
		return []byte("null"), nil
	}
}
