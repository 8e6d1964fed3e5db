package params

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	// KindOpaque holds an arbitrary Go value that has no JSON-native shape,
	// e.g. a command.Request riding inside an event.
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union of the types a parameter may hold.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	list   []Value
	m      Bag
	opaque any
}

func Null() Value { return Value{kind: KindNull} }
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }
func Int(v int64) Value { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }
func Opaque(v any) Value { return Value{kind: KindOpaque, opaque: v} }
func MapValue(b Bag) Value { return Value{kind: KindMap, m: b} }
func List(vs ...Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindList, list: cp}
}

// Of converts a Go value into a Value. JSON-shaped values (numbers, strings,
// bools, slices, string-keyed maps) map onto their native kinds; anything
// else becomes KindOpaque.
func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case Bag:
		return MapValue(x)
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return fromUint(uint64(x))
	case uint64:
		return fromUint(x)
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		if f, err := x.Float64(); err == nil {
			return Float(f)
		}
		return String(x.String())
	case string:
		return String(x)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = Of(e)
		}
		return Value{kind: KindList, list: out}
	case []string:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = String(e)
		}
		return Value{kind: KindList, list: out}
	case map[string]any:
		return MapValue(FromMap(x))
	default:
		return Opaque(v)
	}
}

// Bounds of the int64 range as exactly representable floats: -2^63 and 2^63.
const (
	minIntFloat = -(1 << 63)
	maxIntFloat = 1 << 63
)

// fromUint keeps values above MaxInt64 as floats so AsInt reports a
// mismatch instead of wrapping.
func fromUint(x uint64) Value {
	if x > math.MaxInt64 {
		return Float(float64(x))
	}
	return Int(int64(x))
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt accepts ints and integral floats that fit in an int64.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && v.f >= minIntFloat && v.f < maxIntFloat {
			return int64(v.f), true
		}
	}
	return 0, false
}

func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp, true
}

func (v Value) AsMap() (Bag, bool) {
	return v.m, v.kind == KindMap
}

func (v Value) AsOpaque() (any, bool) {
	return v.opaque, v.kind == KindOpaque
}

// Interface returns the plain Go representation of v: nil, bool, int64,
// float64, string, []any, map[string]any or the opaque value itself.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		return v.m.ToMap()
	case KindOpaque:
		return v.opaque
	default:
		return nil
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%v", v.Interface())
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	raw, err := decodeNumbers(data)
	if err != nil {
		return err
	}
	*v = Of(raw)
	return nil
}
