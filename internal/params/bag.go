// Package params implements the parameter bag carried by events and command
// requests: a string-keyed map of tagged values with type-checked accessors.
//
// A Bag is immutable. With returns a modified copy, so a bag handed to the
// dispatcher can never be changed behind its back by the producer.
package params

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// Bag is an immutable string-keyed collection of Values. The zero Bag is empty
// and ready to use.
type Bag struct {
	m map[string]Value
}

// FromMap builds a Bag from plain Go values, converting each with Of.
func FromMap(in map[string]any) Bag {
	if len(in) == 0 {
		return Bag{}
	}
	m := make(map[string]Value, len(in))
	for k, v := range in {
		m[k] = Of(v)
	}
	return Bag{m: m}
}

// With returns a copy of b with key set to v.
func (b Bag) With(key string, v any) Bag {
	m := make(map[string]Value, len(b.m)+1)
	maps.Copy(m, b.m)
	m[key] = Of(v)
	return Bag{m: m}
}

func (b Bag) Len() int { return len(b.m) }

func (b Bag) Has(key string) bool {
	_, ok := b.m[key]
	return ok
}

// Get returns the raw Value stored under key.
func (b Bag) Get(key string) (Value, bool) {
	v, ok := b.m[key]
	return v, ok
}

// Keys returns the keys in sorted order.
func (b Bag) Keys() []string {
	return slices.Sorted(maps.Keys(b.m))
}

func (b Bag) lookup(key string, want Kind) (Value, error) {
	v, ok := b.m[key]
	if !ok {
		return Value{}, &Error{Code: CodeMissingKey, Key: key, Want: want}
	}
	return v, nil
}

func (b Bag) String(key string) (string, error) {
	v, err := b.lookup(key, KindString)
	if err != nil {
		return "", err
	}
	s, ok := v.AsString()
	if !ok {
		return "", mismatch(key, KindString, v)
	}
	return s, nil
}

func (b Bag) Int(key string) (int64, error) {
	v, err := b.lookup(key, KindInt)
	if err != nil {
		return 0, err
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, mismatch(key, KindInt, v)
	}
	return i, nil
}

func (b Bag) Float(key string) (float64, error) {
	v, err := b.lookup(key, KindFloat)
	if err != nil {
		return 0, err
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, mismatch(key, KindFloat, v)
	}
	return f, nil
}

func (b Bag) Bool(key string) (bool, error) {
	v, err := b.lookup(key, KindBool)
	if err != nil {
		return false, err
	}
	x, ok := v.AsBool()
	if !ok {
		return false, mismatch(key, KindBool, v)
	}
	return x, nil
}

func (b Bag) Map(key string) (Bag, error) {
	v, err := b.lookup(key, KindMap)
	if err != nil {
		return Bag{}, err
	}
	m, ok := v.AsMap()
	if !ok {
		return Bag{}, mismatch(key, KindMap, v)
	}
	return m, nil
}

func (b Bag) List(key string) ([]Value, error) {
	v, err := b.lookup(key, KindList)
	if err != nil {
		return nil, err
	}
	l, ok := v.AsList()
	if !ok {
		return nil, mismatch(key, KindList, v)
	}
	return l, nil
}

// StringOr returns the string under key, or def when the key is absent.
// A present value of the wrong type is still an error.
func (b Bag) StringOr(key, def string) (string, error) {
	if !b.Has(key) {
		return def, nil
	}
	return b.String(key)
}

// IntOr returns the int under key, or def when the key is absent.
func (b Bag) IntOr(key string, def int64) (int64, error) {
	if !b.Has(key) {
		return def, nil
	}
	return b.Int(key)
}

// ToMap returns the plain Go representation of b.
func (b Bag) ToMap() map[string]any {
	out := make(map[string]any, len(b.m))
	for k, v := range b.m {
		out[k] = v.Interface()
	}
	return out
}

// Equal reports whether both bags hold the same keys with equal plain values.
func (b Bag) Equal(o Bag) bool {
	if b.Len() != o.Len() {
		return false
	}
	x, err1 := json.Marshal(b)
	y, err2 := json.Marshal(o)
	return err1 == nil && err2 == nil && bytes.Equal(x, y)
}

func (b Bag) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.ToMap())
}

func (b *Bag) UnmarshalJSON(data []byte) error {
	raw, err := decodeNumbers(data)
	if err != nil {
		return err
	}
	if raw == nil {
		*b = Bag{}
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return &Error{Code: CodeTypeMismatch, Want: KindMap, Got: Of(raw).Kind()}
	}
	*b = FromMap(m)
	return nil
}

// decodeNumbers decodes JSON keeping integer literals distinguishable from
// floats.
func decodeNumbers(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
