// Package codec implements oxdb's tagged Value union and its two wire
// formats: the compact binary encoding used for on-disk records, and a
// JSON fallback used only for import/export.
package codec

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which alternative of the Value union is populated.
type Kind byte

const (
	KindNull   Kind = 'n'
	KindString Kind = 's'
	KindInt    Kind = 'i'
	KindFloat  Kind = 'f'
	KindList   Kind = 'l'
	KindTuple  Kind = 't'
	KindMap    Kind = 'd'
)

// Value is a tagged union over oxdb's on-disk data domain: a dead-region
// filler, a UTF-8 string, a signed 64-bit integer, an IEEE-754 double, an
// ordered list, a fixed-arity tuple, or a string-keyed map.
type Value struct {
	kind    Kind
	str     string
	i64     int64
	f64     float64
	seq     []Value
	m       map[string]Value
	nullLen uint32
}

// String builds a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int builds a signed-integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i64: i} }

// Float builds a double Value.
func Float(f float64) Value { return Value{kind: KindFloat, f64: f} }

// List builds an ordered-sequence Value.
func List(items ...Value) Value { return Value{kind: KindList, seq: items} }

// Tuple builds a fixed-arity tuple Value.
func Tuple(items ...Value) Value { return Value{kind: KindTuple, seq: items} }

// Map builds a string-keyed mapping Value.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Null builds a dead-region filler Value declaring length n.
func Null(n uint32) Value { return Value{kind: KindNull, nullLen: n} }

// Kind reports the Value's alternative.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInt returns the integer payload and whether v is an integer.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i64, true
}

// AsFloat returns the float payload and whether v is a float.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f64, true
}

// AsList returns the element slice and whether v is a list.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.seq, true
}

// AsTuple returns the element slice and whether v is a tuple.
func (v Value) AsTuple() ([]Value, bool) {
	if v.kind != KindTuple {
		return nil, false
	}
	return v.seq, true
}

// AsMap returns the underlying map and whether v is a mapping.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// NullLen returns the declared length of a filler Value.
func (v Value) NullLen() uint32 { return v.nullLen }

// Equal reports deep equality between two Values.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return a.nullLen == b.nullLen
	case KindString:
		return a.str == b.str
	case KindInt:
		return a.i64 == b.i64
	case KindFloat:
		return a.f64 == b.f64
	case KindList, KindTuple:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON renders v the same way EncodeJSON does, so a Value nested
// inside an ordinary Go struct serializes through encoding/json without
// callers needing to route it through the codec package explicitly.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSONAny(v))
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return fmt.Sprintf("Null(%d)", v.nullLen)
	case KindString:
		return fmt.Sprintf("String(%q)", v.str)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.i64)
	case KindFloat:
		return fmt.Sprintf("Float(%g)", v.f64)
	case KindList:
		return fmt.Sprintf("List(%d)", len(v.seq))
	case KindTuple:
		return fmt.Sprintf("Tuple(%d)", len(v.seq))
	case KindMap:
		return fmt.Sprintf("Map(%d)", len(v.m))
	default:
		return "Value(?)"
	}
}
