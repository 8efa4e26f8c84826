// Package value holds the in-memory form of a decoded JSON document.
//
// A Value is a small tagged union (null, bool, int, float, string, array,
// map). Values are immutable once built: constructors copy nothing, so callers
// must not mutate slices they hand over after construction.
package value

import "fmt"

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindMap
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "boolean",
	KindInt:    "integer",
	KindFloat:  "float",
	KindString: "string",
	KindArray:  "array",
	KindMap:    "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Member is one key/value pair of a map Value.
type Member struct {
	Key   string
	Value Value
}

// indexThreshold is the member count above which a map gets a key index.
const indexThreshold = 8

// Value is a parsed JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  []Member
	idx  map[string]int
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// bigInt is a Float decoded from an integer literal outside the int64 range.
// The literal is kept in s so it can be rendered without rounding.
func bigInt(f float64, literal string) Value { return Value{kind: KindFloat, f: f, s: literal} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array Value holding elems in order.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// Map returns a map Value preserving member order. When a key repeats, Get
// returns the last occurrence.
func Map(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	v := Value{kind: KindMap, obj: members}
	if len(members) > indexThreshold {
		v.idx = make(map[string]int, len(members))
		for i, m := range members {
			v.idx[m.Key] = i
		}
	}
	return v
}

// Kind reports the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload; it is false for other kinds.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer payload; it is 0 for other kinds.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float payload; it is 0 for other kinds.
func (v Value) AsFloat() float64 { return v.f }

// AsString returns the string payload; it is "" for other kinds.
func (v Value) AsString() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// Literal returns the source text of a Float decoded from an integer literal
// too large for int64, and false for every other Value.
func (v Value) Literal() (string, bool) {
	if v.kind == KindFloat && v.s != "" {
		return v.s, true
	}
	return "", false
}

// Len returns the number of elements of an array or members of a map.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.obj)
	}
	return 0
}

// Index returns the i-th array element.
func (v Value) Index(i int) Value { return v.arr[i] }

// Elems returns the array elements. The slice must not be modified.
func (v Value) Elems() []Value { return v.arr }

// Members returns the map members in document order. The slice must not be
// modified.
func (v Value) Members() []Member { return v.obj }

// Get looks up key in a map Value. It reports false for a missing key or a
// non-map Value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	if v.idx != nil {
		i, ok := v.idx[key]
		if !ok {
			return Value{}, false
		}
		return v.obj[i].Value, true
	}
	for i := len(v.obj) - 1; i >= 0; i-- {
		if v.obj[i].Key == key {
			return v.obj[i].Value, true
		}
	}
	return Value{}, false
}

// String renders v as canonical JSON text.
func (v Value) String() string { return string(AppendJSON(nil, v)) }
