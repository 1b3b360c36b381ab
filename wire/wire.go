// Package wire defines the primitive value model that sits between
// native Go values and a byte-oriented encoding.
//
// A [Value] is one of:
//
//   - nil
//   - bool
//   - int64, uint64, float64
//   - string
//   - []byte
//   - [List]
//   - [*Map]
//
// Every encoding supported by this package round-trips that set:
// booleans, numbers, strings, null, ordered lists and ordered
// key-value maps. Maps preserve insertion order, which is what makes
// the model suitable as the stable intermediate form between a
// compiled conversion routine and a byte codec.
package wire

import (
	"fmt"
	"strings"
)

// A Value is a wire-safe primitive value. See the package
// documentation for the closed set of permitted dynamic types.
type Value any

// A List is an ordered sequence of values.
type List []Value

// A Pair is a single key-value entry of a Map.
type Pair struct {
	Key   Value
	Value Value
}

// A Map is a mapping from primitive keys to values that preserves
// insertion order. The zero value is empty and ready to use.
type Map struct {
	pairs []Pair
	index map[Value]int
}

// NewMap constructs a Map from the given pairs, in order.
func NewMap(pairs ...Pair) *Map {
	m := &Map{}
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// Set stores v under k, retaining the insertion position if k is
// already present.
func (m *Map) Set(k, v Value) {
	if m.index == nil {
		m.index = make(map[Value]int)
	}
	if i, ok := m.index[k]; ok {
		m.pairs[i].Value = v
		return
	}
	m.index[k] = len(m.pairs)
	m.pairs = append(m.pairs, Pair{k, v})
}

// Get returns the value stored under k, and whether k is present.
func (m *Map) Get(k Value) (Value, bool) {
	if m == nil || m.index == nil {
		return nil, false
	}
	i, ok := m.index[k]
	if !ok {
		return nil, false
	}
	return m.pairs[i].Value, true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Pairs returns the entries in insertion order. The returned slice is
// shared with the Map and must not be modified.
func (m *Map) Pairs() []Pair {
	if m == nil {
		return nil
	}
	return m.pairs
}

func (m *Map) String() string {
	var ret strings.Builder
	ret.WriteByte('{')
	for i, p := range m.Pairs() {
		if i > 0 {
			ret.WriteString(", ")
		}
		fmt.Fprintf(&ret, "%v: %v", p.Key, p.Value)
	}
	ret.WriteByte('}')
	return ret.String()
}

// Equal reports whether two values are structurally equal: same
// dynamic type, same contents, and for maps the same entries in the
// same order.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		bp := bv.Pairs()
		for i, p := range av.Pairs() {
			if !Equal(p.Key, bp[i].Key) || !Equal(p.Value, bp[i].Value) {
				return false
			}
		}
		return true
	case []byte:
		bv, ok := b.([]byte)
		return ok && string(av) == string(bv)
	default:
		return a == b
	}
}
