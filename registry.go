package typelib

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/creachadair/mds/mapset"
)

// The registry supplies the type information Go's reflection cannot
// express on its own: union membership, literal value sets, enum
// member sets and positional tuple layout. The classifier consults it
// when assigning a kind to a type.
//
// Register types during init. Registration performed after a type's
// routine has already been compiled has no effect on the cached
// routine.
var registry = struct {
	mu       sync.RWMutex
	unions   map[reflect.Type][]reflect.Type
	literals map[reflect.Type][]any
	enums    map[reflect.Type][]any
	tuples   mapset.Set[reflect.Type]
}{
	unions:   make(map[reflect.Type][]reflect.Type),
	literals: make(map[reflect.Type][]any),
	enums:    make(map[reflect.Type][]any),
	tuples:   mapset.New[reflect.Type](),
}

// RegisterUnion declares the ordered member set of the interface type
// I. Values of I marshal by trying each member's routine in declared
// order; unmarshalling tries members in the same order and the first
// success wins, so order members from most-strict to least-strict.
//
// A nil value of I always converts to wire null and back, without
// probing members.
//
// RegisterUnion panics if I is not an interface, if no members are
// given, if a member does not implement I, or if I was already
// registered.
func RegisterUnion[I any](members ...reflect.Type) {
	t := reflect.TypeFor[I]()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("typelib: RegisterUnion: %s is not an interface type", t))
	}
	if len(members) == 0 {
		panic(fmt.Sprintf("typelib: RegisterUnion: no members given for %s", t))
	}
	for _, m := range members {
		if t.NumMethod() > 0 && !m.Implements(t) {
			panic(fmt.Sprintf("typelib: RegisterUnion: %s does not implement %s", m, t))
		}
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.unions[t]; ok {
		panic(fmt.Sprintf("typelib: union %s registered twice", t))
	}
	registry.unions[t] = append([]reflect.Type(nil), members...)
}

// RegisterLiteral declares the fixed value set of the named type T.
// Conversion in either direction enforces membership and fails with a
// [ValueError] for values outside the set.
func RegisterLiteral[T comparable](values ...T) {
	t := reflect.TypeFor[T]()
	if len(values) == 0 {
		panic(fmt.Sprintf("typelib: RegisterLiteral: no values given for %s", t))
	}
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.literals[t]; ok {
		panic(fmt.Sprintf("typelib: literal %s registered twice", t))
	}
	registry.literals[t] = vs
}

// RegisterEnum declares the member set of the named type T. Enum
// values marshal to their underlying value; unmarshalling constructs
// the member from the underlying value and fails with a [ValueError]
// if the result is not a declared member.
func RegisterEnum[T comparable](members ...T) {
	t := reflect.TypeFor[T]()
	if len(members) == 0 {
		panic(fmt.Sprintf("typelib: RegisterEnum: no members given for %s", t))
	}
	ms := make([]any, len(members))
	for i, m := range members {
		ms[i] = m
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.enums[t]; ok {
		panic(fmt.Sprintf("typelib: enum %s registered twice", t))
	}
	registry.enums[t] = ms
}

// RegisterTuple marks the struct type T as positional: it converts to
// an ordered wire list with one element per field rather than a
// key-value map. Conversion zips declared fields against input
// positions and truncates to the shorter of the two.
func RegisterTuple[T any]() {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("typelib: RegisterTuple: %s is not a struct type", t))
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.tuples.Add(t)
}

func unionMembers(t reflect.Type) ([]reflect.Type, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	ms, ok := registry.unions[t]
	return ms, ok
}

func literalValues(t reflect.Type) ([]any, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	vs, ok := registry.literals[t]
	return vs, ok
}

func enumMembers(t reflect.Type) ([]any, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	ms, ok := registry.enums[t]
	return ms, ok
}

func isTupleType(t reflect.Type) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.tuples.Has(t)
}
