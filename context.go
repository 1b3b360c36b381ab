package typelib

import "reflect"

// ctxKey identifies a routine within one compilation pass. delayed
// distinguishes a forward-reference placeholder's routine from the
// concrete routine for the same type, so both can coexist while
// lookups spill over from one form to the other.
type ctxKey struct {
	t       reflect.Type
	delayed bool
}

// A typeContext accumulates compiled routines during one compilation
// pass. Container routines capture entries from it to reach their
// children. Lookup has spill-over semantics: a miss on the concrete
// form of a type falls back to its placeholder form, so a deferred
// reference and a concrete reference to the same underlying type
// share one entry.
//
// The context itself dies with the pass; the routines it holds
// outlive it, wired to each other through the closures established
// here.
type typeContext[R any] map[ctxKey]R

func (c typeContext[R]) get(t reflect.Type) (R, bool) {
	if r, ok := c[ctxKey{t, false}]; ok {
		return r, true
	}
	if r, ok := c[ctxKey{t, true}]; ok {
		return r, true
	}
	var zero R
	return zero, false
}

func (c typeContext[R]) put(n typeNode, r R) {
	c[ctxKey{n.Type, n.Cyclic}] = r
}

func (c typeContext[R]) has(n typeNode) bool {
	_, ok := c[ctxKey{n.Type, n.Cyclic}]
	return ok
}
