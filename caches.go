package typelib

import (
	"reflect"
	"sync"
)

// cache is a process-wide, append-only memo of compiled routines
// keyed by exact type. First-time compilation runs under the cache
// lock, serializing concurrent first requests for a type. Published
// entries are immutable, so a routine obtained once stays valid for
// the life of the process.
//
// Compilation errors memoize the same way successes do: a type that
// failed to compile fails identically on every later request.
type cache[V any] struct {
	mu sync.Mutex
	m  map[reflect.Type]result[V]
}

type result[V any] struct {
	val V
	err error
}

// get returns the cached routine for t, building and publishing it
// first if this is the earliest request. build must not call back
// into the same cache.
func (c *cache[V]) get(t reflect.Type, build func(reflect.Type) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.m[t]; ok {
		return r.val, r.err
	}
	val, err := build(t)
	if c.m == nil {
		c.m = make(map[reflect.Type]result[V])
	}
	c.m[t] = result[V]{val, err}
	return val, err
}
