// Package typelib converts native Go values to a small wire value
// model and back, directed entirely by type.
//
// Conversion routines are compiled, not interpreted: the first
// request for a type walks its structural dependencies, builds a
// routine for every type encountered, and caches the results for the
// life of the process. Recursive types compile to routines that
// resolve their self-reference lazily on first use.
//
// Scalars, time types, [uuid.UUID], [decimal.Decimal], *[big.Rat],
// *[regexp.Regexp], byte slices, pointers (as optional values),
// slices, arrays, maps and structs convert out of the box. Interface
// unions, literal value sets, enums and positional tuples require a
// registration call, since Go's type system cannot express them
// directly; see [RegisterUnion], [RegisterLiteral], [RegisterEnum]
// and [RegisterTuple].
//
// The wire model itself lives in the wire package. A [Codec] composes
// a type's conversion routines with a byte encoding for one-call
// conversion between native values and JSON or msgpack bytes.
package typelib
