package typelib

import (
	"bytes"
	"reflect"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/typelib/typelib/wire"
)

// A marshalFunc converts one reflect.Value of a fixed type to its
// wire form. Compiled once per type and reused; must be safe for
// concurrent use.
type marshalFunc func(v reflect.Value) (wire.Value, error)

var marshallers cache[marshalFunc]

func marshalFuncFor(t reflect.Type) (marshalFunc, error) {
	return marshallers.get(t, compileMarshaller)
}

// compileMarshaller builds the marshalling routine for root and,
// along the way, for every type root depends on. The type graph is
// ordered leaves first, so by the time a container's routine is
// constructed the routines of its children already exist in the
// compilation context. Forward-reference placeholders compile to
// delayed routines, which is what lets recursive types terminate.
func compileMarshaller(root reflect.Type) (marshalFunc, error) {
	nodes := typeGraph(root)
	ctx := make(typeContext[marshalFunc], len(nodes))
	var fn marshalFunc
	for _, n := range nodes {
		if prev, ok := ctx[ctxKey{n.Type, n.Cyclic}]; ok {
			fn = prev
			continue
		}
		f, err := newMarshalFunc(n, ctx)
		if err != nil {
			return nil, err
		}
		ctx.put(n, f)
		fn = f
	}
	return fn, nil
}

func newMarshalFunc(n typeNode, ctx typeContext[marshalFunc]) (marshalFunc, error) {
	if n.Cyclic {
		return newDelayedMarshalFunc(n.Type), nil
	}
	t := n.Type
	switch kindOf(t) {
	case kindAny:
		return newAnyMarshalFunc(), nil
	case kindLiteral:
		return newLiteralMarshalFunc(t)
	case kindUnion:
		return newUnionMarshalFunc(t, ctx)
	case kindEnum:
		return newScalarMarshalFunc(t)
	case kindDateTime:
		return newDateTimeMarshalFunc(), nil
	case kindDate, kindTimeOfDay:
		return newStringerMarshalFunc(), nil
	case kindDuration:
		return newDurationMarshalFunc(), nil
	case kindUUID:
		return newUUIDMarshalFunc(), nil
	case kindPattern:
		return newPatternMarshalFunc(t), nil
	case kindDecimal:
		return newDecimalMarshalFunc(), nil
	case kindRational:
		return newRationalMarshalFunc(t), nil
	case kindBool, kindInt, kindUint, kindFloat, kindString:
		return newScalarMarshalFunc(t)
	case kindBytes:
		return newBytesMarshalFunc(), nil
	case kindPointer:
		return newPtrMarshalFunc(t, ctx)
	case kindTuple:
		return newTupleMarshalFunc(t, ctx)
	case kindMap:
		return newMapMarshalFunc(t, ctx)
	case kindList:
		return newListMarshalFunc(t, ctx)
	case kindStruct:
		return newStructMarshalFunc(t, ctx)
	}
	return nil, typeErr(t, "no wire mapping for type")
}

// newDelayedMarshalFunc returns a routine standing in for a type
// whose concrete routine does not exist yet. The first call resolves
// the concrete routine through the process-wide cache, which by then
// holds the finished entry, and every later call forwards to it
// directly.
func newDelayedMarshalFunc(t reflect.Type) marshalFunc {
	var (
		once sync.Once
		fn   marshalFunc
		err  error
	)
	return func(v reflect.Value) (wire.Value, error) {
		once.Do(func() {
			fn, err = marshalFuncFor(t)
		})
		if err != nil {
			return nil, err
		}
		return fn(v)
	}
}

// marshalChild resolves the routine for a child position of a
// container. Untyped positions pass values through unconverted and
// never appear in the compilation context.
func marshalChild(ctx typeContext[marshalFunc], t reflect.Type) (marshalFunc, error) {
	if fn, ok := ctx.get(t); ok {
		return fn, nil
	}
	if kindOf(t) == kindAny {
		return newAnyMarshalFunc(), nil
	}
	return nil, typeErr(t, "no wire mapping for type")
}

func newAnyMarshalFunc() marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		if !v.IsValid() {
			return nil, nil
		}
		if v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil, nil
			}
			v = v.Elem()
		}
		return v.Interface(), nil
	}
}

// newScalarMarshalFunc converts by the value's underlying reflect
// shape, which also serves enum and literal types whose wire form is
// their underlying scalar.
func newScalarMarshalFunc(t reflect.Type) (marshalFunc, error) {
	switch t.Kind() {
	case reflect.Bool:
		return func(v reflect.Value) (wire.Value, error) {
			return v.Bool(), nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v reflect.Value) (wire.Value, error) {
			return v.Int(), nil
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(v reflect.Value) (wire.Value, error) {
			return v.Uint(), nil
		}, nil
	case reflect.Float32, reflect.Float64:
		return func(v reflect.Value) (wire.Value, error) {
			return v.Float(), nil
		}, nil
	case reflect.String:
		return func(v reflect.Value) (wire.Value, error) {
			return v.String(), nil
		}, nil
	}
	return nil, typeErr(t, "no scalar wire mapping for type")
}

func newLiteralMarshalFunc(t reflect.Type) (marshalFunc, error) {
	values, _ := literalValues(t)
	base, err := newScalarMarshalFunc(t)
	if err != nil {
		return nil, err
	}
	return func(v reflect.Value) (wire.Value, error) {
		x := v.Interface()
		if !slices.Contains(values, x) {
			return nil, valueErr(t, "%v is not a declared value", x)
		}
		return base(v)
	}, nil
}

func newUnionMarshalFunc(t reflect.Type, ctx typeContext[marshalFunc]) (marshalFunc, error) {
	members, _ := unionMembers(t)
	fns := make([]marshalFunc, len(members))
	for i, m := range members {
		fn, err := marshalChild(ctx, m)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return func(v reflect.Value) (wire.Value, error) {
		if v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil, nil
			}
			v = v.Elem()
		}
		dt := v.Type()
		// First an exact scan, then a lossless-conversion scan, in
		// declared member order either way.
		for i, m := range members {
			if dt == m {
				return fns[i](v)
			}
		}
		for i, m := range members {
			if convertibleMember(dt, m) {
				return fns[i](v.Convert(m))
			}
		}
		return nil, valueErr(t, "%s is not a member of the union", dt)
	}, nil
}

// convertibleMember reports whether a value of dynamic type dt may be
// marshalled as union member m by conversion. String-to-number style
// conversions are excluded: Go permits them but they reinterpret the
// value rather than changing its type.
func convertibleMember(dt, m reflect.Type) bool {
	if !dt.ConvertibleTo(m) {
		return false
	}
	if (dt.Kind() == reflect.String) != (m.Kind() == reflect.String) {
		return false
	}
	return true
}

func newDateTimeMarshalFunc() marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		return v.Interface().(time.Time).Format(time.RFC3339Nano), nil
	}
}

// newStringerMarshalFunc serves the kinds whose wire form is exactly
// their canonical String rendering.
func newStringerMarshalFunc() marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		return v.Interface().(interface{ String() string }).String(), nil
	}
}

func newDurationMarshalFunc() marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		return formatISODuration(time.Duration(v.Int())), nil
	}
}

func newUUIDMarshalFunc() marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		return v.Interface().(uuid.UUID).String(), nil
	}
}

func newPatternMarshalFunc(t reflect.Type) marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		if v.IsNil() {
			return nil, valueErr(t, "nil pattern")
		}
		return v.Interface().(*regexp.Regexp).String(), nil
	}
}

func newDecimalMarshalFunc() marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		return v.Interface().(decimal.Decimal).String(), nil
	}
}

// Rationals render in big.Rat's a/b notation, which collapses to a
// plain integer string when the denominator is one.
func newRationalMarshalFunc(t reflect.Type) marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		if v.IsNil() {
			return nil, valueErr(t, "nil rational")
		}
		return v.Interface().(interface{ RatString() string }).RatString(), nil
	}
}

func newBytesMarshalFunc() marshalFunc {
	return func(v reflect.Value) (wire.Value, error) {
		return bytes.Clone(v.Bytes()), nil
	}
}

// Pointers model optional values: nil marshals to wire null, anything
// else marshals as the pointed-to value.
func newPtrMarshalFunc(t reflect.Type, ctx typeContext[marshalFunc]) (marshalFunc, error) {
	elemFn, err := marshalChild(ctx, t.Elem())
	if err != nil {
		return nil, err
	}
	return func(v reflect.Value) (wire.Value, error) {
		if v.IsNil() {
			return nil, nil
		}
		return elemFn(v.Elem())
	}, nil
}

func newTupleMarshalFunc(t reflect.Type, ctx typeContext[marshalFunc]) (marshalFunc, error) {
	fs, err := getStructInfo(t)
	if err != nil {
		return nil, typeErr(t, "getting struct info: %v", err)
	}
	fields := fs.StructFields
	fns := make([]marshalFunc, len(fields))
	for i, f := range fields {
		fn, err := marshalChild(ctx, f.Type)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return func(v reflect.Value) (wire.Value, error) {
		out := make(wire.List, len(fields))
		for i, f := range fields {
			w, err := fns[i](f.GetWithZero(v))
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	}, nil
}

func newMapMarshalFunc(t reflect.Type, ctx typeContext[marshalFunc]) (marshalFunc, error) {
	kt := t.Key()
	if !wireKeyKinds.Has(kt.Kind()) {
		return nil, typeErr(t, "invalid map key type %s", kt)
	}
	kFn, err := marshalChild(ctx, kt)
	if err != nil {
		return nil, err
	}
	vFn, err := marshalChild(ctx, t.Elem())
	if err != nil {
		return nil, err
	}
	kCmp := mapKeyCmp(kt)

	// Keys are emitted in sorted order so that a given map value
	// always produces the same wire bytes.
	return func(v reflect.Value) (wire.Value, error) {
		ks := v.MapKeys()
		slices.SortFunc(ks, kCmp)
		out := wire.NewMap()
		for _, mk := range ks {
			wk, err := kFn(mk)
			if err != nil {
				return nil, err
			}
			wv, err := vFn(v.MapIndex(mk))
			if err != nil {
				return nil, err
			}
			out.Set(wk, wv)
		}
		return out, nil
	}, nil
}

func newListMarshalFunc(t reflect.Type, ctx typeContext[marshalFunc]) (marshalFunc, error) {
	elemFn, err := marshalChild(ctx, t.Elem())
	if err != nil {
		return nil, err
	}
	return func(v reflect.Value) (wire.Value, error) {
		out := make(wire.List, v.Len())
		for i := range v.Len() {
			w, err := elemFn(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	}, nil
}

// newStructMarshalFunc builds a field table for t. A field whose type
// has no wire mapping is left out of the table, and therefore out of
// the output, rather than failing the whole struct.
func newStructMarshalFunc(t reflect.Type, ctx typeContext[marshalFunc]) (marshalFunc, error) {
	fs, err := getStructInfo(t)
	if err != nil {
		return nil, typeErr(t, "getting struct info: %v", err)
	}

	type fieldEntry struct {
		name string
		get  func(reflect.Value) reflect.Value
		fn   marshalFunc
	}
	var table []fieldEntry
	for _, f := range fs.StructFields {
		fn, err := marshalChild(ctx, f.Type)
		if err != nil {
			continue
		}
		table = append(table, fieldEntry{f.Name, f.GetWithZero, fn})
	}

	return func(v reflect.Value) (wire.Value, error) {
		out := wire.NewMap()
		for _, f := range table {
			w, err := f.fn(f.get(v))
			if err != nil {
				return nil, err
			}
			out.Set(f.name, w)
		}
		return out, nil
	}, nil
}
