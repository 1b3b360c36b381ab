package typelib

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/typelib/typelib/wire"
	"go.uber.org/zap"
)

// An unmarshalFunc fills the settable reflect.Value v from the wire
// value w. Compiled once per type and reused; must be safe for
// concurrent use.
type unmarshalFunc func(w wire.Value, v reflect.Value) error

var unmarshallers cache[unmarshalFunc]

func unmarshalFuncFor(t reflect.Type) (unmarshalFunc, error) {
	return unmarshallers.get(t, compileUnmarshaller)
}

// compileUnmarshaller mirrors compileMarshaller: one pass over the
// leaves-first type graph, publishing each routine into the context
// so that containers can capture their children's routines, with the
// root's routine emerging last.
func compileUnmarshaller(root reflect.Type) (unmarshalFunc, error) {
	nodes := typeGraph(root)
	ctx := make(typeContext[unmarshalFunc], len(nodes))
	var fn unmarshalFunc
	for _, n := range nodes {
		if prev, ok := ctx[ctxKey{n.Type, n.Cyclic}]; ok {
			fn = prev
			continue
		}
		f, err := newUnmarshalFunc(n, ctx)
		if err != nil {
			return nil, err
		}
		ctx.put(n, f)
		fn = f
	}
	return fn, nil
}

func newUnmarshalFunc(n typeNode, ctx typeContext[unmarshalFunc]) (unmarshalFunc, error) {
	if n.Cyclic {
		return newDelayedUnmarshalFunc(n.Type), nil
	}
	t := n.Type
	switch kindOf(t) {
	case kindAny:
		return newAnyUnmarshalFunc(), nil
	case kindLiteral:
		return newLiteralUnmarshalFunc(t)
	case kindUnion:
		return newUnionUnmarshalFunc(t, ctx)
	case kindEnum:
		return newEnumUnmarshalFunc(t)
	case kindDateTime:
		return newDateTimeUnmarshalFunc(t), nil
	case kindDate:
		return newDateUnmarshalFunc(t), nil
	case kindTimeOfDay:
		return newTimeOfDayUnmarshalFunc(t), nil
	case kindDuration:
		return newDurationUnmarshalFunc(t), nil
	case kindUUID:
		return newUUIDUnmarshalFunc(t), nil
	case kindPattern:
		return newPatternUnmarshalFunc(t), nil
	case kindDecimal:
		return newDecimalUnmarshalFunc(t), nil
	case kindRational:
		return newRationalUnmarshalFunc(t), nil
	case kindBool, kindInt, kindUint, kindFloat, kindString:
		return newScalarUnmarshalFunc(t)
	case kindBytes:
		return newBytesUnmarshalFunc(t), nil
	case kindPointer:
		return newPtrUnmarshalFunc(t, ctx)
	case kindTuple:
		return newTupleUnmarshalFunc(t, ctx)
	case kindMap:
		return newMapUnmarshalFunc(t, ctx)
	case kindList:
		return newListUnmarshalFunc(t, ctx)
	case kindStruct:
		return newStructUnmarshalFunc(t, ctx)
	}
	return nil, typeErr(t, "no wire mapping for type")
}

func newDelayedUnmarshalFunc(t reflect.Type) unmarshalFunc {
	var (
		once sync.Once
		fn   unmarshalFunc
		err  error
	)
	return func(w wire.Value, v reflect.Value) error {
		once.Do(func() {
			fn, err = unmarshalFuncFor(t)
		})
		if err != nil {
			return err
		}
		return fn(w, v)
	}
}

func unmarshalChild(ctx typeContext[unmarshalFunc], t reflect.Type) (unmarshalFunc, error) {
	if fn, ok := ctx.get(t); ok {
		return fn, nil
	}
	if kindOf(t) == kindAny {
		return newAnyUnmarshalFunc(), nil
	}
	return nil, typeErr(t, "no wire mapping for type")
}

// ingest normalizes textual input before structural interpretation: a
// string or byte slice that parses as JSON stands for the document it
// carries, anything else passes through untouched.
func ingest(w wire.Value) wire.Value {
	switch s := w.(type) {
	case string:
		if d, err := wire.DecodeJSON([]byte(s)); err == nil {
			return d
		}
	case []byte:
		if d, err := wire.DecodeJSON(s); err == nil {
			return d
		}
		return string(s)
	}
	return w
}

func newAnyUnmarshalFunc() unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		if w == nil {
			v.SetZero()
			return nil
		}
		v.Set(reflect.ValueOf(w))
		return nil
	}
}

// newScalarUnmarshalFunc coerces by the target's underlying reflect
// shape, which also serves enum and literal types.
func newScalarUnmarshalFunc(t reflect.Type) (unmarshalFunc, error) {
	switch t.Kind() {
	case reflect.Bool:
		return func(w wire.Value, v reflect.Value) error {
			switch x := w.(type) {
			case bool:
				v.SetBool(x)
			case int64:
				v.SetBool(x != 0)
			case uint64:
				v.SetBool(x != 0)
			case float64:
				v.SetBool(x != 0)
			case string:
				b, err := strconv.ParseBool(x)
				if err != nil {
					return valueErr(t, "%q", x)
				}
				v.SetBool(b)
			default:
				return valueErr(t, "%T value", w)
			}
			return nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(w wire.Value, v reflect.Value) error {
			var i int64
			switch x := w.(type) {
			case int64:
				i = x
			case uint64:
				var err error
				i, err = safecast.Conv[int64](x)
				if err != nil {
					return valueErr(t, "%d overflows", x)
				}
			case float64:
				// Fractional input truncates toward zero.
				i = int64(x)
			case string:
				var err error
				i, err = strconv.ParseInt(x, 10, 64)
				if err != nil {
					return valueErr(t, "%q", x)
				}
			default:
				return valueErr(t, "%T value", w)
			}
			if v.OverflowInt(i) {
				return valueErr(t, "%d overflows", i)
			}
			v.SetInt(i)
			return nil
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(w wire.Value, v reflect.Value) error {
			var u uint64
			switch x := w.(type) {
			case int64:
				var err error
				u, err = safecast.Conv[uint64](x)
				if err != nil {
					return valueErr(t, "%d is negative", x)
				}
			case uint64:
				u = x
			case float64:
				if x < 0 {
					return valueErr(t, "%v is negative", x)
				}
				u = uint64(x)
			case string:
				var err error
				u, err = strconv.ParseUint(x, 10, 64)
				if err != nil {
					return valueErr(t, "%q", x)
				}
			default:
				return valueErr(t, "%T value", w)
			}
			if v.OverflowUint(u) {
				return valueErr(t, "%d overflows", u)
			}
			v.SetUint(u)
			return nil
		}, nil
	case reflect.Float32, reflect.Float64:
		return func(w wire.Value, v reflect.Value) error {
			var f float64
			switch x := w.(type) {
			case int64:
				f = float64(x)
			case uint64:
				f = float64(x)
			case float64:
				f = x
			case string:
				var err error
				f, err = strconv.ParseFloat(x, 64)
				if err != nil {
					return valueErr(t, "%q", x)
				}
			default:
				return valueErr(t, "%T value", w)
			}
			if v.OverflowFloat(f) {
				return valueErr(t, "%v overflows", f)
			}
			v.SetFloat(f)
			return nil
		}, nil
	case reflect.String:
		return func(w wire.Value, v reflect.Value) error {
			switch x := w.(type) {
			case string:
				v.SetString(x)
			case []byte:
				v.SetString(string(x))
			case bool:
				v.SetString(strconv.FormatBool(x))
			case int64:
				v.SetString(strconv.FormatInt(x, 10))
			case uint64:
				v.SetString(strconv.FormatUint(x, 10))
			case float64:
				v.SetString(strconv.FormatFloat(x, 'g', -1, 64))
			default:
				return valueErr(t, "%T value", w)
			}
			return nil
		}, nil
	}
	return nil, typeErr(t, "no scalar wire mapping for type")
}

// Literal input may arrive as the JSON text of a declared value, so
// it is ingested before coercion; membership is enforced after.
func newLiteralUnmarshalFunc(t reflect.Type) (unmarshalFunc, error) {
	values, _ := literalValues(t)
	base, err := newScalarUnmarshalFunc(t)
	if err != nil {
		return nil, err
	}
	return func(w wire.Value, v reflect.Value) error {
		tmp := reflect.New(t).Elem()
		if err := base(ingest(w), tmp); err != nil {
			return err
		}
		if !slices.Contains(values, tmp.Interface()) {
			return valueErr(t, "%v is not a declared value", tmp.Interface())
		}
		v.Set(tmp)
		return nil
	}, nil
}

func newEnumUnmarshalFunc(t reflect.Type) (unmarshalFunc, error) {
	members, _ := enumMembers(t)
	base, err := newScalarUnmarshalFunc(t)
	if err != nil {
		return nil, err
	}
	return func(w wire.Value, v reflect.Value) error {
		tmp := reflect.New(t).Elem()
		if err := base(w, tmp); err != nil {
			return err
		}
		if !slices.Contains(members, tmp.Interface()) {
			return valueErr(t, "%v is not a member", tmp.Interface())
		}
		v.Set(tmp)
		return nil
	}, nil
}

// newUnionUnmarshalFunc tries members in declared order and keeps the
// first that accepts the input, so order members from most-strict to
// least-strict when registering.
func newUnionUnmarshalFunc(t reflect.Type, ctx typeContext[unmarshalFunc]) (unmarshalFunc, error) {
	members, _ := unionMembers(t)
	fns := make([]unmarshalFunc, len(members))
	for i, m := range members {
		fn, err := unmarshalChild(ctx, m)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return func(w wire.Value, v reflect.Value) error {
		if w == nil {
			v.SetZero()
			return nil
		}
		for i, m := range members {
			tmp := reflect.New(m).Elem()
			if err := fns[i](w, tmp); err == nil {
				v.Set(tmp)
				return nil
			}
		}
		return valueErr(t, "%v matches no member of the union", w)
	}, nil
}

func newDateTimeUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		if secs, ok := epochSeconds(w); ok {
			v.Set(reflect.ValueOf(epochTime(secs)))
			return nil
		}
		s, ok := w.(string)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		tm, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			// Fall back to permissive parsing of common formats.
			tm, err = dateparse.ParseAny(s)
			if err != nil {
				return valueErr(t, "%q", s)
			}
		}
		v.Set(reflect.ValueOf(tm))
		return nil
	}
}

func newDateUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		if secs, ok := epochSeconds(w); ok {
			v.Set(reflect.ValueOf(DateOf(epochTime(secs))))
			return nil
		}
		s, ok := w.(string)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		d, err := ParseDate(s)
		if err != nil {
			tm, err := dateparse.ParseAny(s)
			if err != nil {
				return valueErr(t, "%q", s)
			}
			d = DateOf(tm)
		}
		v.Set(reflect.ValueOf(d))
		return nil
	}
}

func newTimeOfDayUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		if secs, ok := epochSeconds(w); ok {
			v.Set(reflect.ValueOf(TimeOfDayOf(epochTime(secs))))
			return nil
		}
		s, ok := w.(string)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		td, err := ParseTimeOfDay(s)
		if err != nil {
			return valueErr(t, "%q", s)
		}
		v.Set(reflect.ValueOf(td))
		return nil
	}
}

func newDurationUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		if secs, ok := epochSeconds(w); ok {
			ns := secs * float64(time.Second)
			if math.Abs(ns) > float64(math.MaxInt64) {
				return valueErr(t, "%v seconds overflows", secs)
			}
			v.SetInt(int64(time.Duration(ns)))
			return nil
		}
		s, ok := w.(string)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		d, err := parseISODuration(s)
		if err != nil {
			// Go's own "1h30m" notation is accepted as a fallback.
			d, err = time.ParseDuration(s)
			if err != nil {
				return valueErr(t, "%q", s)
			}
		}
		v.SetInt(int64(d))
		return nil
	}
}

func newUUIDUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		switch x := w.(type) {
		case string:
			id, err := uuid.Parse(x)
			if err != nil {
				return valueErr(t, "%q", x)
			}
			v.Set(reflect.ValueOf(id))
		case []byte:
			id, err := uuid.FromBytes(x)
			if err != nil {
				return valueErr(t, "%d bytes", len(x))
			}
			v.Set(reflect.ValueOf(id))
		case int64:
			// An integer input is the UUID's value, big-endian.
			u, err := safecast.Conv[uint64](x)
			if err != nil {
				return valueErr(t, "%d is negative", x)
			}
			v.Set(reflect.ValueOf(intUUID(u)))
		case uint64:
			v.Set(reflect.ValueOf(intUUID(x)))
		default:
			return valueErr(t, "%T value", w)
		}
		return nil
	}
}

func intUUID(u uint64) uuid.UUID {
	var raw [16]byte
	binary.BigEndian.PutUint64(raw[8:], u)
	return uuid.UUID(raw)
}

func newPatternUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		s, ok := w.(string)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return valueErr(t, "%q: %v", s, err)
		}
		v.Set(reflect.ValueOf(re))
		return nil
	}
}

func newDecimalUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		var d decimal.Decimal
		switch x := w.(type) {
		case string:
			var err error
			d, err = decimal.NewFromString(x)
			if err != nil {
				return valueErr(t, "%q", x)
			}
		case int64:
			d = decimal.NewFromInt(x)
		case uint64:
			d = decimal.NewFromUint64(x)
		case float64:
			d = decimal.NewFromFloat(x)
		default:
			return valueErr(t, "%T value", w)
		}
		v.Set(reflect.ValueOf(d))
		return nil
	}
}

func newRationalUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		r := new(big.Rat)
		switch x := w.(type) {
		case string:
			// SetString accepts both a/b notation and decimal text.
			if _, ok := r.SetString(x); !ok {
				return valueErr(t, "%q", x)
			}
		case int64:
			r.SetInt64(x)
		case uint64:
			r.SetUint64(x)
		case float64:
			if r.SetFloat64(x) == nil {
				return valueErr(t, "%v has no rational value", x)
			}
		case wire.List:
			if len(x) != 2 {
				return valueErr(t, "list of %d values", len(x))
			}
			num, ok1 := ratInt(x[0])
			den, ok2 := ratInt(x[1])
			if !ok1 || !ok2 || den == 0 {
				return valueErr(t, "%v", x)
			}
			r.SetFrac64(num, den)
		case *wire.Map:
			num, ok1 := x.Get("numerator")
			den, ok2 := x.Get("denominator")
			if !ok1 || !ok2 {
				return valueErr(t, "%v", x)
			}
			n, ok1 := ratInt(num)
			d, ok2 := ratInt(den)
			if !ok1 || !ok2 || d == 0 {
				return valueErr(t, "%v", x)
			}
			r.SetFrac64(n, d)
		default:
			return valueErr(t, "%T value", w)
		}
		v.Set(reflect.ValueOf(r))
		return nil
	}
}

func ratInt(w wire.Value) (int64, bool) {
	switch x := w.(type) {
	case int64:
		return x, true
	case uint64:
		n, err := safecast.Conv[int64](x)
		return n, err == nil
	}
	return 0, false
}

func newBytesUnmarshalFunc(t reflect.Type) unmarshalFunc {
	return func(w wire.Value, v reflect.Value) error {
		switch x := w.(type) {
		case []byte:
			v.SetBytes(bytes.Clone(x))
		case string:
			v.SetBytes([]byte(x))
		default:
			return valueErr(t, "%T value", w)
		}
		return nil
	}
}

// Pointers model optional values: wire null resets to nil, anything
// else allocates (if needed) and fills the pointed-to value.
func newPtrUnmarshalFunc(t reflect.Type, ctx typeContext[unmarshalFunc]) (unmarshalFunc, error) {
	elemFn, err := unmarshalChild(ctx, t.Elem())
	if err != nil {
		return nil, err
	}
	return func(w wire.Value, v reflect.Value) error {
		if w == nil {
			v.SetZero()
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return elemFn(w, v.Elem())
	}, nil
}

// newTupleUnmarshalFunc zips input positions against declared fields
// and stops at the shorter of the two: missing positions leave their
// fields zero, surplus positions are dropped.
func newTupleUnmarshalFunc(t reflect.Type, ctx typeContext[unmarshalFunc]) (unmarshalFunc, error) {
	fs, err := getStructInfo(t)
	if err != nil {
		return nil, typeErr(t, "getting struct info: %v", err)
	}
	fields := fs.StructFields
	fns := make([]unmarshalFunc, len(fields))
	for i, f := range fields {
		fn, err := unmarshalChild(ctx, f.Type)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return func(w wire.Value, v reflect.Value) error {
		list, ok := ingest(w).(wire.List)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		n := min(len(fields), len(list))
		for i := range n {
			if err := fns[i](list[i], fields[i].GetWithAlloc(v)); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func newMapUnmarshalFunc(t reflect.Type, ctx typeContext[unmarshalFunc]) (unmarshalFunc, error) {
	kt := t.Key()
	if !wireKeyKinds.Has(kt.Kind()) {
		return nil, typeErr(t, "invalid map key type %s", kt)
	}
	kFn, err := unmarshalChild(ctx, kt)
	if err != nil {
		return nil, err
	}
	vFn, err := unmarshalChild(ctx, t.Elem())
	if err != nil {
		return nil, err
	}
	return func(w wire.Value, v reflect.Value) error {
		if w == nil {
			v.SetZero()
			return nil
		}
		m, ok := ingest(w).(*wire.Map)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		out := reflect.MakeMapWithSize(t, m.Len())
		for _, p := range m.Pairs() {
			mk := reflect.New(kt).Elem()
			if err := kFn(p.Key, mk); err != nil {
				return err
			}
			mv := reflect.New(t.Elem()).Elem()
			if err := vFn(p.Value, mv); err != nil {
				return err
			}
			out.SetMapIndex(mk, mv)
		}
		v.Set(out)
		return nil
	}, nil
}

func newListUnmarshalFunc(t reflect.Type, ctx typeContext[unmarshalFunc]) (unmarshalFunc, error) {
	elemFn, err := unmarshalChild(ctx, t.Elem())
	if err != nil {
		return nil, err
	}
	if t.Kind() == reflect.Array {
		return func(w wire.Value, v reflect.Value) error {
			if w == nil {
				v.SetZero()
				return nil
			}
			list, ok := ingest(w).(wire.List)
			if !ok {
				return valueErr(t, "%T value", w)
			}
			v.SetZero()
			for i := range min(t.Len(), len(list)) {
				if err := elemFn(list[i], v.Index(i)); err != nil {
					return err
				}
			}
			return nil
		}, nil
	}
	return func(w wire.Value, v reflect.Value) error {
		if w == nil {
			v.SetZero()
			return nil
		}
		list, ok := ingest(w).(wire.List)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		out := reflect.MakeSlice(t, len(list), len(list))
		for i, elem := range list {
			if err := elemFn(elem, out.Index(i)); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil
	}, nil
}

// newStructUnmarshalFunc builds a name-keyed field table. A field
// whose type has no wire mapping is logged once at compile time and
// left out of the table; input for it is then silently dropped, as is
// input for names the struct never declared.
func newStructUnmarshalFunc(t reflect.Type, ctx typeContext[unmarshalFunc]) (unmarshalFunc, error) {
	fs, err := getStructInfo(t)
	if err != nil {
		return nil, typeErr(t, "getting struct info: %v", err)
	}

	type fieldEntry struct {
		field *structField
		fn    unmarshalFunc
	}
	table := make(map[string]fieldEntry, len(fs.StructFields))
	for _, f := range fs.StructFields {
		fn, err := unmarshalChild(ctx, f.Type)
		if err != nil {
			log().Warn("field has no wire mapping, input will be ignored",
				zap.String("struct", fs.Name),
				zap.String("field", f.Name),
				zap.Error(err))
			continue
		}
		table[f.Name] = fieldEntry{f, fn}
	}

	return func(w wire.Value, v reflect.Value) error {
		m, ok := ingest(w).(*wire.Map)
		if !ok {
			return valueErr(t, "%T value", w)
		}
		for _, p := range m.Pairs() {
			name, ok := p.Key.(string)
			if !ok {
				continue
			}
			f, ok := table[name]
			if !ok {
				continue
			}
			if err := f.fn(p.Value, f.field.GetWithAlloc(v)); err != nil {
				return err
			}
		}
		return nil
	}, nil
}
