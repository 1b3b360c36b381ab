package typelib

import (
	"reflect"

	"github.com/typelib/typelib/wire"
)

var anyType = reflect.TypeFor[any]()

// A Marshaller converts native values of one fixed type to their wire
// form. Marshallers are cheap to look up and safe for concurrent use.
type Marshaller struct {
	t  reflect.Type
	fn marshalFunc
}

var marshallerHandles cache[*Marshaller]

// MarshallerFor returns the marshaller for t, compiling it on first
// use. Marshallers are cached process-wide: calls with the same type
// return the identical handle. A nil t marshals untyped values as
// themselves.
func MarshallerFor(t reflect.Type) (*Marshaller, error) {
	if t == nil {
		t = anyType
	}
	return marshallerHandles.get(t, func(t reflect.Type) (*Marshaller, error) {
		fn, err := marshalFuncFor(t)
		if err != nil {
			return nil, err
		}
		return &Marshaller{t, fn}, nil
	})
}

// Type returns the native type this marshaller converts.
func (m *Marshaller) Type() reflect.Type { return m.t }

// Marshal converts v to its wire form. v must be a value of the
// marshaller's type, or losslessly convertible to it.
func (m *Marshaller) Marshal(v any) (wire.Value, error) {
	val := reflect.ValueOf(v)
	if !val.IsValid() {
		val = reflect.Zero(m.t)
	}
	if val.Type() != m.t && m.t.Kind() != reflect.Interface {
		if !convertibleMember(val.Type(), m.t) {
			return nil, typeErr(m.t, "cannot marshal value of type %s", val.Type())
		}
		val = val.Convert(m.t)
	}
	return m.fn(val)
}

// An Unmarshaller fills native values of one fixed type from their
// wire form. Unmarshallers are cheap to look up and safe for
// concurrent use.
type Unmarshaller struct {
	t  reflect.Type
	fn unmarshalFunc
}

var unmarshallerHandles cache[*Unmarshaller]

// UnmarshallerFor returns the unmarshaller for t, compiling it on
// first use. Unmarshallers are cached process-wide: calls with the
// same type return the identical handle.
func UnmarshallerFor(t reflect.Type) (*Unmarshaller, error) {
	if t == nil {
		t = anyType
	}
	return unmarshallerHandles.get(t, func(t reflect.Type) (*Unmarshaller, error) {
		fn, err := unmarshalFuncFor(t)
		if err != nil {
			return nil, err
		}
		return &Unmarshaller{t, fn}, nil
	})
}

// Type returns the native type this unmarshaller fills.
func (u *Unmarshaller) Type() reflect.Type { return u.t }

// Unmarshal fills *into from w. into must be a non-nil pointer to a
// value of the unmarshaller's type.
func (u *Unmarshaller) Unmarshal(w wire.Value, into any) error {
	val := reflect.ValueOf(into)
	if !val.IsValid() || val.Kind() != reflect.Pointer || val.IsNil() {
		return typeErr(u.t, "unmarshal target must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Type() != u.t {
		return typeErr(u.t, "unmarshal target is a %s", elem.Type())
	}
	return u.fn(w, elem)
}

// Marshal converts v to its wire form, inferring the conversion from
// v's dynamic type.
func Marshal(v any) (wire.Value, error) {
	m, err := MarshallerFor(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	return m.Marshal(v)
}

// MarshalAs converts v to its wire form using the routine for t
// rather than v's own type. This is how values are marshalled through
// a registered union or other interface view of the value.
func MarshalAs(t reflect.Type, v any) (wire.Value, error) {
	m, err := MarshallerFor(t)
	if err != nil {
		return nil, err
	}
	return m.Marshal(v)
}

// Unmarshal fills *into from w. into must be a non-nil pointer; the
// conversion routine is chosen by the pointed-to type.
func Unmarshal(w wire.Value, into any) error {
	val := reflect.ValueOf(into)
	if !val.IsValid() || val.Kind() != reflect.Pointer || val.IsNil() {
		return typeErr(reflect.TypeOf(into), "unmarshal target must be a non-nil pointer")
	}
	u, err := UnmarshallerFor(val.Type().Elem())
	if err != nil {
		return err
	}
	return u.fn(w, val.Elem())
}

// UnmarshalAs converts w to a value of type T.
func UnmarshalAs[T any](w wire.Value) (T, error) {
	var out T
	err := Unmarshal(w, &out)
	return out, err
}
