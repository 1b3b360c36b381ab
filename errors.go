package typelib

import (
	"fmt"
	"reflect"
)

// TypeError is the error returned when a type cannot be represented
// in the wire value model, reported while compiling a routine.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the type isn't representable.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("typelib cannot represent %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := ""
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}

// ValueError is the error returned when a value cannot be converted
// to or from its wire representation: a literal-membership violation,
// union exhaustion, or input that fails every parse strategy for the
// target type.
type ValueError struct {
	// Type is the name of the type the value was bound to.
	Type string
	// Reason is an explanation of why the value doesn't convert.
	Reason error
}

func (e ValueError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("typelib: %s", e.Reason)
	}
	return fmt.Sprintf("typelib: cannot convert to %s: %s", e.Type, e.Reason)
}

func (e ValueError) Unwrap() error {
	return e.Reason
}

func valueErr(t reflect.Type, reason string, args ...any) error {
	ts := ""
	if t != nil {
		ts = t.String()
	}
	return ValueError{ts, fmt.Errorf(reason, args...)}
}
