package typelib

import (
	"math/big"
	"reflect"
	"regexp"
	"time"

	"github.com/creachadair/mds/mapset"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// kind is the closed classification of a type, computed once per type
// from reflection plus the registry. Declaration order mirrors the
// priority of the selection rules: registry-driven kinds are checked
// before dedicated value kinds, value kinds before plain scalars,
// scalars before container shapes, and structured records are the
// final fallback.
type kind int

const (
	kindInvalid kind = iota
	kindAny
	kindLiteral
	kindUnion
	kindEnum
	kindDateTime
	kindDate
	kindTimeOfDay
	kindDuration
	kindUUID
	kindPattern
	kindDecimal
	kindRational
	kindBool
	kindInt
	kindUint
	kindFloat
	kindString
	kindBytes
	kindPointer
	kindTuple
	kindMap
	kindList
	kindStruct
)

var (
	timeType      = reflect.TypeFor[time.Time]()
	durationType  = reflect.TypeFor[time.Duration]()
	dateType      = reflect.TypeFor[Date]()
	timeOfDayType = reflect.TypeFor[TimeOfDay]()
	uuidType      = reflect.TypeFor[uuid.UUID]()
	decimalType   = reflect.TypeFor[decimal.Decimal]()
	ratType       = reflect.TypeFor[*big.Rat]()
	patternType   = reflect.TypeFor[*regexp.Regexp]()
	bytesType     = reflect.TypeFor[[]byte]()
)

// wireKeyKinds is the set of reflect.Kinds usable as wire map keys.
var wireKeyKinds = mapset.New(
	reflect.Bool,
	reflect.Int,
	reflect.Int8,
	reflect.Int16,
	reflect.Int32,
	reflect.Int64,
	reflect.Uint,
	reflect.Uint8,
	reflect.Uint16,
	reflect.Uint32,
	reflect.Uint64,
	reflect.Float32,
	reflect.Float64,
	reflect.String,
)

// kindOf classifies t. A nil type (an untyped position) classifies as
// kindAny: values pass through unconverted.
func kindOf(t reflect.Type) kind {
	if t == nil {
		return kindAny
	}
	if _, ok := literalValues(t); ok {
		return kindLiteral
	}
	if _, ok := unionMembers(t); ok {
		return kindUnion
	}
	if _, ok := enumMembers(t); ok {
		return kindEnum
	}
	// Dedicated value kinds shadow the reflect.Kind they happen to
	// have: time.Duration is an int64, uuid.UUID an array,
	// decimal.Decimal a struct.
	switch t {
	case timeType:
		return kindDateTime
	case dateType:
		return kindDate
	case timeOfDayType:
		return kindTimeOfDay
	case durationType:
		return kindDuration
	case uuidType:
		return kindUUID
	case patternType:
		return kindPattern
	case decimalType:
		return kindDecimal
	case ratType:
		return kindRational
	}
	if isTupleType(t) {
		return kindTuple
	}
	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return kindAny
		}
		// A non-empty interface with no registered union has no
		// wire representation.
		return kindInvalid
	case reflect.Pointer:
		return kindPointer
	case reflect.Bool:
		return kindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindUint
	case reflect.Float32, reflect.Float64:
		return kindFloat
	case reflect.String:
		return kindString
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return kindBytes
		}
		return kindList
	case reflect.Array:
		return kindList
	case reflect.Map:
		return kindMap
	case reflect.Struct:
		return kindStruct
	}
	return kindInvalid
}
