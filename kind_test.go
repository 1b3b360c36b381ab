package typelib

import (
	"io"
	"math/big"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want kind
	}{
		{nil, kindAny},
		{reflect.TypeFor[any](), kindAny},
		{reflect.TypeFor[io.Reader](), kindInvalid},
		{reflect.TypeFor[chan int](), kindInvalid},
		{reflect.TypeFor[func()](), kindInvalid},

		{reflect.TypeFor[Version](), kindLiteral},
		{reflect.TypeFor[Scalar](), kindUnion},
		{reflect.TypeFor[Color](), kindEnum},
		{reflect.TypeFor[Point](), kindTuple},

		{reflect.TypeFor[time.Time](), kindDateTime},
		{reflect.TypeFor[Date](), kindDate},
		{reflect.TypeFor[TimeOfDay](), kindTimeOfDay},
		{reflect.TypeFor[time.Duration](), kindDuration},
		{reflect.TypeFor[uuid.UUID](), kindUUID},
		{reflect.TypeFor[*regexp.Regexp](), kindPattern},
		{reflect.TypeFor[decimal.Decimal](), kindDecimal},
		{reflect.TypeFor[*big.Rat](), kindRational},

		{reflect.TypeFor[bool](), kindBool},
		{reflect.TypeFor[int32](), kindInt},
		{reflect.TypeFor[uint8](), kindUint},
		{reflect.TypeFor[float64](), kindFloat},
		{reflect.TypeFor[string](), kindString},
		{reflect.TypeFor[[]byte](), kindBytes},

		{reflect.TypeFor[*string](), kindPointer},
		{reflect.TypeFor[[]string](), kindList},
		{reflect.TypeFor[[4]int](), kindList},
		{reflect.TypeFor[map[string]int](), kindMap},
		{reflect.TypeFor[Simple](), kindStruct},
	}
	for _, tc := range tests {
		if got := kindOf(tc.typ); got != tc.want {
			t.Errorf("kindOf(%v) = %v, want %v", tc.typ, got, tc.want)
		}
	}
}
