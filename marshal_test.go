package typelib

import (
	"errors"
	"io"
	"math/big"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/typelib/typelib/wire"
)

var cmpOpts = []cmp.Option{
	cmp.Comparer(func(a, b *big.Rat) bool { return a.Cmp(b) == 0 }),
	cmp.Comparer(decimal.Decimal.Equal),
	cmp.Comparer(time.Time.Equal),
	cmp.Comparer(func(a, b *regexp.Regexp) bool { return a.String() == b.String() }),
}

func TestMarshalUnmarshal(t *testing.T) {
	type testCase struct {
		name   string
		native any
		wire   wire.Value
		back   any
	}
	ok := func(name string, native any, w wire.Value) testCase {
		return testCase{name, native, w, native}
	}
	asymmetric := func(name string, native any, w wire.Value, back any) testCase {
		return testCase{name, native, w, back}
	}

	tests := []testCase{
		ok("bool", true, true),
		ok("int", 42, int64(42)),
		ok("int negative", int16(-3), int64(-3)),
		ok("uint", uint16(7), uint64(7)),
		ok("float", 1.5, 1.5),
		ok("float32", float32(1.5), 1.5),
		ok("string", "foobar", "foobar"),
		ok("bytes", []byte("ab"), []byte("ab")),

		ok("slice", []string{"fo", "obar"}, wire.List{"fo", "obar"}),
		ok("array", [2]int64{7, 8}, wire.List{int64(7), int64(8)}),
		ok("nested slice", [][]int64{{1}, {2, 3}},
			wire.List{wire.List{int64(1)}, wire.List{int64(2), int64(3)}}),

		ok("map sorted", map[string]int64{"b": 2, "a": 1},
			wire.NewMap(
				wire.Pair{Key: "a", Value: int64(1)},
				wire.Pair{Key: "b", Value: int64(2)})),
		ok("map int keys", map[int64]string{2: "b", 1: "a"},
			wire.NewMap(
				wire.Pair{Key: int64(1), Value: "a"},
				wire.Pair{Key: int64(2), Value: "b"})),

		ok("struct", Simple{"x", 3},
			wire.NewMap(
				wire.Pair{Key: "A", Value: "x"},
				wire.Pair{Key: "B", Value: int64(3)})),
		ok("struct nested", Nested{1, Simple{"y", 2}},
			wire.NewMap(
				wire.Pair{Key: "A", Value: int64(1)},
				wire.Pair{Key: "B", Value: wire.NewMap(
					wire.Pair{Key: "A", Value: "y"},
					wire.Pair{Key: "B", Value: int64(2)})})),
		ok("struct embedded", Embedded{Simple{"z", 4}, 5},
			wire.NewMap(
				wire.Pair{Key: "A", Value: "z"},
				wire.Pair{Key: "B", Value: int64(4)},
				wire.Pair{Key: "C", Value: int64(5)})),
		asymmetric("struct embedded nil ptr", EmbeddedP{nil, 3},
			wire.NewMap(
				wire.Pair{Key: "A", Value: ""},
				wire.Pair{Key: "B", Value: int64(0)},
				wire.Pair{Key: "C", Value: int64(3)}),
			EmbeddedP{&Simple{}, 3}),
		ok("struct tags", Tagged{A: "a", B: "gone", C: "c"},
			wire.NewMap(
				wire.Pair{Key: "renamed", Value: "a"},
				wire.Pair{Key: "C", Value: "c"})),
		ok("struct any field", WithAny{int64(5)},
			wire.NewMap(wire.Pair{Key: "A", Value: int64(5)})),
		ok("struct unmappable field", WithChan{A: "x"},
			wire.NewMap(wire.Pair{Key: "A", Value: "x"})),

		ok("pointer", ptr("x"), "x"),
		ok("nil pointer", (*string)(nil), nil),
		ok("optional date", ptr(Date{2024, time.March, 5}), "2024-03-05"),

		ok("time", time.Date(2024, 3, 5, 12, 30, 45, 0, time.UTC),
			"2024-03-05T12:30:45Z"),
		ok("date", Date{2024, time.March, 5}, "2024-03-05"),
		ok("time of day", TimeOfDay{13, 14, 15, 0}, "13:14:15"),
		ok("duration", 90*time.Minute, "PT1H30M"),
		ok("zero duration", time.Duration(0), "PT0S"),
		ok("uuid", uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			"6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		ok("pattern", regexp.MustCompile("^a+$"), "^a+$"),
		ok("decimal", decimal.New(15, -1), "1.5"),
		ok("rational", big.NewRat(1, 3), "1/3"),
		ok("whole rational", big.NewRat(2, 1), "2"),

		ok("enum", Color("green"), "green"),
		ok("literal", Version(2), int64(2)),
		ok("tuple", Point{"x", 2}, wire.List{"x", int64(2)}),

		ok("recursive", Tree{Left: &Tree{}, Right: nil},
			wire.NewMap(
				wire.Pair{Key: "Left", Value: wire.NewMap(
					wire.Pair{Key: "Left", Value: nil},
					wire.Pair{Key: "Right", Value: nil})},
				wire.Pair{Key: "Right", Value: nil})),
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Marshal(tc.native)
			if err != nil {
				t.Fatalf("Marshal(%v): %v", tc.native, err)
			}
			if !wire.Equal(got, tc.wire) {
				t.Errorf("Marshal(%v) = %v, want %v", tc.native, got, tc.wire)
			}

			out := reflect.New(reflect.TypeOf(tc.back)).Interface()
			if err := Unmarshal(got, out); err != nil {
				t.Fatalf("Unmarshal(%v): %v", got, err)
			}
			gotBack := reflect.ValueOf(out).Elem().Interface()
			if diff := cmp.Diff(tc.back, gotBack, cmpOpts...); diff != "" {
				t.Errorf("Unmarshal(%v) wrong result (-want+got):\n%s", got, diff)
			}
		})
	}
}

func TestMarshalErrors(t *testing.T) {
	var typeError TypeError
	var valueError ValueError

	// A non-empty interface with no registered union cannot compile.
	if _, err := MarshallerFor(reflect.TypeFor[io.Reader]()); !errors.As(err, &typeError) {
		t.Errorf("MarshallerFor(io.Reader) = %v, want TypeError", err)
	}
	// The same failure must be memoized, not recomputed differently.
	_, err1 := MarshallerFor(reflect.TypeFor[io.Reader]())
	_, err2 := MarshallerFor(reflect.TypeFor[io.Reader]())
	if !errors.Is(err1, err2) && err1.Error() != err2.Error() {
		t.Errorf("memoized errors differ: %v vs %v", err1, err2)
	}

	// A value outside a literal's declared set does not marshal.
	if _, err := Marshal(Version(3)); !errors.As(err, &valueError) {
		t.Errorf("Marshal(Version(3)) = %v, want ValueError", err)
	}

	// Maps with unsupported key types cannot compile.
	if _, err := Marshal(map[[2]int]string{}); !errors.As(err, &typeError) {
		t.Errorf("Marshal(map with array key) = %v, want TypeError", err)
	}
}

func TestMarshalUnion(t *testing.T) {
	scalarType := reflect.TypeFor[Scalar]()

	w, err := MarshalAs(scalarType, int64(5))
	if err != nil || !wire.Equal(w, int64(5)) {
		t.Errorf("MarshalAs(Scalar, 5) = %v, %v, want 5", w, err)
	}
	w, err = MarshalAs(scalarType, "abc")
	if err != nil || !wire.Equal(w, "abc") {
		t.Errorf("MarshalAs(Scalar, abc) = %v, %v, want abc", w, err)
	}
	// Convertible values route to the first convertible member.
	w, err = MarshalAs(scalarType, int32(9))
	if err != nil || !wire.Equal(w, int64(9)) {
		t.Errorf("MarshalAs(Scalar, int32(9)) = %v, %v, want 9", w, err)
	}
	// Nil converts to wire null without probing members.
	w, err = MarshalAs(scalarType, nil)
	if err != nil || w != nil {
		t.Errorf("MarshalAs(Scalar, nil) = %v, %v, want nil", w, err)
	}

	var valueError ValueError
	if _, err := MarshalAs(scalarType, true); !errors.As(err, &valueError) {
		t.Errorf("MarshalAs(Scalar, true) = %v, want ValueError", err)
	}
}
