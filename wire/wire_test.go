package wire

import (
	"math"
	"testing"
)

func TestMapOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", int64(2))
	m.Set("a", int64(1))
	m.Set("b", int64(3)) // overwrite keeps position

	want := []Pair{{"b", int64(3)}, {"a", int64(1)}}
	got := m.Pairs()
	if len(got) != len(want) {
		t.Fatalf("Pairs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pairs[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if v, ok := m.Get("b"); !ok || v != int64(3) {
		t.Errorf("Get(b) = %v, %v, want 3, true", v, ok)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", nil, `null`},
		{"bool", true, `true`},
		{"int", int64(-42), `-42`},
		{"uint", uint64(math.MaxUint64), `18446744073709551615`},
		{"float", 1.5, `1.5`},
		{"string", "hi\n", `"hi\n"`},
		{"list", List{int64(1), "a", nil}, `[1,"a",null]`},
		{"map keeps order", NewMap(
			Pair{Key: "b", Value: int64(2)},
			Pair{Key: "a", Value: int64(1)}), `{"b":2,"a":1}`},
		{"non-string key", NewMap(
			Pair{Key: int64(1), Value: "x"}), `{"1":"x"}`},
		{"nested", NewMap(
			Pair{Key: "l", Value: List{NewMap(Pair{Key: "k", Value: false})}}),
			`{"l":[{"k":false}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeJSON(tc.v)
			if err != nil {
				t.Fatalf("EncodeJSON: %v", err)
			}
			if string(data) != tc.want {
				t.Errorf("EncodeJSON = %s, want %s", data, tc.want)
			}
			back, err := DecodeJSON(data)
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			// Non-string keys do not survive JSON, so compare via
			// re-encoding.
			again, err := EncodeJSON(back)
			if err != nil {
				t.Fatalf("re-EncodeJSON: %v", err)
			}
			if string(again) != tc.want {
				t.Errorf("round trip = %s, want %s", again, tc.want)
			}
		})
	}
}

func TestJSONErrors(t *testing.T) {
	if _, err := EncodeJSON(math.NaN()); err == nil {
		t.Error("EncodeJSON(NaN) succeeded, want error")
	}
	if _, err := DecodeJSON([]byte(`{"a":1} trailing`)); err == nil {
		t.Error("DecodeJSON accepted trailing data")
	}
	if _, err := DecodeJSON([]byte(`{`)); err == nil {
		t.Error("DecodeJSON accepted truncated input")
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
	}{
		{"null", nil},
		{"bool", false},
		{"int", int64(-42)},
		{"big uint", uint64(math.MaxUint64)},
		{"float", 2.25},
		{"string", "hello"},
		{"bytes", []byte{0x00, 0xff}},
		{"list", List{int64(1), "a", nil}},
		{"map keeps order", NewMap(
			Pair{Key: "b", Value: int64(2)},
			Pair{Key: "a", Value: List{true}})},
		{"int keys", NewMap(
			Pair{Key: int64(2), Value: "x"},
			Pair{Key: int64(1), Value: "y"})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeMsgpack(tc.v)
			if err != nil {
				t.Fatalf("EncodeMsgpack: %v", err)
			}
			back, err := DecodeMsgpack(data)
			if err != nil {
				t.Fatalf("DecodeMsgpack: %v", err)
			}
			if !Equal(tc.v, back) {
				t.Errorf("round trip = %v, want %v", back, tc.v)
			}
		})
	}
}

func TestMsgpackErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		// fixmap{[1]: 2}: a list is not a usable map key.
		{"list key", []byte{0x81, 0x91, 0x01, 0x02}},
		// fixmap{{}: 2}: neither is a map.
		{"map key", []byte{0x81, 0x80, 0x02}},
		// bin8 key: bytes are not comparable.
		{"bytes key", []byte{0x81, 0xc4, 0x01, 0x61, 0x02}},
		{"truncated", []byte{0x81, 0x01}},
		{"empty", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if v, err := DecodeMsgpack(tc.data); err == nil {
				t.Errorf("DecodeMsgpack(%x) = %v, want error", tc.data, v)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{nil, nil, true},
		{int64(1), int64(1), true},
		{int64(1), uint64(1), false},
		{[]byte("ab"), []byte("ab"), true},
		{[]byte("ab"), "ab", false},
		{List{int64(1)}, List{int64(1)}, true},
		{List{int64(1)}, List{int64(2)}, false},
		{
			NewMap(Pair{Key: "a", Value: int64(1)}, Pair{Key: "b", Value: int64(2)}),
			NewMap(Pair{Key: "a", Value: int64(1)}, Pair{Key: "b", Value: int64(2)}),
			true,
		},
		{
			// Same entries, different order.
			NewMap(Pair{Key: "a", Value: int64(1)}, Pair{Key: "b", Value: int64(2)}),
			NewMap(Pair{Key: "b", Value: int64(2)}, Pair{Key: "a", Value: int64(1)}),
			false,
		},
	}
	for _, tc := range tests {
		if got := Equal(tc.a, tc.b); got != tc.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
