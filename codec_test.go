package typelib

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// Data mirrors the simplest record a caller would push through a
// codec end to end.
type Data struct {
	Field string `typelib:"field"`
	Value int64  `typelib:"value"`
}

func TestCodecJSON(t *testing.T) {
	c, err := CodecFor[Data]()
	if err != nil {
		t.Fatalf("CodecFor: %v", err)
	}

	got, err := c.Encode(Data{Field: "field"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := `{"field":"field","value":0}`; string(got) != want {
		t.Errorf("Encode = %s, want %s", got, want)
	}

	back, err := c.Decode(got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := (Data{Field: "field"}); back != want {
		t.Errorf("Decode = %+v, want %+v", back, want)
	}
}

func TestCodecMsgpack(t *testing.T) {
	c, err := CodecFor[Data](WithEncoding(Msgpack))
	if err != nil {
		t.Fatalf("CodecFor: %v", err)
	}
	in := Data{Field: "x", Value: -7}
	data, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back != in {
		t.Errorf("round trip = %+v, want %+v", back, in)
	}
}

func TestCodecBytesPassThrough(t *testing.T) {
	c, err := CodecFor[[]byte]()
	if err != nil {
		t.Fatalf("CodecFor: %v", err)
	}
	raw := []byte{0x00, 0xff, 0x10}
	data, err := c.Encode(raw)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(data, raw) {
		t.Errorf("Encode = %x, want %x", data, raw)
	}
	back, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Errorf("Decode = %x, want %x", back, raw)
	}
}

func TestCodecComplexRoundTrip(t *testing.T) {
	type record struct {
		When     time.Time
		Retry    time.Duration
		Deadline *Date
		Tags     []string
		Extra    map[string]int64
	}
	c, err := CodecFor[record]()
	if err != nil {
		t.Fatalf("CodecFor: %v", err)
	}
	in := record{
		When:     time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
		Retry:    90 * time.Second,
		Deadline: ptr(Date{2024, time.April, 1}),
		Tags:     []string{"a", "b"},
		Extra:    map[string]int64{"n": 1},
	}
	data, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(in, back, cmpOpts...); diff != "" {
		t.Errorf("round trip (-want+got):\n%s", diff)
	}
}
