package typelib

import (
	"bytes"
	"reflect"

	"github.com/typelib/typelib/wire"
)

// An Encoding renders wire values as bytes and parses them back.
type Encoding interface {
	Encode(wire.Value) ([]byte, error)
	Decode([]byte) (wire.Value, error)
}

// JSON is the default [Encoding]: compact JSON with map entries in
// wire order.
var JSON Encoding = jsonEncoding{}

// Msgpack is a binary [Encoding] built on the msgpack format.
var Msgpack Encoding = msgpackEncoding{}

type jsonEncoding struct{}

func (jsonEncoding) Encode(v wire.Value) ([]byte, error) { return wire.EncodeJSON(v) }
func (jsonEncoding) Decode(b []byte) (wire.Value, error) { return wire.DecodeJSON(b) }

type msgpackEncoding struct{}

func (msgpackEncoding) Encode(v wire.Value) ([]byte, error) { return wire.EncodeMsgpack(v) }
func (msgpackEncoding) Decode(b []byte) (wire.Value, error) { return wire.DecodeMsgpack(b) }

// A Codec converts values of type T directly to bytes and back,
// composing T's conversion routines with an [Encoding]. A Codec is
// safe for concurrent use.
type Codec[T any] struct {
	enc Encoding
	m   *Marshaller
	u   *Unmarshaller
	raw bool
}

// A CodecOption adjusts how [CodecFor] assembles a codec.
type CodecOption func(*codecOptions)

type codecOptions struct {
	enc Encoding
}

// WithEncoding selects the byte encoding of the codec. The default is
// [JSON].
func WithEncoding(e Encoding) CodecOption {
	return func(o *codecOptions) { o.enc = e }
}

// CodecFor returns the codec for T, compiling T's conversion routines
// on first use.
//
// A []byte codec passes data through untouched in both directions:
// the value already is its own encoding.
func CodecFor[T any](opts ...CodecOption) (*Codec[T], error) {
	o := codecOptions{enc: JSON}
	for _, opt := range opts {
		opt(&o)
	}
	t := reflect.TypeFor[T]()
	if t == bytesType {
		return &Codec[T]{enc: o.enc, raw: true}, nil
	}
	m, err := MarshallerFor(t)
	if err != nil {
		return nil, err
	}
	u, err := UnmarshallerFor(t)
	if err != nil {
		return nil, err
	}
	return &Codec[T]{enc: o.enc, m: m, u: u}, nil
}

// Encode renders v as bytes.
func (c *Codec[T]) Encode(v T) ([]byte, error) {
	if c.raw {
		return bytes.Clone(any(v).([]byte)), nil
	}
	w, err := c.m.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.enc.Encode(w)
}

// Decode parses data into a value of type T.
func (c *Codec[T]) Decode(data []byte) (T, error) {
	var out T
	if c.raw {
		out = any(bytes.Clone(data)).(T)
		return out, nil
	}
	w, err := c.enc.Decode(data)
	if err != nil {
		return out, err
	}
	err = c.u.Unmarshal(w, &out)
	return out, err
}
