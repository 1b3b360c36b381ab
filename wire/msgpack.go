package wire

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// EncodeMsgpack renders v as MessagePack. Unlike JSON, map keys keep
// their primitive types on the wire and byte slices encode as bin
// values.
func EncodeMsgpack(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeMsgpackValue(enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeMsgpackValue(enc *msgpack.Encoder, v Value) error {
	switch val := v.(type) {
	case nil:
		return enc.EncodeNil()
	case bool:
		return enc.EncodeBool(val)
	case int64:
		return enc.EncodeInt(val)
	case uint64:
		return enc.EncodeUint(val)
	case float64:
		return enc.EncodeFloat64(val)
	case string:
		return enc.EncodeString(val)
	case []byte:
		return enc.EncodeBytes(val)
	case List:
		if err := enc.EncodeArrayLen(len(val)); err != nil {
			return err
		}
		for _, elem := range val {
			if err := encodeMsgpackValue(enc, elem); err != nil {
				return err
			}
		}
		return nil
	case *Map:
		if err := enc.EncodeMapLen(val.Len()); err != nil {
			return err
		}
		for _, p := range val.Pairs() {
			if err := encodeMsgpackValue(enc, p.Key); err != nil {
				return err
			}
			if err := encodeMsgpackValue(enc, p.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("wire: cannot encode %T as msgpack", v)
}

// DecodeMsgpack parses MessagePack into a [Value], preserving map
// entry order.
func DecodeMsgpack(data []byte) (Value, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	return decodeMsgpackValue(dec)
}

func decodeMsgpackValue(dec *msgpack.Decoder) (Value, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case code == msgpcode.Nil:
		return nil, dec.DecodeNil()
	case code == msgpcode.True, code == msgpcode.False:
		return dec.DecodeBool()
	case code == msgpcode.Float, code == msgpcode.Double:
		return dec.DecodeFloat64()
	case code == msgpcode.Uint8, code == msgpcode.Uint16,
		code == msgpcode.Uint32, code == msgpcode.Uint64:
		return dec.DecodeUint64()
	case msgpcode.IsFixedNum(code),
		code == msgpcode.Int8, code == msgpcode.Int16,
		code == msgpcode.Int32, code == msgpcode.Int64:
		return dec.DecodeInt64()
	case msgpcode.IsFixedString(code), code == msgpcode.Str8,
		code == msgpcode.Str16, code == msgpcode.Str32:
		return dec.DecodeString()
	case code == msgpcode.Bin8, code == msgpcode.Bin16, code == msgpcode.Bin32:
		return dec.DecodeBytes()
	case msgpcode.IsFixedArray(code), code == msgpcode.Array16, code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		list := make(List, 0, n)
		for range n {
			elem, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil
	case msgpcode.IsFixedMap(code), code == msgpcode.Map16, code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		m := NewMap()
		for range n {
			key, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			// Map keys must be usable as Go map keys.
			switch key.(type) {
			case bool, int64, uint64, float64, string:
			default:
				return nil, fmt.Errorf("wire: msgpack map key must be a primitive, got %T", key)
			}
			val, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	}
	return nil, fmt.Errorf("wire: unsupported msgpack code %#x", code)
}
