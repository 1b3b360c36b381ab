package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// EncodeJSON renders v as compact JSON. Map entries are written in
// insertion order. Non-string map keys are rendered as their JSON
// text and quoted, since JSON object keys must be strings. Byte
// slices are rendered as base64 strings.
func EncodeJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("wire: cannot encode %v as JSON", val)
		}
		b, _ := json.Marshal(val)
		buf.Write(b)
	case string:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case []byte:
		buf.WriteByte('"')
		buf.WriteString(base64.StdEncoding.EncodeToString(val))
		buf.WriteByte('"')
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Map:
		buf.WriteByte('{')
		for i, p := range val.Pairs() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSONKey(buf, p.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := appendJSON(buf, p.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("wire: cannot encode %T as JSON", v)
	}
	return nil
}

func appendJSONKey(buf *bytes.Buffer, k Value) error {
	if s, ok := k.(string); ok {
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
	// JSON object keys must be strings: render the key's JSON text
	// and quote it.
	var inner bytes.Buffer
	if err := appendJSON(&inner, k); err != nil {
		return err
	}
	buf.WriteByte('"')
	buf.Write(inner.Bytes())
	buf.WriteByte('"')
	return nil
}

// DecodeJSON parses JSON into a [Value]. Object entries retain
// document order. Numbers decode as int64 when they are integral and
// fit, as uint64 when they are integral, positive and only fit there,
// and as float64 otherwise.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	// Trailing garbage after the first value is malformed input.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("wire: trailing data after JSON value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		return t, nil
	case json.Number:
		return decodeJSONNumber(t)
	case json.Delim:
		switch t {
		case '[':
			list := List{}
			for dec.More() {
				elem, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, elem)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return list, nil
		case '{':
			m := NewMap()
			for dec.More() {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key.(string), val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return m, nil
		}
	}
	return nil, fmt.Errorf("wire: unexpected JSON token %v", tok)
}

func decodeJSONNumber(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return f, nil
}
