package pipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// ParseJSON parses strict JSON into a Value.
// Unlike json.Unmarshal into map[string]any it keeps the order of keys.
func ParseJSON(d []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return Value{}, err
	}
	// JSON.parse() rejects anything after the value
	if _, err = dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return Value{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		// out of range numbers become +/-Inf, like JSON.parse()
		f, _ := strconv.ParseFloat(string(t), 64)
		return Number(f), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, v)
			}
			if _, err = dec.Token(); err != nil {
				return Value{}, err
			}
			return List(items...), nil
		case '{':
			rec := NewRecord()
			for dec.More() {
				tok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := tok.(string)
				if !ok {
					return Value{}, fmt.Errorf("expected object key, got %v", tok)
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, fmt.Errorf("object[%q]: %w", key, err)
				}
				rec.Set(key, v)
			}
			if _, err = dec.Token(); err != nil {
				return Value{}, err
			}
			return Obj(rec), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// MarshalJSON serializes v the way JSON.stringify does:
// undefined record values are omitted, undefined list items
// and non-finite numbers become null
func MarshalJSON(v Value) []byte {
	var buf bytes.Buffer
	writeJSON(&buf, v)
	return buf.Bytes()
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	// avoid unnecessary escaping
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode adds a newline
	buf.Truncate(buf.Len() - 1)
}

func writeJSON(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindUndefined, KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			buf.WriteString("null")
			return
		}
		buf.WriteString(formatNumber(v.n))
	case KindString:
		writeJSONString(buf, v.s)
	case KindList:
		buf.WriteByte('[')
		for i, el := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSON(buf, el)
		}
		buf.WriteByte(']')
	case KindRecord:
		buf.WriteByte('{')
		first := true
		for _, e := range v.rec.entries {
			if e.Value.IsUndefined() {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONString(buf, e.Key)
			buf.WriteByte(':')
			writeJSON(buf, e.Value)
		}
		buf.WriteByte('}')
	}
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	return MarshalJSON(v), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(d []byte) error {
	res, err := ParseJSON(d)
	if err != nil {
		return err
	}
	*v = res
	return nil
}

// FromAny converts Go values (as produced by json.Unmarshal or
// written by hand) to a Value. Maps are converted with sorted keys.
func FromAny(a any) (Value, error) {
	switch t := a.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Record:
		return Obj(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return List(items...), nil
	case []any:
		items := make([]Value, len(t))
		for i, el := range t {
			v, err := FromAny(el)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec := NewRecord()
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("[%q]: %w", k, err)
			}
			rec.Set(k, v)
		}
		return Obj(rec), nil
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec := NewRecord()
		for _, k := range keys {
			rec.Set(k, String(t[k]))
		}
		return Obj(rec), nil
	}
	return Value{}, fmt.Errorf("unsupported type %T", a)
}

// Any converts v to plain Go values: nil, bool, float64, string,
// []any and map[string]any. Undefined record values are dropped.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		res := make([]any, len(v.list))
		for i, el := range v.list {
			res[i] = el.Any()
		}
		return res
	case KindRecord:
		res := make(map[string]any, v.rec.Len())
		for _, e := range v.rec.entries {
			if e.Value.IsUndefined() {
				continue
			}
			res[e.Key] = e.Value.Any()
		}
		return res
	}
	return nil
}
