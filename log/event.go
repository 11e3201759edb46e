package log

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/toon-format/toon-go"
)

// every event record starts with a header line:
// --- <size of data> <unix time in ms> <name>
var eventHdrPrefix = []byte("--- ")

// MarshalEvent frames toon-encoded data d as an event record
func MarshalEvent(name string, t time.Time, d []byte) []byte {
	var wb bytes.Buffer
	wb.Grow(len(eventHdrPrefix) + len(name) + len(d) + 32)
	wb.Write(eventHdrPrefix)
	wb.WriteString(strconv.Itoa(len(d)))
	wb.WriteByte(' ')
	wb.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	if name != "" {
		wb.WriteByte(' ')
		wb.WriteString(name)
	}
	wb.WriteByte('\n')
	if n := len(d); n > 0 {
		wb.Write(d)
		// for readability each record ends with a newline
		if d[n-1] != '\n' {
			wb.WriteByte('\n')
		}
	}
	return wb.Bytes()
}

// keyToStr converts simple types to string, panics on complex types
func keyToStr(v any) string {
	kind := reflect.TypeOf(v).Kind()
	switch kind {
	case reflect.Array, reflect.Slice, reflect.Struct, reflect.Map, reflect.Chan, reflect.Interface, reflect.Pointer:
		panic(fmt.Sprintf("keyToStr: key is of kind %v", kind))
	case reflect.String:
		return v.(string)
	}
	return fmt.Sprint(v)
}

// EncodeEvent encodes key/value pairs with toon
func EncodeEvent(vals ...any) ([]byte, error) {
	n := len(vals)
	if n%2 != 0 {
		return nil, fmt.Errorf("odd number of values (%d)", n)
	}
	if n == 0 {
		return nil, nil
	}
	m := map[string]any{}
	for i := 0; i < n; i += 2 {
		m[keyToStr(vals[i])] = vals[i+1]
	}
	return toon.Marshal(m)
}

// Event logs key/value pairs as a toon record in events log
func Event(name string, vals ...any) {
	d, err := EncodeEvent(vals...)
	if err != nil {
		Errorf("log.Event('%s'): %s", name, err)
		return
	}
	mu.Lock()
	w := eventsLog
	mu.Unlock()
	_ = w.Write(MarshalEvent(name, time.Now(), d))
}

func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durms", float64(dur.Microseconds())/1000.0)
	Event(name, vals...)
}
