package pipe

import (
	"strings"
)

// LookupByKey finds the first item whose "key" field is key and returns
// its "value" field. A value that is a JSON array in text form is parsed.
// Returns false if no item matches. If parsing fails the error is reported
// and the result is null.
func LookupByKey(items []*Record, key string) (Value, bool) {
	return Default.LookupByKey(items, key)
}

func (c *Codec) LookupByKey(items []*Record, key string) (Value, bool) {
	for _, item := range items {
		k, ok := item.GetString("key")
		if !ok || k != key {
			continue
		}
		v, _ := item.Get("value")
		if v.kind != KindString {
			return v, true
		}
		s := v.s
		if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
			return v, true
		}
		parsed, err := ParseJSON([]byte(s))
		if err != nil {
			c.report(LevelError, "LookupByKey", s, err)
			return Null(), true
		}
		return parsed, true
	}
	return Undefined(), false
}
