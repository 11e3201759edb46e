package pipe

import (
	"strings"
)

// stringCoercer tries to turn a trimmed string into a typed value
type stringCoercer func(c *Codec, t string) (Value, bool)

// order matters: first coercer that succeeds wins
var stringCoercers []stringCoercer

// set in init because coerceBlock and coerceJSON recurse into Normalize
func init() {
	stringCoercers = []stringCoercer{
		coerceBlock,
		coerceJSON,
		coerceBool,
		coerceNumber,
	}
}

func coerceBlock(c *Codec, t string) (Value, bool) {
	if !strings.ContainsAny(t, "\n|") {
		return Value{}, false
	}
	return c.Normalize(c.DecodeBlock(t)), true
}

func coerceJSON(c *Codec, t string) (Value, bool) {
	if !looksLikeLiteral(t) {
		return Value{}, false
	}
	v, err := ParseJSON([]byte(t))
	if err != nil {
		c.debug("Normalize", t, err)
		return Value{}, false
	}
	return c.Normalize(v), true
}

func coerceBool(c *Codec, t string) (Value, bool) {
	switch strings.ToLower(t) {
	case "true":
		return Bool(true), true
	case "false":
		return Bool(false), true
	}
	return Value{}, false
}

// coerceNumber only accepts text that formats back to itself
// so "007" or "1e2" stay strings
func coerceNumber(c *Codec, t string) (Value, bool) {
	n, ok := toNumber(t)
	if !ok || !isFinite(n) || formatNumber(n) != t {
		return Value{}, false
	}
	return Number(n), true
}

// Normalize returns a copy of v with string values converted to
// the types they look like: pipe blocks, JSON, booleans, numbers.
// Strings that don't look like anything are kept unchanged.
func Normalize(v Value) Value {
	return Default.Normalize(v)
}

func (c *Codec) Normalize(v Value) Value {
	switch v.kind {
	case KindString:
		t := trim(v.s)
		for _, coerce := range stringCoercers {
			if res, ok := coerce(c, t); ok {
				return res
			}
		}
		return v
	case KindList:
		items := make([]Value, len(v.list))
		for i, el := range v.list {
			items[i] = c.Normalize(el)
		}
		return List(items...)
	case KindRecord:
		rec := NewRecord()
		for _, e := range v.rec.entries {
			rec.Set(e.Key, c.Normalize(e.Value))
		}
		return Obj(rec)
	}
	return v
}
