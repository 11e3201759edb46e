package pipe

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the type tag of a Value
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindList
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	}
	return "unknown"
}

// Value is one of: undefined, null, bool, number, string, list of values
// or a Record. The zero Value is undefined.
// Values are treated as immutable: operations that transform them
// build new values.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	rec  *Record
}

func Undefined() Value {
	return Value{}
}

func Null() Value {
	return Value{kind: KindNull}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func Number(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// List creates a list value. A nil slice is an empty list.
func List(vals ...Value) Value {
	if vals == nil {
		vals = []Value{}
	}
	return Value{kind: KindList, list: vals}
}

// Obj wraps a record. A nil record is an empty record.
func Obj(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}
	return Value{kind: KindRecord, rec: r}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsUndefined() bool {
	return v.kind == KindUndefined
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Bool returns the boolean, false if v is not a bool
func (v Value) Bool() bool {
	return v.b
}

// Num returns the number, 0 if v is not a number
func (v Value) Num() float64 {
	return v.n
}

// Str returns the string, "" if v is not a string
func (v Value) Str() string {
	return v.s
}

// Items returns list elements, nil if v is not a list
func (v Value) Items() []Value {
	return v.list
}

// Record returns the record, nil if v is not a record
func (v Value) Record() *Record {
	return v.rec
}

// Equal compares values deeply. Key order of records doesn't matter.
// NaN is equal to NaN so that round-trip checks are stable.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		if math.IsNaN(v.n) && math.IsNaN(o.n) {
			return true
		}
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		return v.rec.Equal(o.rec)
	}
	return false
}

// String renders v in the loose literal form, mostly for debugging
// and test failure messages
func (v Value) String() string {
	var sb strings.Builder
	writeLoose(&sb, v, false)
	return sb.String()
}

// GoString makes %#v readable in test output
func (v Value) GoString() string {
	return fmt.Sprintf("pipe.Value{%s: %s}", v.kind, v.String())
}
