package pipe

import (
	"errors"
	"fmt"
	"strings"
)

/*
Block format: one record per line, fields separated with '|':

	id:'a1'|date:'1/2/2026'|count:3
	id:'a2'|tags:['x','y']

Values are formatted with FormatValue and parsed with ParseValue.

When decoding, presence of '|' anywhere in the text means "list of
records". Without it all lines are merged into a single record.
*/

var errNotList = errors.New("input must be a list of records")

// DecodeLine decodes a single line into a record.
// Segments without ':' or with an empty key are skipped.
func (c *Codec) DecodeLine(line string) *Record {
	rec := NewRecord()
	for _, seg := range strings.Split(line, "|") {
		idx := strings.IndexByte(seg, ':')
		if idx <= 0 {
			continue
		}
		key := trim(seg[:idx])
		if key == "" {
			continue
		}
		rec.Set(key, c.ParseValue(trim(seg[idx+1:])))
	}
	return rec
}

func DecodeLine(line string) *Record {
	return Default.DecodeLine(line)
}

// DecodeBlock decodes text into a list of records (if it contains '|')
// or into a single record merged from all lines (if it doesn't).
// Empty text decodes to an empty list.
func DecodeBlock(raw string) Value {
	return Default.DecodeBlock(raw)
}

func (c *Codec) DecodeBlock(raw string) Value {
	hasPipe := strings.Contains(raw, "|")
	var recs []Value
	for _, line := range strings.Split(raw, "\n") {
		if trim(line) == "" {
			continue
		}
		recs = append(recs, Obj(c.DecodeLine(line)))
	}
	if len(recs) == 0 {
		return List()
	}
	if hasPipe {
		return List(recs...)
	}
	merged := NewRecord()
	for _, r := range recs {
		merged.Merge(r.rec)
	}
	return Obj(merged)
}

// DecodeRecords is like DecodeBlock but always returns a list of records
func (c *Codec) DecodeRecords(raw string) []*Record {
	v := c.DecodeBlock(raw)
	if v.kind == KindRecord {
		return []*Record{v.rec}
	}
	res := make([]*Record, 0, len(v.list))
	for _, el := range v.list {
		res = append(res, el.rec)
	}
	return res
}

func DecodeRecords(raw string) []*Record {
	return Default.DecodeRecords(raw)
}

// EncodeLine encodes a record as key:value pairs separated with '|'
func EncodeLine(r *Record) string {
	var sb strings.Builder
	writeLine(&sb, r)
	return sb.String()
}

func writeLine(sb *strings.Builder, r *Record) {
	for i, e := range r.Entries() {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(e.Key)
		sb.WriteByte(':')
		writeLoose(sb, e.Value, false)
	}
}

// EncodeBlock encodes records one per line
func EncodeBlock(recs []*Record) string {
	var sb strings.Builder
	for i, r := range recs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeLine(&sb, r)
	}
	return sb.String()
}

// EncodeBlockValue encodes v which must be a list of records.
// For any other value it reports an error and returns "".
func EncodeBlockValue(v Value) string {
	return Default.EncodeBlockValue(v)
}

func (c *Codec) EncodeBlockValue(v Value) string {
	if v.kind != KindList {
		c.report(LevelError, "EncodeBlock", v.String(), fmt.Errorf("%w, got %s", errNotList, v.kind))
		return ""
	}
	recs := make([]*Record, len(v.list))
	for i, el := range v.list {
		if el.kind != KindRecord {
			c.report(LevelWarn, "EncodeBlock", el.String(), fmt.Errorf("item %d is %s, not a record", i, el.kind))
			recs[i] = NewRecord()
			continue
		}
		recs[i] = el.rec
	}
	return EncodeBlock(recs)
}
