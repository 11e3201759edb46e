package pipe

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

/*
Loose literal is JavaScript object literal syntax restricted to what
JSON can represent:

	{name:'Rex',tags:['a','b'],'two words':1,ok:true}

Keys are bare when they are identifiers, single-quoted otherwise.
Strings are single-quoted with ' escaped as \'.
Double-quoted strings are accepted on input too.
*/

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// isIdent returns true if s can be written as a bare key
func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// looseToJSON rewrites a loose literal into JSON text:
// 'str' becomes "str" and ident: becomes "ident":
// Returns false if a string literal is not terminated.
func looseToJSON(s string) (string, bool) {
	var sb strings.Builder
	sb.Grow(len(s) + 16)
	n := len(s)
	i := 0
	for i < n {
		c := s[i]
		switch {
		case c == '"':
			// copy double-quoted string as-is
			end := i + 1
			for end < n && s[end] != '"' {
				if s[end] == '\\' {
					end++
				}
				end++
			}
			if end >= n {
				return "", false
			}
			sb.WriteString(s[i : end+1])
			i = end + 1
		case c == '\'':
			end, ok := writeSingleQuotedAsJSON(&sb, s, i)
			if !ok {
				return "", false
			}
			i = end
		case isIdentStart(c):
			end := i + 1
			for end < n && isIdentChar(s[end]) {
				end++
			}
			ident := s[i:end]
			if end < n && s[end] == ':' {
				sb.WriteByte('"')
				sb.WriteString(ident)
				sb.WriteByte('"')
			} else {
				sb.WriteString(ident)
			}
			i = end
		case c >= '0' && c <= '9':
			// digits followed by letters (1e5, 0x1f) are never keys
			end := i + 1
			for end < n && isIdentChar(s[end]) {
				end++
			}
			sb.WriteString(s[i:end])
			i = end
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), true
}

// writeSingleQuotedAsJSON converts string literal starting with ' at s[start]
// to a double-quoted JSON string. Returns index after closing quote.
func writeSingleQuotedAsJSON(sb *strings.Builder, s string, start int) (int, bool) {
	n := len(s)
	sb.WriteByte('"')
	i := start + 1
	for i < n {
		c := s[i]
		switch c {
		case '\'':
			sb.WriteByte('"')
			return i + 1, true
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			if i+1 >= n {
				return 0, false
			}
			next := s[i+1]
			if next == '\'' {
				sb.WriteByte('\'')
			} else {
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			i++
		default:
			sb.WriteByte(c)
		}
		i++
	}
	return 0, false
}

// writeLooseString writes s single-quoted. Inside nested structures
// backslashes and control characters are escaped JSON-style so that
// the literal can be parsed back.
func writeLooseString(sb *strings.Builder, s string, nested bool) {
	sb.WriteByte('\'')
	if !nested {
		sb.WriteString(strings.ReplaceAll(s, "'", `\'`))
		sb.WriteByte('\'')
		return
	}
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'':
			sb.WriteString(`\'`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20:
			sb.WriteString(`\u00`)
			sb.WriteString(strconv.FormatInt(int64(c)>>4, 16))
			sb.WriteString(strconv.FormatInt(int64(c)&0xf, 16))
		default:
			_, size := utf8.DecodeRuneInString(s[i:])
			sb.WriteString(s[i : i+size])
			i += size
			continue
		}
		i++
	}
	sb.WriteByte('\'')
}

// writeLoose writes v as loose literal. nested is true for values
// inside a list or a record.
func writeLoose(sb *strings.Builder, v Value, nested bool) {
	switch v.kind {
	case KindUndefined:
		if nested {
			// JSON.stringify turns undefined list items into null
			sb.WriteString("null")
			return
		}
		sb.WriteString("undefined")
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if nested && !isFinite(v.n) {
			sb.WriteString("null")
			return
		}
		sb.WriteString(formatNumber(v.n))
	case KindString:
		writeLooseString(sb, v.s, nested)
	case KindList:
		sb.WriteByte('[')
		for i, el := range v.list {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeLoose(sb, el, true)
		}
		sb.WriteByte(']')
	case KindRecord:
		sb.WriteByte('{')
		first := true
		for _, e := range v.rec.entries {
			if e.Value.IsUndefined() {
				continue
			}
			if !first {
				sb.WriteByte(',')
			}
			first = false
			if isIdent(e.Key) {
				sb.WriteString(e.Key)
			} else {
				writeLooseString(sb, e.Key, true)
			}
			sb.WriteByte(':')
			writeLoose(sb, e.Value, true)
		}
		sb.WriteByte('}')
	}
}

// ParseLoose parses a loose object or array literal.
// Returns false if s is not a valid literal or is a scalar.
func ParseLoose(s string) (Value, bool) {
	return Default.ParseLoose(s)
}

func (c *Codec) ParseLoose(s string) (Value, bool) {
	js, ok := looseToJSON(s)
	if !ok {
		return Value{}, false
	}
	v, err := ParseJSON([]byte(js))
	if err != nil {
		if looksLikeLiteral(trim(s)) {
			c.debug("ParseLoose", s, err)
		}
		return Value{}, false
	}
	if v.kind != KindList && v.kind != KindRecord {
		return Value{}, false
	}
	return v, true
}

// looksLikeLiteral returns true if s is bracketed like an object or array
func looksLikeLiteral(s string) bool {
	n := len(s)
	if n < 2 {
		return false
	}
	return (s[0] == '{' && s[n-1] == '}') || (s[0] == '[' && s[n-1] == ']')
}
