package pipe

import (
	"math"
	"strings"
)

// valueParser is one attempt at interpreting a token.
// It returns false if the token is not in its format.
type valueParser func(c *Codec, token string) (Value, bool)

// order matters: first parser that succeeds wins
var valueParsers = []valueParser{
	parseLiteralToken,
	parseNumberToken,
	parseBoolToken,
	parseQuotedToken,
}

func parseLiteralToken(c *Codec, token string) (Value, bool) {
	return c.ParseLoose(token)
}

func parseNumberToken(c *Codec, token string) (Value, bool) {
	n, ok := parseNumericToken(token)
	if !ok {
		return Value{}, false
	}
	return Number(n), true
}

func parseBoolToken(c *Codec, token string) (Value, bool) {
	switch token {
	case "true":
		return Bool(true), true
	case "false":
		return Bool(false), true
	}
	return Value{}, false
}

func parseQuotedToken(c *Codec, token string) (Value, bool) {
	n := len(token)
	if n < 2 || token[0] != '\'' || token[n-1] != '\'' {
		return Value{}, false
	}
	s := strings.ReplaceAll(token[1:n-1], `\'`, "'")
	return String(s), true
}

// ParseValue interprets a value token, in order, as: object or array
// literal, number, boolean, single-quoted string. If nothing matches
// the token is returned as a string.
func ParseValue(token string) Value {
	return Default.ParseValue(token)
}

func (c *Codec) ParseValue(token string) Value {
	for _, parse := range valueParsers {
		if v, ok := parse(c, token); ok {
			return v
		}
	}
	return String(token)
}

// FormatValue is the inverse of ParseValue: strings are single-quoted,
// lists and records are written as loose literals
func FormatValue(v Value) string {
	var sb strings.Builder
	writeLoose(&sb, v, false)
	return sb.String()
}

func isFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}
