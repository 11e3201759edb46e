package pipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/petopia/pipecodec/u"
)

var panicIf = u.PanicIf

// isSpace matches what JavaScript's String.prototype.trim removes
func isSpace(r rune) bool {
	return r == '\uFEFF' || unicode.IsSpace(r)
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

var (
	rxDecimal       = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
	rxDecimalPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)
)

// toNumber converts s the way JavaScript's Number(s) does.
// ok is false when the result would be NaN.
func toNumber(s string) (float64, bool) {
	s = trim(s)
	if s == "" {
		return 0, true
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseRadix(s[2:], base)
		}
	}
	if !rxDecimal.MatchString(s) {
		return 0, false
	}
	return parseDecimal(s), true
}

func parseRadix(digits string, base int) (float64, bool) {
	if strings.Contains(digits, "_") {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, base, 64)
	if err == nil {
		return float64(n), true
	}
	// too big for uint64 but still a valid number
	res := 0.0
	for _, c := range strings.ToLower(digits) {
		d := strings.IndexRune("0123456789abcdef", c)
		if d < 0 || d >= base {
			return 0, false
		}
		res = res*float64(base) + float64(d)
	}
	return res, true
}

// parseDecimal parses text already validated by rxDecimal.
// Overflow gives +/-Inf like JavaScript.
func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// parseFloatPrefix mirrors JavaScript's parseFloat: leading
// whitespace is skipped and the longest numeric prefix is used
func parseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, isSpace)
	m := rxDecimalPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	switch strings.TrimLeft(m, "+-") {
	case "Infinity":
		if m[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	return parseDecimal(m), true
}

// parseNumericToken succeeds when both Number(s) and parseFloat(s)
// produce a number and the result is finite
func parseNumericToken(s string) (float64, bool) {
	n, ok := toNumber(s)
	if !ok || math.IsInf(n, 0) {
		return 0, false
	}
	if _, ok = parseFloatPrefix(s); !ok {
		return 0, false
	}
	return n, true
}

// formatNumber formats n the way JavaScript's String(n) does
func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		// also -0
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	s := strconv.FormatFloat(n, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}
