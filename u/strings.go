package u

import (
	"fmt"
	"strings"
)

// NormalizeNewlines changes CRLF (Windows) and CR (Mac) to LF (Unix)
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// ToTrimmedLines splits s into lines, trims them and removes empty ones
func ToTrimmedLines(s string) []string {
	lines := strings.Split(NormalizeNewlines(s), "\n")
	i := 0
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if len(l) > 0 {
			lines[i] = l
			i++
		}
	}
	return lines[:i]
}

// ParseEnv parses .env file content: KEY=value lines, # comments.
// Values can be wrapped in single or double quotes.
func ParseEnv(d []byte) (map[string]string, error) {
	m := map[string]string{}
	for _, line := range ToTrimmedLines(string(d)) {
		if strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid line '%s' in .env", line)
		}
		val = strings.TrimSpace(val)
		if n := len(val); n >= 2 && (val[0] == '"' || val[0] == '\'') && val[n-1] == val[0] {
			val = val[1 : n-1]
		}
		m[key] = val
	}
	return m, nil
}
