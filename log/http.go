package log

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

func pickFirst(s string) string {
	parts := strings.Split(s, ",")
	return strings.TrimSpace(parts[0])
}

// BestRemoteAddress picks the most accurate IP address from client request
// needed because of proxies
func BestRemoteAddress(r *http.Request) string {
	h := r.Header
	for _, name := range []string{"CF-Connecting-IP", "X-Real-Ip", "X-Forwarded-For"} {
		if val := h.Get(name); val != "" {
			return pickFirst(val)
		}
	}
	return pickFirst(r.RemoteAddr)
}

// HTTPRequestToWriteDaily writes a JSON line describing a request
func HTTPRequestToWriteDaily(w *WriteDaily, r *http.Request, code int, nWritten int64, dur time.Duration) error {
	rawQuery := r.URL.RawQuery
	if len(rawQuery) > 128 {
		rawQuery = rawQuery[:128]
	}

	entry := map[string]any{
		"ts":     time.Now().UTC().Unix(),
		"method": r.Method,
		"url":    r.URL.Path,
		"query":  rawQuery,
		"host":   r.Host,
		"ip":     BestRemoteAddress(r),
		"code":   code,
		"size":   nWritten,
		// milliseconds with decimal precision
		"dur": float64(dur.Microseconds()) / 1000.0,
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		entry["ua"] = ua
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		entry["content_type"] = ct
	}

	buf := &strings.Builder{}
	encoder := json.NewEncoder(buf)
	// avoid unnecessary escaping
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(entry); err != nil {
		return err
	}
	// Encode adds a newline
	return w.WriteString(buf.String())
}

// HTTPRequest logs a request to http log
func HTTPRequest(r *http.Request, code int, nWritten int64, dur time.Duration) error {
	mu.Lock()
	w := httpLog
	mu.Unlock()
	return HTTPRequestToWriteDaily(w, r, code, nWritten, dur)
}
