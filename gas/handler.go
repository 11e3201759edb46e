package gas

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/petopia/pipecodec/httputil"
	"github.com/petopia/pipecodec/log"
	"github.com/petopia/pipecodec/pipe"
)

const maxRequestBody = 8 * 1024 * 1024

// Handler proxies POST {"methodId": <id>, "payload": {...}} to Client
type Handler struct {
	Client *Client
}

// NewHandler returns Handler wrapped with request logging
func NewHandler(c *Client) http.Handler {
	return httputil.LogRequests(&Handler{Client: c})
}

func serveError(w http.ResponseWriter, code int, msg string) {
	v := map[string]any{
		"statusCode":    code,
		"statusMessage": msg,
	}
	d, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(d)
}

// methodID accepts numbers and numeric strings
func methodID(v pipe.Value) (int, bool) {
	switch v.Kind() {
	case pipe.KindNumber:
		n := v.Num()
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case pipe.KindString:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str()))
		return n, err == nil
	}
	return 0, false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		serveError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	d, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		serveError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body, err := pipe.ParseJSON(d)
	if err != nil || body.Kind() != pipe.KindRecord {
		serveError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req := body.Record()
	idVal, _ := req.Get("methodId")
	id, ok := methodID(idVal)
	method, known := MethodName(id)
	if !ok || !known {
		serveError(w, http.StatusBadRequest, "Invalid methodId")
		return
	}
	payload := pipe.NewRecord()
	if v, ok := req.Get("payload"); ok && v.Kind() == pipe.KindRecord {
		payload = v.Record()
	}

	res, err := h.Client.Call(r.Context(), method, payload)
	if err != nil {
		log.Errorf("gas.Handler: %s\n", err)
		serveError(w, http.StatusInternalServerError, "Server/Network error")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(pipe.MarshalJSON(res))
}
