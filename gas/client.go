// Package gas calls a spreadsheet web app (Google Apps Script) that
// stores data as pipe blocks, and proxies calls to it over HTTP.
package gas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/petopia/pipecodec/httputil"
	"github.com/petopia/pipecodec/log"
	"github.com/petopia/pipecodec/pipe"
)

// methods supported by the web app, by id
var methodNames = map[int]string{
	1: "read",
	2: "create",
	3: "update",
	4: "delete",
	5: "signup",
	6: "login",
	7: "getCellValue",
	8: "uploadFilesToDrive",
}

// MethodName returns name of method with a given id
func MethodName(id int) (string, bool) {
	name, ok := methodNames[id]
	return name, ok
}

var ErrNotConfigured = errors.New("gas: script url is not set")

// RemoteError is an error reported by the web app in "error" field
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("gas: %s failed: %s", e.Method, e.Message)
}

type Client struct {
	// url of deployed web app e.g. https://script.google.com/macros/s/<id>/exec
	URL string
	// sent as clientSecret with every call
	Secret string
	// if nil, a client with 30s connect and 120s total timeout is used
	HTTPClient *http.Client
	// if nil, pipe.Default is used
	Codec *pipe.Codec

	defaultClientOnce sync.Once
	defaultClient     *http.Client
}

func (c *Client) codec() *pipe.Codec {
	if c.Codec != nil {
		return c.Codec
	}
	return pipe.Default
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	// shared by all calls so connections are reused
	c.defaultClientOnce.Do(func() {
		c.defaultClient = httputil.NewDefaultTimeoutClient()
	})
	return c.defaultClient
}

// PreparePayload returns a copy of payload with lists of records
// encoded as pipe blocks, which is how the web app stores them
func (c *Client) PreparePayload(payload *pipe.Record) *pipe.Record {
	res := pipe.NewRecord()
	for _, e := range payload.Entries() {
		v := e.Value
		if isRecordList(v) {
			v = pipe.String(c.codec().EncodeBlockValue(v))
		}
		res.Set(e.Key, v)
	}
	return res
}

func isRecordList(v pipe.Value) bool {
	if v.Kind() != pipe.KindList || len(v.Items()) == 0 {
		return false
	}
	for _, el := range v.Items() {
		if el.Kind() != pipe.KindRecord {
			return false
		}
	}
	return true
}

// BuildParams returns JSON for params query argument:
// {"method": ..., <payload fields>, "clientSecret": ...}
func (c *Client) BuildParams(method string, payload *pipe.Record) []byte {
	rec := pipe.RecordOf("method", pipe.String(method))
	rec.Merge(c.PreparePayload(payload))
	rec.Set("clientSecret", pipe.String(c.Secret))
	return pipe.MarshalJSON(pipe.Obj(rec))
}

// Call calls method with payload and returns normalized response
func (c *Client) Call(ctx context.Context, method string, payload *pipe.Record) (pipe.Value, error) {
	if c.URL == "" {
		return pipe.Value{}, ErrNotConfigured
	}
	params := c.BuildParams(method, payload)
	timeStart := time.Now()
	var buf bytes.Buffer
	err := requests.
		URL(c.URL).
		Param("params", string(params)).
		Client(c.httpClient()).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	dur := time.Since(timeStart)
	if err != nil {
		log.Event("gas.error", "method", method, "error", err.Error())
		return pipe.Value{}, fmt.Errorf("gas: %s failed: %w", method, err)
	}
	log.EventWithDuration("gas.call", dur, "method", method, "size", buf.Len())

	v, err := pipe.ParseJSON(buf.Bytes())
	if err != nil {
		return pipe.Value{}, fmt.Errorf("gas: %s returned invalid JSON: %w", method, err)
	}
	if rec := v.Record(); rec != nil {
		if msg, ok := rec.GetString("error"); ok && msg != "" {
			return pipe.Value{}, &RemoteError{Method: method, Message: msg}
		}
	}
	return c.codec().Normalize(v), nil
}

// CallByID is like Call but takes method id
func (c *Client) CallByID(ctx context.Context, methodID int, payload *pipe.Record) (pipe.Value, error) {
	name, ok := MethodName(methodID)
	if !ok {
		return pipe.Value{}, fmt.Errorf("gas: invalid method id %d", methodID)
	}
	return c.Call(ctx, name, payload)
}
