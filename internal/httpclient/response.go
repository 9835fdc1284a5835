package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Response is the outcome of a completed HTTP exchange. Error holds the
// message extracted from a failed response and is empty on success.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	Error      string

	data any
}

func newResponse(code int, header http.Header, body []byte, duration time.Duration) *Response {
	r := &Response{
		StatusCode: code,
		Header:     header,
		Body:       body,
		Duration:   duration,
	}
	if r.Header == nil {
		r.Header = make(http.Header)
	}

	if len(body) == 0 {
		if code >= 400 {
			r.Error = http.StatusText(code)
		}
		return r
	}

	data, err := decodeJSON(body)
	if err != nil {
		switch {
		case code >= 400:
			r.Error = string(body)
		case isJSON(r.Header):
			r.Error = err.Error()
		}
		return r
	}

	if code >= 400 {
		r.Error = errorMessage(data, body)
	}
	r.data = data
	return r
}

// OK reports a 2xx status with no extracted error.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300 && r.Error == ""
}

// JSON returns the decoded body, or nil when the body was empty or not JSON.
// Numbers are kept as json.Number.
func (r *Response) JSON() any {
	return r.data
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	return json.Unmarshal(r.Body, v)
}

// Headers flattens the header map to the last value per key.
func (r *Response) Headers() map[string]string {
	out := make(map[string]string, len(r.Header))
	for k, vs := range r.Header {
		if len(vs) > 0 {
			out[k] = vs[len(vs)-1]
		}
	}
	return out
}

func (r *Response) XReqID() string { return r.Header.Get("X-Reqid") }
func (r *Response) XLog() string   { return r.Header.Get("X-Log") }

func (r *Response) XVia() string {
	for _, key := range []string{"X-Via", "X-Px", "Fw-Via"} {
		if v := r.Header.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// NeedRetry reports whether the failure class is usually transient. The
// client itself never retries.
func (r *Response) NeedRetry() bool {
	code := r.StatusCode
	return code < 0 || (code/100 == 5 && code != 579) || code == 996
}

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("unable to parse JSON data: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("unable to parse JSON data: trailing content")
	}
	return data, nil
}

// errorMessage prefers the "error" field, then "message", then the raw body.
func errorMessage(data any, body []byte) string {
	if obj, ok := data.(map[string]any); ok {
		for _, key := range []string{"error", "message"} {
			v, ok := obj[key]
			if !ok || v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				return s
			}
			if b, err := json.Marshal(v); err == nil {
				return string(b)
			}
		}
	}
	return string(body)
}

func isJSON(h http.Header) bool {
	return strings.HasPrefix(h.Get("Content-Type"), "application/json")
}
