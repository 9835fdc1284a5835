package lakala

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Result is a decoded 2xx gateway response. Business-level failures (a
// non-success code) are still Results; inspect Code or Succeeded.
type Result struct {
	StatusCode int
	Header     http.Header
	Raw        json.RawMessage
	Data       any
}

// Map returns the top-level object, or nil when the body is not an object.
func (r *Result) Map() map[string]any {
	m, _ := r.Data.(map[string]any)
	return m
}

func (r *Result) Code() string {
	return stringValue(r.Map(), "code")
}

func (r *Result) Message() string {
	if msg := stringValue(r.Map(), "msg"); msg != "" {
		return msg
	}
	return stringValue(r.Map(), "message")
}

// RespData returns the resp_data object.
func (r *Result) RespData() map[string]any {
	m, _ := r.Map()["resp_data"].(map[string]any)
	return m
}

// Succeeded reports the gateway's success codes for the ccss/rfd (000000)
// and labs (BBS00000) families.
func (r *Result) Succeeded() bool {
	switch r.Code() {
	case "000000", "BBS00000":
		return true
	}
	return false
}

func (r *Result) Decode(v any) error {
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return &MalformedPayloadError{Err: err}
	}
	return nil
}

// stringValue reads key from m as a string. Missing keys and non-scalar
// values yield "".
func stringValue(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprint(v)
	}
	return ""
}
