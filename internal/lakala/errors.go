package lakala

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownService    = errors.New("unknown lakala service")
	ErrMissingMerchantNo = errors.New("merchant_no is required")
	ErrMissingTermNo     = errors.New("term_no is required")
	ErrMissingOrderNo    = errors.New("notification payload has no order number")
)

// TransportError is a connection failure or a non-2xx gateway response.
// StatusCode is -1 when no response was received.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("lakala request failed (status %d): %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// EmptyResponseError is returned when the gateway answers with no body.
// StatusCode is always 400 regardless of the HTTP status received.
type EmptyResponseError struct {
	StatusCode     int
	HTTPStatusCode int
}

func (e *EmptyResponseError) Error() string {
	return "lakala response body is empty"
}

func newEmptyResponseError(httpStatus int) *EmptyResponseError {
	return &EmptyResponseError{StatusCode: http.StatusBadRequest, HTTPStatusCode: httpStatus}
}

// MalformedPayloadError is a JSON decode failure of a response or
// notification body.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed lakala payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }
