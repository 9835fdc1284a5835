package lakala

import (
	"bytes"
	"encoding/json"
	"fmt"

	"lakala-sdk/internal/credential"
	"lakala-sdk/internal/signature"
)

// Notification is a verified asynchronous payment notification.
type Notification struct {
	// OrderNo is out_order_no, or out_trade_no for scan-family notifications.
	OrderNo string
	Token   signature.Token
	Data    map[string]any
	Raw     json.RawMessage
}

// Field returns a top-level scalar field as a string, "" when absent.
func (n *Notification) Field(key string) string {
	return stringValue(n.Data, key)
}

func (n *Notification) Decode(v any) error {
	if err := json.Unmarshal(n.Raw, v); err != nil {
		return &MalformedPayloadError{Err: err}
	}
	return nil
}

// VerifySignature reports whether authorization is a valid gateway signature
// over body. It is false when no counterparty certificate is configured.
func (c *Client) VerifySignature(authorization string, body []byte) bool {
	if c.verifier == nil {
		return false
	}
	return c.verifier.Verify(authorization, body)
}

// ParseNotification verifies authorization against the exact raw body and
// decodes it. Nothing is returned unless both verification and decoding
// succeed and the payload names an order.
func (c *Client) ParseNotification(authorization string, body []byte) (*Notification, error) {
	if c.verifier == nil {
		return nil, &credential.Error{Field: "certificate", Err: credential.ErrNoCertificate}
	}

	token, err := c.verifier.Check(authorization, body)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}
	if data == nil {
		return nil, &MalformedPayloadError{Err: fmt.Errorf("notification is not a JSON object")}
	}

	orderNo := stringValue(data, "out_order_no")
	if orderNo == "" {
		orderNo = stringValue(data, "out_trade_no")
	}
	if orderNo == "" {
		return nil, ErrMissingOrderNo
	}

	return &Notification{
		OrderNo: orderNo,
		Token:   token,
		Data:    data,
		Raw:     json.RawMessage(body),
	}, nil
}
