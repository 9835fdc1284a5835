package notify

import (
	"encoding/json"
	"time"

	"lakala-sdk/internal/signature"
)

// Record is a persisted notification. A notification is identified by the
// gateway's (nonce_str, timestamp) pair. Payload is the normalised JSON;
// RawBody holds the exact bytes the gateway signed.
type Record struct {
	ID            int64           `json:"id"`
	Service       string          `json:"service"`
	NonceStr      string          `json:"nonce_str"`
	Timestamp     string          `json:"timestamp"`
	OrderNo       string          `json:"order_no"`
	Payload       json.RawMessage `json:"payload"`
	RawBody       string          `json:"raw_body"`
	Signature     string          `json:"signature"`
	Attempts      int             `json:"attempts"`
	ReceivedAt    time.Time       `json:"received_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	FailureReason *string         `json:"failure_reason,omitempty"`
}

// Authorization rebuilds the header the gateway sent, so the record can be
// verified again with ParseNotification(rec.Authorization(), []byte(rec.RawBody)).
func (r Record) Authorization() string {
	return signature.Token{
		Timestamp: r.Timestamp,
		NonceStr:  r.NonceStr,
		Signature: r.Signature,
	}.String()
}

const (
	resultProcessed        = "processed"
	resultDuplicate        = "duplicate"
	resultInProgress       = "in_progress"
	resultInvalidSignature = "invalid_signature"
	resultInvalidPayload   = "invalid_payload"
	resultFailed           = "failed"
	resultError            = "error"
)
