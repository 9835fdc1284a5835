package signature

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"lakala-sdk/internal/credential"
)

// VerificationError explains why an inbound token was rejected.
type VerificationError struct {
	Reason string
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signature verification failed: %s: %v", e.Reason, e.Err)
	}
	return "signature verification failed: " + e.Reason
}

func (e *VerificationError) Unwrap() error { return e.Err }

// Verifier checks notification tokens against the counterparty public key.
type Verifier struct {
	key *rsa.PublicKey
}

func NewVerifier(creds *credential.Credentials) (*Verifier, error) {
	if creds == nil {
		return nil, &credential.Error{Field: "certificate", Err: credential.ErrNoCertificate}
	}
	key, err := creds.PublicKey()
	if err != nil {
		return nil, err
	}
	return &Verifier{key: key}, nil
}

// Check validates header against the raw body and returns the parsed token.
// Every failure is a *VerificationError.
func (v *Verifier) Check(header string, body []byte) (Token, error) {
	token, err := ParseToken(header)
	if err != nil {
		return Token{}, &VerificationError{Reason: "malformed token", Err: err}
	}
	if token.Timestamp == "" || token.NonceStr == "" || token.Signature == "" {
		return token, &VerificationError{Reason: "token is missing timestamp, nonce_str or signature"}
	}

	sig, err := base64.StdEncoding.DecodeString(token.Signature)
	if err != nil {
		return token, &VerificationError{Reason: "signature is not base64", Err: err}
	}

	digest := sha256.Sum256(VerificationMessage(token.Timestamp, token.NonceStr, body))
	if err := rsa.VerifyPKCS1v15(v.key, crypto.SHA256, digest[:], sig); err != nil {
		return token, &VerificationError{Reason: "signature mismatch", Err: err}
	}
	return token, nil
}

// Verify reports whether header is a valid signature over body. It never
// panics on malformed input.
func (v *Verifier) Verify(header string, body []byte) bool {
	_, err := v.Check(header, body)
	return err == nil
}
