// Package signaturetest builds gateway-style notification tokens for tests.
package signaturetest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"lakala-sdk/internal/signature"
)

// NotificationHeader signs body the way the gateway signs notifications and
// returns the Authorization header value.
func NotificationHeader(t testing.TB, key *rsa.PrivateKey, timestamp, nonce string, body []byte) string {
	t.Helper()

	digest := sha256.Sum256(signature.VerificationMessage(timestamp, nonce, body))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("sign notification: %v", err)
	}

	return signature.Token{
		AppID:     "OP00000003",
		SerialNo:  "00dfba8194c41b84cf",
		Timestamp: timestamp,
		NonceStr:  nonce,
		Signature: base64.StdEncoding.EncodeToString(sig),
	}.String()
}
