package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lakala-sdk/internal/credential"
)

// Signer produces Authorization tokens for outbound requests. It holds no
// mutable state and may be shared between goroutines.
type Signer struct {
	appID    string
	serialNo string
	key      *rsa.PrivateKey
	now      func() time.Time
	nonce    func() (string, error)
}

type SignerOption func(*Signer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// WithNonceSource overrides the nonce generator.
func WithNonceSource(fn func() (string, error)) SignerOption {
	return func(s *Signer) { s.nonce = fn }
}

func NewSigner(creds *credential.Credentials, opts ...SignerOption) (*Signer, error) {
	if creds == nil || creds.PrivateKey() == nil {
		return nil, &credential.Error{Field: "private_key", Err: errors.New("signing key not loaded")}
	}

	s := &Signer{
		appID:    creds.AppID(),
		serialNo: creds.SerialNo(),
		key:      creds.PrivateKey(),
		now:      time.Now,
		nonce:    NewNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign computes a fresh token over body. body must be the exact bytes that
// will be sent; pass nil for bodiless requests.
func (s *Signer) Sign(body []byte) (Token, error) {
	nonce, err := s.nonce()
	if err != nil {
		return Token{}, err
	}
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	digest := sha256.Sum256(SigningMessage(s.appID, s.serialNo, timestamp, nonce, body))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return Token{}, fmt.Errorf("sign request: %w", err)
	}

	return Token{
		AppID:     s.appID,
		SerialNo:  s.serialNo,
		Timestamp: timestamp,
		NonceStr:  nonce,
		Signature: base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// Authorization returns the serialized header value for body.
func (s *Signer) Authorization(body []byte) (string, error) {
	token, err := s.Sign(body)
	if err != nil {
		return "", err
	}
	return token.String(), nil
}
