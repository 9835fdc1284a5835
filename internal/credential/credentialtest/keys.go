// Package credentialtest generates throwaway RSA key material for tests.
package credentialtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// KeyPair is a private key together with a self-signed certificate for it.
type KeyPair struct {
	Key            *rsa.PrivateKey
	PrivateKeyPEM  string
	PKCS8PEM       string
	CertificatePEM string
	PublicKeyPEM   string
}

func NewKeyPair(t testing.TB) KeyPair {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "lakala-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}

	return KeyPair{
		Key:            key,
		PrivateKeyPEM:  encode("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)),
		PKCS8PEM:       encode("PRIVATE KEY", pkcs8),
		CertificatePEM: encode("CERTIFICATE", certDER),
		PublicKeyPEM:   encode("PUBLIC KEY", pub),
	}
}

func encode(typ string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der}))
}
