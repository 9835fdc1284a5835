package credential

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

var errNoKeyMaterial = errors.New("no key material found")

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	der, err := decodeDER(data)
	if err != nil {
		return nil, err
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSA
	}
	return key, nil
}

// parsePublicKey accepts an X.509 certificate, a PKIX public key or a PKCS#1
// public key, PEM armoured or not.
func parsePublicKey(data []byte) (*rsa.PublicKey, error) {
	der, err := decodeDER(data)
	if err != nil {
		return nil, err
	}

	if cert, err := x509.ParseCertificate(der); err == nil {
		key, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, ErrNotRSA
		}
		return key, nil
	}

	if parsed, err := x509.ParsePKIXPublicKey(der); err == nil {
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, ErrNotRSA
		}
		return key, nil
	}

	key, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}
	return key, nil
}

func parsePKCS12(data []byte, password string) (*rsa.PrivateKey, error) {
	priv, _, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("decode pkcs12: %w", err)
	}
	key, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSA
	}
	return key, nil
}

// decodeDER unwraps a PEM block. Material without armour is tried as bare
// base64 and finally as raw DER.
func decodeDER(data []byte) ([]byte, error) {
	if block, _ := pem.Decode(data); block != nil {
		return block.Bytes, nil
	}

	trimmed := strings.Join(strings.Fields(string(data)), "")
	if trimmed == "" {
		return nil, errNoKeyMaterial
	}
	if der, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
		return der, nil
	}
	return data, nil
}
