// Package credential holds the merchant identity and key material used to
// sign outbound gateway requests and verify inbound notifications.
package credential

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrMissingField  = errors.New("required field is empty")
	ErrNoCertificate = errors.New("counterparty certificate not configured")
	ErrNotRSA        = errors.New("key is not an RSA key")
)

// Error reports key or certificate material that could not be loaded.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("credential %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options is the raw credential configuration. PrivateKey may be inline PEM
// text, a path ending in .pem, or a PKCS#12 bundle path ending in .p12/.pfx.
// Certificate may be inline PEM text or a path ending in .cer.
type Options struct {
	AppID              string
	SerialNo           string
	PrivateKey         string
	PrivateKeyPassword string
	Certificate        string
}

// Credentials is immutable after New and safe for concurrent use.
type Credentials struct {
	appID      string
	serialNo   string
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func New(opts Options) (*Credentials, error) {
	if strings.TrimSpace(opts.AppID) == "" {
		return nil, &Error{Field: "appid", Err: ErrMissingField}
	}
	if strings.TrimSpace(opts.SerialNo) == "" {
		return nil, &Error{Field: "serial_no", Err: ErrMissingField}
	}
	if strings.TrimSpace(opts.PrivateKey) == "" {
		return nil, &Error{Field: "private_key", Err: ErrMissingField}
	}

	priv, err := loadPrivateKey(opts.PrivateKey, opts.PrivateKeyPassword)
	if err != nil {
		return nil, &Error{Field: "private_key", Err: err}
	}

	c := &Credentials{
		appID:      opts.AppID,
		serialNo:   opts.SerialNo,
		privateKey: priv,
	}

	if strings.TrimSpace(opts.Certificate) != "" {
		pub, err := loadPublicKey(opts.Certificate)
		if err != nil {
			return nil, &Error{Field: "certificate", Err: err}
		}
		c.publicKey = pub
	}

	return c, nil
}

func (c *Credentials) AppID() string    { return c.appID }
func (c *Credentials) SerialNo() string { return c.serialNo }

func (c *Credentials) PrivateKey() *rsa.PrivateKey { return c.privateKey }

// PublicKey returns the counterparty verification key.
func (c *Credentials) PublicKey() (*rsa.PublicKey, error) {
	if c.publicKey == nil {
		return nil, &Error{Field: "certificate", Err: ErrNoCertificate}
	}
	return c.publicKey, nil
}

func (c *Credentials) HasCertificate() bool { return c.publicKey != nil }

func loadPrivateKey(value, password string) (*rsa.PrivateKey, error) {
	if path, ok := filePath(value, ".p12", ".pfx"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return parsePKCS12(data, password)
	}

	data, err := readMaterial(value, ".pem")
	if err != nil {
		return nil, err
	}
	return parsePrivateKey(data)
}

func loadPublicKey(value string) (*rsa.PublicKey, error) {
	data, err := readMaterial(value, ".cer", ".crt", ".pem")
	if err != nil {
		return nil, err
	}
	return parsePublicKey(data)
}

// readMaterial returns the file contents when value names an existing file
// with one of the given extensions, otherwise the value itself.
func readMaterial(value string, exts ...string) ([]byte, error) {
	if path, ok := filePath(value, exts...); ok {
		return os.ReadFile(path)
	}
	return []byte(value), nil
}

func filePath(value string, exts ...string) (string, bool) {
	path := strings.TrimSpace(value)
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if !strings.HasSuffix(lower, ext) {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
