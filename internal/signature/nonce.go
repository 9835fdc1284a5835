package signature

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	NonceLength   = 12
	nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewNonce returns a random alphanumeric string of NonceLength characters.
func NewNonce() (string, error) {
	buf := make([]byte, NonceLength)
	max := big.NewInt(int64(len(nonceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate nonce: %w", err)
		}
		buf[i] = nonceAlphabet[n.Int64()]
	}
	return string(buf), nil
}
