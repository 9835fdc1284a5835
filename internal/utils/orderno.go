package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber returns prefix + YYYYMMDDHHMMSS (UTC) + millis + four
// random digits, e.g. LKL202310271030001234567.
func GenerateOrderNumber(prefix string) string {
	now := time.Now().UTC()

	datePart := now.Format("20060102150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	// 4-digit cryptographic random
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("%s%s%03d%04d", prefix, datePart, millis, n.Int64())
}
