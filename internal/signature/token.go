// Package signature implements the LKLAPI-SHA256withRSA request
// authentication scheme: outbound signing and inbound verification.
package signature

import (
	"errors"
	"strings"
)

const Algorithm = "LKLAPI-SHA256withRSA"

var ErrEmptyToken = errors.New("empty authorization token")

// Token is the structured content of an Authorization header.
type Token struct {
	AppID     string
	SerialNo  string
	Timestamp string
	NonceStr  string
	Signature string
}

// String serializes the token with the algorithm tag. Field order is fixed:
// appid, serial_no, timestamp, nonce_str, signature.
func (t Token) String() string {
	var b strings.Builder
	b.WriteString(Algorithm)
	b.WriteByte(' ')
	writePair(&b, "appid", t.AppID)
	b.WriteByte(',')
	writePair(&b, "serial_no", t.SerialNo)
	b.WriteByte(',')
	writePair(&b, "timestamp", t.Timestamp)
	b.WriteByte(',')
	writePair(&b, "nonce_str", t.NonceStr)
	b.WriteByte(',')
	writePair(&b, "signature", t.Signature)
	return b.String()
}

func writePair(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(value)
	b.WriteByte('"')
}

// ParseToken reads an Authorization header value. The algorithm tag is
// optional. Unknown keys and fragments without '=' are ignored; missing
// fields are left empty.
func ParseToken(header string) (Token, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(header, Algorithm, ""))
	if raw == "" {
		return Token{}, ErrEmptyToken
	}

	var t Token
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)

		switch strings.TrimSpace(key) {
		case "appid":
			t.AppID = value
		case "serial_no":
			t.SerialNo = value
		case "timestamp":
			t.Timestamp = value
		case "nonce_str":
			t.NonceStr = value
		case "signature":
			t.Signature = value
		}
	}
	return t, nil
}

// SigningMessage is the outbound message: appid, serial_no, timestamp,
// nonce and body, each followed by a newline.
func SigningMessage(appID, serialNo, timestamp, nonce string, body []byte) []byte {
	msg := make([]byte, 0, len(appID)+len(serialNo)+len(timestamp)+len(nonce)+len(body)+5)
	msg = append(msg, appID...)
	msg = append(msg, '\n')
	msg = append(msg, serialNo...)
	msg = append(msg, '\n')
	return append(msg, VerificationMessage(timestamp, nonce, body)...)
}

// VerificationMessage is the inbound message. It deliberately omits appid and
// serial_no; the gateway signs notifications this way.
func VerificationMessage(timestamp, nonce string, body []byte) []byte {
	msg := make([]byte, 0, len(timestamp)+len(nonce)+len(body)+3)
	msg = append(msg, timestamp...)
	msg = append(msg, '\n')
	msg = append(msg, nonce...)
	msg = append(msg, '\n')
	msg = append(msg, body...)
	return append(msg, '\n')
}
