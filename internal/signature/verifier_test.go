package signature_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"lakala-sdk/internal/credential"
	"lakala-sdk/internal/credential/credentialtest"
	"lakala-sdk/internal/signature"
	"lakala-sdk/internal/signature/signaturetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCreds(t *testing.T, kp credentialtest.KeyPair) *credential.Credentials {
	t.Helper()
	c, err := credential.New(credential.Options{
		AppID:       "A1",
		SerialNo:    "S1",
		PrivateKey:  kp.PrivateKeyPEM,
		Certificate: kp.CertificatePEM,
	})
	require.NoError(t, err)
	return c
}

func TestVerifier(t *testing.T) {
	kp := credentialtest.NewKeyPair(t)
	v, err := signature.NewVerifier(newCreds(t, kp))
	require.NoError(t, err)

	body := []byte(`{"out_order_no":"X123"}`)
	header := signaturetest.NotificationHeader(t, kp.Key, "1700000000", "abcdefghijkl", body)

	t.Run("Valid", func(t *testing.T) {
		token, err := v.Check(header, body)
		require.NoError(t, err)
		assert.Equal(t, "1700000000", token.Timestamp)
		assert.True(t, v.Verify(header, body))
	})

	t.Run("Without algorithm tag", func(t *testing.T) {
		bare := strings.TrimPrefix(header, signature.Algorithm+" ")
		assert.True(t, v.Verify("  "+bare+"  ", body))
	})

	t.Run("Flipped body byte", func(t *testing.T) {
		tampered := append([]byte(nil), body...)
		tampered[len(tampered)-3] ^= 0x01
		assert.False(t, v.Verify(header, tampered))
	})

	t.Run("Flipped signature byte", func(t *testing.T) {
		token, err := signature.ParseToken(header)
		require.NoError(t, err)
		sig, _ := base64.StdEncoding.DecodeString(token.Signature)
		sig[0] ^= 0x01
		token.Signature = base64.StdEncoding.EncodeToString(sig)
		assert.False(t, v.Verify(token.String(), body))
	})

	t.Run("Outbound token does not verify as notification", func(t *testing.T) {
		s, err := signature.NewSigner(newCreds(t, kp))
		require.NoError(t, err)
		outbound, err := s.Authorization(body)
		require.NoError(t, err)
		assert.False(t, v.Verify(outbound, body))
	})

	t.Run("Malformed input", func(t *testing.T) {
		cases := map[string]string{
			"empty":             "",
			"tag only":          signature.Algorithm,
			"missing signature": `timestamp="1700000000",nonce_str="abcdefghijkl"`,
			"bad base64":        `timestamp="1700000000",nonce_str="abcdefghijkl",signature="%%%"`,
			"garbage":           "not a token",
		}
		for name, h := range cases {
			t.Run(name, func(t *testing.T) {
				assert.NotPanics(t, func() {
					assert.False(t, v.Verify(h, body))
				})
				_, err := v.Check(h, body)
				var vErr *signature.VerificationError
				assert.ErrorAs(t, err, &vErr)
			})
		}
	})

	t.Run("No certificate configured", func(t *testing.T) {
		creds, err := credential.New(credential.Options{AppID: "A1", SerialNo: "S1", PrivateKey: kp.PrivateKeyPEM})
		require.NoError(t, err)
		_, err = signature.NewVerifier(creds)
		assert.ErrorIs(t, err, credential.ErrNoCertificate)
	})
}
