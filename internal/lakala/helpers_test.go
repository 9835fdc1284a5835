package lakala

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"lakala-sdk/internal/credential/credentialtest"
	"lakala-sdk/internal/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2023-11-14T22:13:20Z, 2023-11-15 06:13:20 in Shanghai.
var fixedNow = time.Unix(1700000000, 0).UTC()

type capturedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// gateway is an httptest server that records requests and replies with a
// canned response.
type gateway struct {
	*httptest.Server

	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
}

func newGateway(t *testing.T, status int, body string) *gateway {
	t.Helper()
	g := &gateway{status: status, body: body}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.requests = append(g.requests, capturedRequest{
			Method: r.Method,
			URL:    r.URL.RequestURI(),
			Header: r.Header.Clone(),
			Body:   raw,
		})
		g.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(g.status)
		_, _ = io.WriteString(w, g.body)
	}))
	t.Cleanup(g.Close)
	return g
}

func (g *gateway) last(t *testing.T) capturedRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.requests, "gateway received no request")
	return g.requests[len(g.requests)-1]
}

func testConfig(kp credentialtest.KeyPair, baseURL string) Config {
	return Config{
		AppID:       "OP00000003",
		SerialNo:    "00dfba8194c41b84cf",
		MerchantNo:  "822290070111135",
		TermNo:      "29034705",
		PrivateKey:  kp.PrivateKeyPEM,
		Certificate: kp.CertificatePEM,
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
	}
}

func testOptions() []Option {
	return []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithNonceSource(func() (string, error) { return "abcdefghijkl", nil }),
	}
}

// assertSigned checks the Authorization header of req against the signing
// message built from its body.
func assertSigned(t *testing.T, kp credentialtest.KeyPair, req capturedRequest) signature.Token {
	t.Helper()

	token, err := signature.ParseToken(req.Header.Get("Authorization"))
	require.NoError(t, err)

	sig, err := base64.StdEncoding.DecodeString(token.Signature)
	require.NoError(t, err)

	msg := signature.SigningMessage(token.AppID, token.SerialNo, token.Timestamp, token.NonceStr, req.Body)
	digest := sha256.Sum256(msg)
	assert.NoError(t, rsa.VerifyPKCS1v15(&kp.Key.PublicKey, crypto.SHA256, digest[:], sig))
	return token
}

func decodeEnvelope(t *testing.T, body []byte) (Envelope, map[string]any) {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	reqData, ok := env.ReqData.(map[string]any)
	require.True(t, ok, "req_data is not an object")
	return env, reqData
}

type observation struct {
	method, path, outcome string
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) ObserveGatewayCall(method, path, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{method, path, outcome})
}
