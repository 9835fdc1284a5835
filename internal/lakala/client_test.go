package lakala

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"lakala-sdk/internal/credential"
	"lakala-sdk/internal/credential/credentialtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClient_Post(t *testing.T) {
	kp := credentialtest.NewKeyPair(t)
	gw := newGateway(t, http.StatusOK, `{"code":"000000","msg":"成功","resp_data":{"pay_order_no":"P1"}}`)
	obs := &recordingObserver{}

	c, err := NewCashdesk(testConfig(kp, gw.URL), append(testOptions(), WithObserver(obs))...)
	require.NoError(t, err)

	res, err := c.Post(context.Background(), "/api/x", map[string]any{"order_info": "商品<A&B>"})
	require.NoError(t, err)

	assert.Equal(t, "000000", res.Code())
	assert.Equal(t, "成功", res.Message())
	assert.True(t, res.Succeeded())
	assert.Equal(t, "P1", res.RespData()["pay_order_no"])

	req := gw.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/x", req.URL)
	assert.Equal(t, `{"order_info":"商品<A&B>"}`, string(req.Body))
	assert.Equal(t, "application/json;charset=utf-8", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))

	token := assertSigned(t, kp, req)
	assert.Equal(t, "OP00000003", token.AppID)
	assert.Equal(t, "00dfba8194c41b84cf", token.SerialNo)
	assert.Equal(t, "1700000000", token.Timestamp)
	assert.Equal(t, "abcdefghijkl", token.NonceStr)

	assert.Equal(t, []observation{{http.MethodPost, "/api/x", "ok"}}, obs.seen)
}

func TestClient_BodyMethods(t *testing.T) {
	kp := credentialtest.NewKeyPair(t)
	gw := newGateway(t, http.StatusOK, `{"code":"000000"}`)
	c, err := NewCashdesk(testConfig(kp, gw.URL), testOptions()...)
	require.NoError(t, err)

	_, err = c.Put(context.Background(), "/api/put", `{"raw":true}`)
	require.NoError(t, err)
	req := gw.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, `{"raw":true}`, string(req.Body))
	assertSigned(t, kp, req)

	_, err = c.Patch(context.Background(), "/api/patch", []byte(`[1,2]`))
	require.NoError(t, err)
	req = gw.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, `[1,2]`, string(req.Body))
	assertSigned(t, kp, req)
}

func TestClient_QueryMethods(t *testing.T) {
	kp := credentialtest.NewKeyPair(t)
	gw := newGateway(t, http.StatusOK, `{"code":"000000"}`)
	c, err := NewCashdesk(testConfig(kp, gw.URL), testOptions()...)
	require.NoError(t, err)

	query := url.Values{"b": {"2"}, "a": {"1"}}

	t.Run("Get", func(t *testing.T) {
		_, err := c.Get(context.Background(), "/x", query)
		require.NoError(t, err)

		req := gw.last(t)
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/x?a=1&b=2", req.URL)
		assert.Empty(t, req.Body)
		assert.Empty(t, req.Header.Get("Content-Type"))
		assertSigned(t, kp, req)
	})

	t.Run("Delete with existing query", func(t *testing.T) {
		_, err := c.Delete(context.Background(), "/x?c=3", query)
		require.NoError(t, err)

		req := gw.last(t)
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Equal(t, "/x?c=3&a=1&b=2", req.URL)
		assertSigned(t, kp, req)
	})

	t.Run("No query", func(t *testing.T) {
		_, err := c.Get(context.Background(), "/x", nil)
		require.NoError(t, err)
		assert.Equal(t, "/x", gw.last(t).URL)
	})
}

func TestWithQuery(t *testing.T) {
	q := url.Values{"a": {"1"}, "b": {"2"}}
	assert.Equal(t, "/x?a=1&b=2", withQuery("/x", q))
	assert.Equal(t, "/x?z=0&a=1&b=2", withQuery("/x?z=0", q))
	assert.Equal(t, "/x", withQuery("/x", url.Values{}))
}

func TestClient_Errors(t *testing.T) {
	kp := credentialtest.NewKeyPair(t)

	t.Run("Gateway error with message", func(t *testing.T) {
		gw := newGateway(t, http.StatusUnauthorized, `{"message":"验签失败"}`)
		obs := &recordingObserver{}
		c, err := NewCashdesk(testConfig(kp, gw.URL), append(testOptions(), WithObserver(obs))...)
		require.NoError(t, err)

		res, err := c.Post(context.Background(), "/api/x", map[string]any{})
		assert.Nil(t, res)

		var tErr *TransportError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, http.StatusUnauthorized, tErr.StatusCode)
		assert.Equal(t, "验签失败", tErr.Message)
		assert.Equal(t, "http_error", obs.seen[0].outcome)
	})

	t.Run("Connection failure", func(t *testing.T) {
		cfg := testConfig(kp, "http://gateway.invalid")
		c, err := NewCashdesk(cfg, append(testOptions(), WithTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})))...)
		require.NoError(t, err)

		_, err = c.Post(context.Background(), "/api/x", nil)
		var tErr *TransportError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, -1, tErr.StatusCode)
		assert.Contains(t, tErr.Message, "connection refused")
	})

	t.Run("Empty body on success", func(t *testing.T) {
		gw := newGateway(t, http.StatusOK, "")
		c, err := NewCashdesk(testConfig(kp, gw.URL), testOptions()...)
		require.NoError(t, err)

		_, err = c.Post(context.Background(), "/api/x", nil)
		var eErr *EmptyResponseError
		require.ErrorAs(t, err, &eErr)
		assert.Equal(t, http.StatusBadRequest, eErr.StatusCode)
		assert.Equal(t, http.StatusOK, eErr.HTTPStatusCode)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		gw := newGateway(t, http.StatusOK, `{"code":`)
		c, err := NewCashdesk(testConfig(kp, gw.URL), testOptions()...)
		require.NoError(t, err)

		_, err = c.Post(context.Background(), "/api/x", nil)
		var mErr *MalformedPayloadError
		assert.ErrorAs(t, err, &mErr)
	})

	t.Run("Unencodable body", func(t *testing.T) {
		gw := newGateway(t, http.StatusOK, `{}`)
		c, err := NewCashdesk(testConfig(kp, gw.URL), testOptions()...)
		require.NoError(t, err)

		_, err = c.Post(context.Background(), "/api/x", map[string]any{"ch": make(chan int)})
		assert.ErrorContains(t, err, "encode request body")
	})

	t.Run("Nonce failure aborts before sending", func(t *testing.T) {
		gw := newGateway(t, http.StatusOK, `{}`)
		c, err := NewCashdesk(testConfig(kp, gw.URL), WithNonceSource(func() (string, error) {
			return "", errors.New("no entropy")
		}))
		require.NoError(t, err)

		_, err = c.Post(context.Background(), "/api/x", nil)
		assert.Error(t, err)
		assert.Empty(t, gw.requests)
	})
}

func TestConfig_BaseURL(t *testing.T) {
	assert.Equal(t, ProductionBaseURL, Config{}.baseURL())
	assert.Equal(t, TestBaseURL, Config{TestEnv: true}.baseURL())
	assert.Equal(t, "http://localhost:8080", Config{TestEnv: true, BaseURL: "http://localhost:8080/"}.baseURL())
}

func TestNewClient_Credentials(t *testing.T) {
	kp := credentialtest.NewKeyPair(t)

	t.Run("Bad private key fails at construction", func(t *testing.T) {
		cfg := testConfig(kp, "")
		cfg.PrivateKey = "garbage"
		_, err := NewCashdesk(cfg)
		var credErr *credential.Error
		assert.ErrorAs(t, err, &credErr)
	})

	t.Run("Certificate is optional", func(t *testing.T) {
		cfg := testConfig(kp, "")
		cfg.Certificate = ""
		c, err := NewCashdesk(cfg)
		require.NoError(t, err)
		assert.False(t, c.VerifySignature("anything", nil))
	})
}

func TestEncodeBody(t *testing.T) {
	b, err := encodeBody(map[string]any{"name": "拉卡拉", "url": "https://a/b?c=1&d=2"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"拉卡拉","url":"https://a/b?c=1&d=2"}`, string(b))
	assert.False(t, strings.HasSuffix(string(b), "\n"))

	b, err = encodeBody(nil)
	require.NoError(t, err)
	assert.Nil(t, b)
}
