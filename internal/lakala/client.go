// Package lakala is the authenticated transport adapter for the Lakala open
// platform: it signs requests, interprets responses and verifies payment
// notifications. Cashdesk and Scan expose the typed endpoints.
package lakala

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lakala-sdk/internal/credential"
	"lakala-sdk/internal/httpclient"
	"lakala-sdk/internal/logger"
	"lakala-sdk/internal/metrics"
	"lakala-sdk/internal/signature"

	"go.uber.org/zap"
)

const timeLayout = "20060102150405"

// Observer receives one observation per gateway call.
type Observer interface {
	ObserveGatewayCall(method, path, outcome string, d time.Duration)
}

type Option func(*options)

type options struct {
	transport http.RoundTripper
	observer  Observer
	now       func() time.Time
	nonce     func() (string, error)
}

// WithTransport replaces the HTTP round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithClock overrides the clock used for signing and req_time.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithNonceSource(fn func() (string, error)) Option {
	return func(o *options) { o.nonce = fn }
}

// Client signs and sends requests. It is stateless after construction and
// safe for concurrent use.
type Client struct {
	cfg        Config
	apiVersion string
	baseURL    string
	signer     *signature.Signer
	verifier   *signature.Verifier
	http       *httpclient.Client
	observer   Observer
	now        func() time.Time
	loc        *time.Location
}

func newClient(cfg Config, apiVersion string, opts ...Option) (*Client, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	creds, err := credential.New(cfg.credentialOptions())
	if err != nil {
		return nil, err
	}

	signerOpts := []signature.SignerOption{signature.WithClock(o.now)}
	if o.nonce != nil {
		signerOpts = append(signerOpts, signature.WithNonceSource(o.nonce))
	}
	signer, err := signature.NewSigner(creds, signerOpts...)
	if err != nil {
		return nil, err
	}

	var verifier *signature.Verifier
	if creds.HasCertificate() {
		if verifier, err = signature.NewVerifier(creds); err != nil {
			return nil, err
		}
	}

	return &Client{
		cfg:        cfg,
		apiVersion: apiVersion,
		baseURL:    cfg.baseURL(),
		signer:     signer,
		verifier:   verifier,
		http: httpclient.New(httpclient.Options{
			Timeout:            cfg.Timeout,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			Transport:          o.transport,
		}),
		observer: o.observer,
		now:      o.now,
		loc:      shanghai(),
	}, nil
}

func shanghai() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		logger.L().Warn("failed to load Asia/Shanghai location, using fixed UTC+8", zap.Error(err))
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

func (c *Client) BaseURL() string    { return c.baseURL }
func (c *Client) APIVersion() string { return c.apiVersion }

// Envelope is the outer JSON object of every business request.
type Envelope struct {
	ReqTime string `json:"req_time"`
	Version string `json:"version"`
	ReqData any    `json:"req_data"`
}

// Envelope wraps reqData with the current request time and API version.
func (c *Client) Envelope(reqData any) Envelope {
	return Envelope{
		ReqTime: c.now().In(c.loc).Format(timeLayout),
		Version: c.apiVersion,
		ReqData: reqData,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Result, error) {
	return c.do(ctx, http.MethodGet, withQuery(path, query), nil, false)
}

func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Result, error) {
	return c.do(ctx, http.MethodDelete, withQuery(path, query), nil, false)
}

// Post sends body as JSON. []byte, string and json.RawMessage bodies are
// sent verbatim.
func (c *Client) Post(ctx context.Context, path string, body any) (*Result, error) {
	return c.send(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Result, error) {
	return c.send(ctx, http.MethodPut, path, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Result, error) {
	return c.send(ctx, http.MethodPatch, path, body)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*Result, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, payload, true)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, hasBody bool) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", method),
		zap.String("path", path),
	)

	authorization, err := c.signer.Authorization(body)
	if err != nil {
		log.Error("Failed to sign lakala request", zap.Error(err))
		c.observe(method, path, "sign_error", 0)
		return nil, err
	}

	header := make(http.Header)
	header.Set("Authorization", authorization)
	if hasBody {
		header.Set("Content-Type", "application/json;charset=utf-8")
		header.Set("Accept", "application/json")
	}

	timer := metrics.StartTimer()
	resp, err := c.http.Do(ctx, &httpclient.Request{
		Method: method,
		URL:    c.baseURL + path,
		Header: header,
		Body:   body,
	})
	if err != nil {
		log.Error("Lakala request failed", zap.Error(err))
		c.observe(method, path, "transport_error", timer.Duration())
		return nil, &TransportError{StatusCode: -1, Message: err.Error(), Err: err}
	}

	log = log.With(
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
	)

	result, err := interpret(resp)
	if err != nil {
		log.Error("Lakala returned an unusable response",
			zap.Error(err),
			zap.ByteString("response", resp.Body),
		)
		c.observe(method, path, outcome(err), timer.Duration())
		return nil, err
	}

	log.Info("Lakala request completed", zap.String("code", result.Code()))
	c.observe(method, path, "ok", timer.Duration())
	return result, nil
}

func interpret(resp *httpclient.Response) (*Result, error) {
	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !success {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: resp.Error}
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, newEmptyResponseError(resp.StatusCode)
	}
	if resp.Error != "" {
		return nil, &MalformedPayloadError{Err: fmt.Errorf("%s", resp.Error)}
	}
	if resp.JSON() == nil {
		return nil, &MalformedPayloadError{Err: fmt.Errorf("response is not a JSON document")}
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Raw:        json.RawMessage(resp.Body),
		Data:       resp.JSON(),
	}, nil
}

func outcome(err error) string {
	switch err.(type) {
	case *TransportError:
		return "http_error"
	case *EmptyResponseError:
		return "empty_response"
	case *MalformedPayloadError:
		return "malformed_payload"
	default:
		return "error"
	}
}

func (c *Client) observe(method, path, outcome string, d time.Duration) {
	if c.observer == nil {
		return
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	c.observer.ObserveGatewayCall(method, path, outcome, d)
}

// encodeBody renders body as compact JSON without HTML escaping; non-ASCII
// text is left as UTF-8.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// withQuery appends the encoded query to path, respecting an existing '?'.
func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + query.Encode()
}
