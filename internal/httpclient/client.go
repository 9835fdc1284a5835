// Package httpclient is a small HTTP client that returns the whole exchange
// (status, headers, body, extracted error) as a Response.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"lakala-sdk/internal/logger"

	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

// Request describes a single outbound call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type Options struct {
	Timeout time.Duration
	// InsecureSkipVerify disables TLS peer and host verification. It exists
	// only for gateways with broken certificate chains.
	InsecureSkipVerify bool
	Transport          http.RoundTripper
}

type Client struct {
	http      *http.Client
	userAgent string
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := opts.Transport
	if transport == nil && opts.InsecureSkipVerify {
		logger.L().Warn("TLS verification disabled for gateway client")
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		transport = t
	}

	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent(),
	}
}

// Do performs req. A non-nil error means no HTTP response was received;
// HTTP-level failures are reported through Response.Error instead.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.FromCtx(ctx).Debug("http request failed",
			zap.String("method", httpReq.Method),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return newResponse(resp.StatusCode, resp.Header, respBody, time.Since(start)), nil
}

func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url, Header: header})
}

func (c *Client) Delete(ctx context.Context, url string, header http.Header) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, URL: url, Header: header})
}

func (c *Client) Post(ctx context.Context, url string, body []byte, header http.Header) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, URL: url, Header: header, Body: body})
}

func (c *Client) Put(ctx context.Context, url string, body []byte, header http.Header) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, URL: url, Header: header, Body: body})
}

func (c *Client) Patch(ctx context.Context, url string, body []byte, header http.Header) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, URL: url, Header: header, Body: body})
}

func userAgent() string {
	return fmt.Sprintf("(%s/%s) Go/%s", runtime.GOOS, runtime.GOARCH, strings.TrimPrefix(runtime.Version(), "go"))
}
