package lakala

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type ServiceName string

const (
	AggregationCashdesk ServiceName = "aggregation_cashdesk"
	AggregationScan     ServiceName = "aggregation_scan"
)

// Service is the capability set shared by every service variant.
type Service interface {
	Name() ServiceName
	BaseURL() string
	APIVersion() string
	Get(ctx context.Context, path string, query url.Values) (*Result, error)
	Delete(ctx context.Context, path string, query url.Values) (*Result, error)
	Post(ctx context.Context, path string, body any) (*Result, error)
	Put(ctx context.Context, path string, body any) (*Result, error)
	Patch(ctx context.Context, path string, body any) (*Result, error)
	VerifySignature(authorization string, body []byte) bool
	ParseNotification(authorization string, body []byte) (*Notification, error)
}

var registry = map[ServiceName]func(Config, ...Option) (Service, error){
	AggregationCashdesk: func(cfg Config, opts ...Option) (Service, error) {
		return NewCashdesk(cfg, opts...)
	},
	AggregationScan: func(cfg Config, opts ...Option) (Service, error) {
		return NewScan(cfg, opts...)
	},
}

// New constructs the named service. Callers keep the returned handle; there
// is no shared cache.
func New(name ServiceName, cfg Config, opts ...Option) (Service, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	return ctor(cfg, opts...)
}

// ParseServiceName accepts snake_case, kebab-case or StudlyCase names.
func ParseServiceName(s string) (ServiceName, error) {
	want := normalizeName(s)
	if want != "" {
		for name := range registry {
			if normalizeName(string(name)) == want {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownService, s)
}

func ServiceNames() []ServiceName {
	return []ServiceName{AggregationCashdesk, AggregationScan}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
}
