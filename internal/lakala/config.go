package lakala

import (
	"strings"
	"time"

	"lakala-sdk/internal/credential"
)

const (
	ProductionBaseURL = "https://s2.lakala.com"
	TestBaseURL       = "https://test.wsmsd.cn/sit"
)

// Config is the typed configuration shared by every service variant. Each
// constructor validates the fields its endpoints need.
type Config struct {
	AppID              string
	SerialNo           string
	MerchantNo         string
	TermNo             string
	PrivateKey         string
	PrivateKeyPassword string
	Certificate        string
	TestEnv            bool

	// BaseURL overrides the host chosen by TestEnv.
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if c.TestEnv {
		return TestBaseURL
	}
	return ProductionBaseURL
}

func (c Config) credentialOptions() credential.Options {
	return credential.Options{
		AppID:              c.AppID,
		SerialNo:           c.SerialNo,
		PrivateKey:         c.PrivateKey,
		PrivateKeyPassword: c.PrivateKeyPassword,
		Certificate:        c.Certificate,
	}
}
