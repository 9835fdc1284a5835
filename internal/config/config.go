package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lakala-sdk/internal/lakala"
	"lakala-sdk/internal/utils"

	"github.com/joho/godotenv"
)

const defaultPort = "8080"

type Config struct {
	AppEnv  string
	AppPort string

	// DBURL takes precedence over the individual DB_* settings.
	DBURL      string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret string

	// Peers allowed to set X-Forwarded-For / X-Real-IP. Empty trusts none.
	TrustedProxies utils.TrustedProxies

	Service lakala.ServiceName
	Lakala  lakala.Config
}

// LoadConfig reads .env (if present) and the environment. Missing gateway
// credentials fail fast.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:     os.Getenv("APP_ENV"),
		AppPort:    os.Getenv("APP_PORT"),
		DBURL:      os.Getenv("DB_URL"),
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		Lakala: lakala.Config{
			AppID:              os.Getenv("LAKALA_APPID"),
			SerialNo:           os.Getenv("LAKALA_SERIAL_NO"),
			MerchantNo:         os.Getenv("LAKALA_MERC_ID"),
			TermNo:             os.Getenv("LAKALA_TERM_NO"),
			PrivateKey:         os.Getenv("LAKALA_PRIVATE_KEY"),
			PrivateKeyPassword: os.Getenv("LAKALA_PRIVATE_KEY_PASSWORD"),
			Certificate:        os.Getenv("LAKALA_CERTIFICATE"),
			BaseURL:            os.Getenv("LAKALA_BASE_URL"),
		},
	}

	if cfg.AppPort == "" {
		cfg.AppPort = defaultPort
	}

	var missing []string
	for _, f := range []struct{ key, value string }{
		{"LAKALA_APPID", cfg.Lakala.AppID},
		{"LAKALA_SERIAL_NO", cfg.Lakala.SerialNo},
		{"LAKALA_MERC_ID", cfg.Lakala.MerchantNo},
		{"LAKALA_PRIVATE_KEY", cfg.Lakala.PrivateKey},
		{"JWT_SECRET", cfg.JWTSecret},
	} {
		if f.value == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	service := os.Getenv("LAKALA_SERVICE")
	if service == "" {
		service = string(lakala.AggregationCashdesk)
	}
	name, err := lakala.ParseServiceName(service)
	if err != nil {
		return nil, fmt.Errorf("LAKALA_SERVICE: %w", err)
	}
	cfg.Service = name

	if cfg.Lakala.TestEnv, err = parseBool("LAKALA_TEST_ENV"); err != nil {
		return nil, err
	}
	if cfg.Lakala.InsecureSkipVerify, err = parseBool("LAKALA_INSECURE_SKIP_VERIFY"); err != nil {
		return nil, err
	}
	if cfg.Lakala.Timeout, err = parseTimeout("LAKALA_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.TrustedProxies, err = utils.ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES")); err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func parseBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// parseTimeout accepts a Go duration ("15s") or a number of seconds.
func parseTimeout(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%s: must not be negative", key)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, errors.New(key + ": must not be negative")
	}
	return d, nil
}
