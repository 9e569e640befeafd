package httpapi

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "http://localhost:8000/api/v1"
	defaultTimeout      = 30 * time.Second
	defaultUserAgent    = "leadflow/1"
	defaultMaxBodyBytes = 4 << 20 // 4 MiB
)

// Config controls the request pipeline.
type Config struct {
	// BaseURL is the REST root, including the version prefix.
	BaseURL string

	// Timeout bounds one HTTP exchange. A refresh-and-replay is two exchanges.
	Timeout time.Duration

	UserAgent string

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64
}

// DefaultConfig returns a local-development configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		Timeout:      defaultTimeout,
		UserAgent:    defaultUserAgent,
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

// LoadConfigFromEnv loads pipeline configuration from environment variables.
//
// Optional:
//   - LEADFLOW_API_URL
//   - LEADFLOW_API_TIMEOUT
//   - LEADFLOW_API_USER_AGENT
//   - LEADFLOW_API_MAX_BODY_BYTES
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("LEADFLOW_API_URL")); v != "" {
		cfg.BaseURL = v
	}

	if v := os.Getenv("LEADFLOW_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.Timeout = d
	}

	if v := strings.TrimSpace(os.Getenv("LEADFLOW_API_USER_AGENT")); v != "" {
		cfg.UserAgent = v
	}

	if v := os.Getenv("LEADFLOW_API_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1024 {
			return Config{}, ErrConfig
		}
		cfg.MaxBodyBytes = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that BaseURL is an absolute http(s) URL.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: base url: %v", ErrConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: base url scheme %q", ErrConfig, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: base url has no host", ErrConfig)
	}
	return nil
}
