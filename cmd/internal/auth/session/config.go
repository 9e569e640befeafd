package session

import (
	"os"
	"regexp"
	"strings"
	"time"
)

var profilePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Config defines runtime configuration for the session manager.
type Config struct {
	// Profile namespaces persisted tokens so several accounts can share one store.
	Profile string

	// RefreshTimeout bounds a refresh exchange. The exchange is shared by
	// every concurrent caller, so it does not follow any single caller's context.
	RefreshTimeout time.Duration

	// Fallback user-facing messages when the server sends no detail.
	LoginFailedMessage    string
	RegisterFailedMessage string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Profile:               "default",
		RefreshTimeout:        15 * time.Second,
		LoginFailedMessage:    "login failed",
		RegisterFailedMessage: "registration failed",
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - LEADFLOW_PROFILE (lowercase letters, digits, '-' and '_'; max 64)
//   - LEADFLOW_SESSION_REFRESH_TIMEOUT
//   - LEADFLOW_LOGIN_FAILED_MESSAGE
//   - LEADFLOW_REGISTER_FAILED_MESSAGE
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("LEADFLOW_PROFILE")); v != "" {
		cfg.Profile = v
	}

	if v := os.Getenv("LEADFLOW_SESSION_REFRESH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("LEADFLOW_LOGIN_FAILED_MESSAGE")); v != "" {
		cfg.LoginFailedMessage = v
	}
	if v := strings.TrimSpace(os.Getenv("LEADFLOW_REGISTER_FAILED_MESSAGE")); v != "" {
		cfg.RegisterFailedMessage = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the profile name and timeouts.
func (c Config) Validate() error {
	if !profilePattern.MatchString(c.Profile) {
		return ErrConfig
	}
	if c.RefreshTimeout <= 0 {
		return ErrConfig
	}
	return nil
}
