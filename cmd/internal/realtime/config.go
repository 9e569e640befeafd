package realtime

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrConfig is returned for invalid configuration.
var ErrConfig = errors.New("invalid config")

// Config defines runtime configuration for the realtime client.
type Config struct {
	// APIBaseURL is the REST root (e.g. http://localhost:8000/api/v1).
	// The socket endpoint is derived from it.
	APIBaseURL string

	HeartbeatInterval time.Duration
	BaseDelay         time.Duration
	MaxAttempts       int

	DialTimeout  time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64

	// TypingLimit > 0 throttles SendTyping to that many frames per
	// TypingWindow and conversation.
	TypingLimit  int
	TypingWindow time.Duration

	// InboxSize bounds cached messages per conversation in the Monitor.
	InboxSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:        "http://localhost:8000/api/v1",
		HeartbeatInterval: heartbeatInterval,
		BaseDelay:         baseDelay,
		MaxAttempts:       maxAttempts,
		DialTimeout:       dialTimeout,
		WriteTimeout:      writeTimeout,
		ReadLimit:         maxFrameBytes,
		TypingWindow:      typingWindow,
		InboxSize:         inboxMaxMessages,
	}
}

// LoadConfigFromEnv loads realtime configuration from environment variables.
//
// Optional:
//   - LEADFLOW_API_URL
//   - LEADFLOW_WS_HEARTBEAT_INTERVAL
//   - LEADFLOW_WS_RECONNECT_BASE_DELAY
//   - LEADFLOW_WS_MAX_RECONNECT_ATTEMPTS
//   - LEADFLOW_WS_DIAL_TIMEOUT
//   - LEADFLOW_WS_WRITE_TIMEOUT
//   - LEADFLOW_WS_READ_LIMIT
//   - LEADFLOW_WS_TYPING_LIMIT
//   - LEADFLOW_WS_TYPING_WINDOW
//   - LEADFLOW_WS_INBOX_SIZE
//
// Unparsable values fall back to defaults. Returns ErrConfig if the result
// is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.APIBaseURL = envString("LEADFLOW_API_URL", cfg.APIBaseURL)
	cfg.HeartbeatInterval = envDuration("LEADFLOW_WS_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	cfg.BaseDelay = envDuration("LEADFLOW_WS_RECONNECT_BASE_DELAY", cfg.BaseDelay)
	cfg.MaxAttempts = envInt("LEADFLOW_WS_MAX_RECONNECT_ATTEMPTS", cfg.MaxAttempts)
	cfg.DialTimeout = envDuration("LEADFLOW_WS_DIAL_TIMEOUT", cfg.DialTimeout)
	cfg.WriteTimeout = envDuration("LEADFLOW_WS_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.ReadLimit = int64(envInt("LEADFLOW_WS_READ_LIMIT", int(cfg.ReadLimit)))
	cfg.TypingLimit = envInt("LEADFLOW_WS_TYPING_LIMIT", cfg.TypingLimit)
	cfg.TypingWindow = envDuration("LEADFLOW_WS_TYPING_WINDOW", cfg.TypingWindow)
	cfg.InboxSize = envInt("LEADFLOW_WS_INBOX_SIZE", cfg.InboxSize)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and ranges.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return ErrConfig
	}
	if _, err := Endpoint(c.APIBaseURL, "x"); err != nil {
		return ErrConfig
	}
	if c.HeartbeatInterval <= 0 || c.BaseDelay <= 0 || c.MaxAttempts <= 0 {
		return ErrConfig
	}
	if c.DialTimeout <= 0 || c.WriteTimeout <= 0 || c.ReadLimit <= 0 {
		return ErrConfig
	}
	if c.TypingLimit < 0 || (c.TypingLimit > 0 && c.TypingWindow <= 0) {
		return ErrConfig
	}
	return nil
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
