package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrConfig is returned for invalid configuration.
var ErrConfig = errors.New("invalid config")

// Token store backends.
const (
	StoreMemory   = "memory"
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// Config contains the daemon's runtime configuration. Package-level settings
// (REST pipeline, session, realtime) are loaded by their own packages.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // json | pretty
	LogColor  bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	TokenStore string
	StatePath  string // bbolt file for TokenStore=bolt

	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	// TokenPassphrase enables at-rest sealing of persisted tokens.
	TokenPassphrase string
	RequireSealing  bool

	// Optional sign-in when no stored session survives Initialize.
	Email    string
	Password string

	// Conversations to subscribe to whenever the socket is (re)established.
	WatchConversations []string

	// If true, /readyz returns 503 until the realtime socket is connected.
	ReadinessRequireRealtime bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("LEADFLOW_HTTP_ADDR", "127.0.0.1:9464"),
		LogLevel:  EnvString("LEADFLOW_LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(EnvString("LEADFLOW_LOG_FORMAT", "json")),
		LogColor:  EnvBool("LEADFLOW_LOG_COLOR", true),

		ReadHeaderTimeout: EnvDuration("LEADFLOW_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("LEADFLOW_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("LEADFLOW_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("LEADFLOW_HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    EnvInt("LEADFLOW_HTTP_MAX_HEADER_BYTES", 1<<20),

		TokenStore: strings.ToLower(EnvString("LEADFLOW_TOKEN_STORE", StoreBolt)),
		StatePath:  EnvString("LEADFLOW_STATE_PATH", defaultStatePath()),

		DatabaseURL: EnvString("LEADFLOW_DATABASE_URL", ""),
		DBSchema:    EnvString("LEADFLOW_DB_SCHEMA", "leadflow"),
		DBMaxConns:  EnvInt32("LEADFLOW_DB_MAX_CONNS", 4),
		DBMinConns:  EnvInt32("LEADFLOW_DB_MIN_CONNS", 0),

		TokenPassphrase: os.Getenv("LEADFLOW_TOKEN_PASSPHRASE"),
		RequireSealing:  EnvBool("LEADFLOW_REQUIRE_SEALING", false),

		Email:    EnvString("LEADFLOW_EMAIL", ""),
		Password: os.Getenv("LEADFLOW_PASSWORD"),

		WatchConversations: EnvCSV("LEADFLOW_WATCH_CONVERSATIONS", nil),

		ReadinessRequireRealtime: EnvBool("LEADFLOW_READINESS_REQUIRE_REALTIME", false),
	}
}

// Validate checks cross-field rules.
func (c Config) Validate() error {
	switch c.TokenStore {
	case StoreMemory:
	case StoreBolt:
		if strings.TrimSpace(c.StatePath) == "" {
			return fmt.Errorf("%w: LEADFLOW_STATE_PATH is required for the bolt store", ErrConfig)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: LEADFLOW_DATABASE_URL is required for the postgres store", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown token store %q", ErrConfig, c.TokenStore)
	}
	switch c.LogFormat {
	case "json", "pretty":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrConfig, c.LogFormat)
	}
	if (c.Email == "") != (c.Password == "") {
		return fmt.Errorf("%w: LEADFLOW_EMAIL and LEADFLOW_PASSWORD go together", ErrConfig)
	}
	return nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".leadflow", "session.db")
	}
	return filepath.Join(dir, "leadflow", "session.db")
}
