package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileKeys maps config file keys to the environment variables they stand in for.
var fileKeys = map[string]string{
	"http_addr":                  "LEADFLOW_HTTP_ADDR",
	"log_level":                  "LEADFLOW_LOG_LEVEL",
	"log_format":                 "LEADFLOW_LOG_FORMAT",
	"log_color":                  "LEADFLOW_LOG_COLOR",
	"token_store":                "LEADFLOW_TOKEN_STORE",
	"state_path":                 "LEADFLOW_STATE_PATH",
	"database_url":               "LEADFLOW_DATABASE_URL",
	"db_schema":                  "LEADFLOW_DB_SCHEMA",
	"db_max_conns":               "LEADFLOW_DB_MAX_CONNS",
	"require_sealing":            "LEADFLOW_REQUIRE_SEALING",
	"email":                      "LEADFLOW_EMAIL",
	"watch_conversations":        "LEADFLOW_WATCH_CONVERSATIONS",
	"readiness_require_realtime": "LEADFLOW_READINESS_REQUIRE_REALTIME",
	"api_url":                    "LEADFLOW_API_URL",
	"api_timeout":                "LEADFLOW_API_TIMEOUT",
	"api_user_agent":             "LEADFLOW_API_USER_AGENT",
	"profile":                    "LEADFLOW_PROFILE",
	"session_refresh_timeout":    "LEADFLOW_SESSION_REFRESH_TIMEOUT",
	"ws_heartbeat_interval":      "LEADFLOW_WS_HEARTBEAT_INTERVAL",
	"ws_reconnect_base_delay":    "LEADFLOW_WS_RECONNECT_BASE_DELAY",
	"ws_max_reconnect_attempts":  "LEADFLOW_WS_MAX_RECONNECT_ATTEMPTS",
	"ws_typing_limit":            "LEADFLOW_WS_TYPING_LIMIT",
	"ws_typing_window":           "LEADFLOW_WS_TYPING_WINDOW",
	"ws_inbox_size":              "LEADFLOW_WS_INBOX_SIZE",
	"password_min_len":           "LEADFLOW_PASSWORD_MIN_LEN",
	"password_max_len":           "LEADFLOW_PASSWORD_MAX_LEN",
	"password_require_letter":    "LEADFLOW_PASSWORD_REQUIRE_LETTER",
	"password_require_digit":     "LEADFLOW_PASSWORD_REQUIRE_DIGIT",
	"password_reject_very_weak":  "LEADFLOW_PASSWORD_REJECT_VERY_WEAK",
	"argon2_memory_kib":          "LEADFLOW_ARGON2_MEMORY_KIB",
	"argon2_iterations":          "LEADFLOW_ARGON2_ITERATIONS",
	"argon2_parallelism":         "LEADFLOW_ARGON2_PARALLELISM",
	"argon2_salt_len":            "LEADFLOW_ARGON2_SALT_LEN",
}

// ApplyConfigFile reads a flat YAML file and exports each key as its
// LEADFLOW_* variable unless that variable is already set, so the
// environment always wins. Secrets (passwords, passphrases) are not accepted
// from the file.
func ApplyConfigFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- operator-supplied path.
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env, ok := fileKeys[k]
		if !ok {
			return fmt.Errorf("%w: unknown config key %q", ErrConfig, k)
		}
		if _, set := os.LookupEnv(env); set {
			continue
		}
		v, err := fileValue(raw[k])
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfig, k, err)
		}
		if err := os.Setenv(env, v); err != nil {
			return err
		}
	}
	return nil
}

func fileValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(x), nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			s, err := fileValue(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
