package app

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetenv %s: %v", key, err)
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "leadflow.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("LEADFLOW_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("LEADFLOW_LOG_FORMAT", "PRETTY")
	t.Setenv("LEADFLOW_TOKEN_STORE", "memory")
	t.Setenv("LEADFLOW_HTTP_READ_TIMEOUT", "3s")
	t.Setenv("LEADFLOW_WATCH_CONVERSATIONS", " c1, ,c2 ")
	t.Setenv("LEADFLOW_READINESS_REQUIRE_REALTIME", "true")

	cfg := LoadConfig()

	if cfg.HTTPAddr != "127.0.0.1:9999" || cfg.LogFormat != "pretty" || cfg.TokenStore != StoreMemory {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ReadTimeout != 3*time.Second {
		t.Fatalf("ReadTimeout=%v", cfg.ReadTimeout)
	}
	if !reflect.DeepEqual(cfg.WatchConversations, []string{"c1", "c2"}) {
		t.Fatalf("WatchConversations=%v", cfg.WatchConversations)
	}
	if !cfg.ReadinessRequireRealtime {
		t.Fatalf("expected ReadinessRequireRealtime")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	base := Config{TokenStore: StoreMemory, LogFormat: "json"}

	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "memory", mutate: func(*Config) {}, ok: true},
		{name: "bolt needs path", mutate: func(c *Config) { c.TokenStore = StoreBolt }, ok: false},
		{name: "bolt with path", mutate: func(c *Config) { c.TokenStore, c.StatePath = StoreBolt, "/tmp/x.db" }, ok: true},
		{name: "postgres needs url", mutate: func(c *Config) { c.TokenStore = StorePostgres }, ok: false},
		{name: "unknown store", mutate: func(c *Config) { c.TokenStore = "redis" }, ok: false},
		{name: "unknown format", mutate: func(c *Config) { c.LogFormat = "xml" }, ok: false},
		{name: "email without password", mutate: func(c *Config) { c.Email = "a@b.c" }, ok: false},
		{name: "credentials", mutate: func(c *Config) { c.Email, c.Password = "a@b.c", "pw" }, ok: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestApplyConfigFile_EnvWins(t *testing.T) {
	unsetEnv(t, "LEADFLOW_HTTP_ADDR")
	unsetEnv(t, "LEADFLOW_WATCH_CONVERSATIONS")
	unsetEnv(t, "LEADFLOW_WS_MAX_RECONNECT_ATTEMPTS")
	t.Setenv("LEADFLOW_LOG_LEVEL", "error")

	p := writeConfigFile(t, `
http_addr: 127.0.0.1:7000
log_level: debug
watch_conversations: [c1, c2]
ws_max_reconnect_attempts: 8
`)
	if err := ApplyConfigFile(p); err != nil {
		t.Fatalf("ApplyConfigFile: %v", err)
	}

	for key, want := range map[string]string{
		"LEADFLOW_HTTP_ADDR":                 "127.0.0.1:7000",
		"LEADFLOW_LOG_LEVEL":                 "error",
		"LEADFLOW_WATCH_CONVERSATIONS":       "c1,c2",
		"LEADFLOW_WS_MAX_RECONNECT_ATTEMPTS": "8",
	} {
		if got := os.Getenv(key); got != want {
			t.Fatalf("%s=%q want %q", key, got, want)
		}
	}
}

func TestApplyConfigFile_RejectsUnknownAndSecretKeys(t *testing.T) {
	for _, body := range []string{
		"listen: 1.2.3.4:80\n",
		"password: hunter2\n",
		"token_passphrase: x\n",
	} {
		p := writeConfigFile(t, body)
		if err := ApplyConfigFile(p); !errors.Is(err, ErrConfig) {
			t.Fatalf("body %q: expected ErrConfig, got %v", body, err)
		}
	}
}

func TestApplyConfigFile_Errors(t *testing.T) {
	if err := ApplyConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	p := writeConfigFile(t, "http_addr: [unterminated\n")
	if err := ApplyConfigFile(p); err == nil {
		t.Fatalf("expected parse error")
	}
	p = writeConfigFile(t, "http_addr:\n  nested: true\n")
	if err := ApplyConfigFile(p); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for nested value, got %v", err)
	}
}

func TestEnvCSV(t *testing.T) {
	t.Setenv("LEADFLOW_TEST_CSV", "")
	if got := EnvCSV("LEADFLOW_TEST_CSV", []string{"d"}); !reflect.DeepEqual(got, []string{"d"}) {
		t.Fatalf("default: %v", got)
	}
	t.Setenv("LEADFLOW_TEST_CSV", "a,,b ,")
	if got := EnvCSV("LEADFLOW_TEST_CSV", nil); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("parsed: %v", got)
	}
}
