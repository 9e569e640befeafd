package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// KDF holds the Argon2id cost used to turn the token passphrase into a
// sealing key. MemoryKiB is in KiB as required by argon2.IDKey.
type KDF struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy is what Register checks before an account is created.
type Policy struct {
	MinLength int
	MaxLength int

	RequireLetter bool
	RequireDigit  bool

	// RejectVeryWeak adds a minimal trivial-pattern check.
	RejectVeryWeak bool
}

// Config groups the two independent sections loaded from env. The session
// manager takes Policy; the token sealer takes KDF.
type Config struct {
	KDF    KDF
	Policy Policy
}

// DefaultConfig matches the registration form rules: at least 8 characters
// with one letter and one digit. KeyLength is 32 to fit XChaCha20-Poly1305.
func DefaultConfig() Config {
	threads := min(max(runtime.NumCPU(), 1), 4)

	return Config{
		KDF: KDF{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4].
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:     8,
			MaxLength:     256,
			RequireLetter: true,
			RequireDigit:  true,
		},
	}
}

// envSetting maps one variable onto Config.
type envSetting struct {
	key   string
	apply func(cfg *Config, raw string) error
}

var envSettings = []envSetting{
	{"LEADFLOW_PASSWORD_MIN_LEN", intSetting(1, 1024, func(c *Config, n int) { c.Policy.MinLength = n })},
	{"LEADFLOW_PASSWORD_MAX_LEN", intSetting(1, 4096, func(c *Config, n int) { c.Policy.MaxLength = n })},
	{"LEADFLOW_PASSWORD_REQUIRE_LETTER", boolSetting(func(c *Config, b bool) { c.Policy.RequireLetter = b })},
	{"LEADFLOW_PASSWORD_REQUIRE_DIGIT", boolSetting(func(c *Config, b bool) { c.Policy.RequireDigit = b })},
	{"LEADFLOW_PASSWORD_REJECT_VERY_WEAK", boolSetting(func(c *Config, b bool) { c.Policy.RejectVeryWeak = b })},

	// 8 MiB .. 1 GiB
	{"LEADFLOW_ARGON2_MEMORY_KIB", intSetting(8*1024, 1024*1024, func(c *Config, n int) { c.KDF.MemoryKiB = uint32(n) })},
	{"LEADFLOW_ARGON2_ITERATIONS", intSetting(1, 20, func(c *Config, n int) { c.KDF.Iterations = uint32(n) })},
	{"LEADFLOW_ARGON2_PARALLELISM", intSetting(1, math.MaxUint8, func(c *Config, n int) { c.KDF.Parallelism = uint8(n) })},
	{"LEADFLOW_ARGON2_SALT_LEN", intSetting(8, 64, func(c *Config, n int) { c.KDF.SaltLength = uint32(n) })},
}

// FromEnv loads both sections. Unset variables keep their defaults; a set
// but invalid one is an error naming the variable.
//
// Env surface:
//   - LEADFLOW_PASSWORD_MIN_LEN, LEADFLOW_PASSWORD_MAX_LEN
//   - LEADFLOW_PASSWORD_REQUIRE_LETTER, LEADFLOW_PASSWORD_REQUIRE_DIGIT
//   - LEADFLOW_PASSWORD_REJECT_VERY_WEAK
//   - LEADFLOW_ARGON2_MEMORY_KIB, LEADFLOW_ARGON2_ITERATIONS
//   - LEADFLOW_ARGON2_PARALLELISM, LEADFLOW_ARGON2_SALT_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	for _, s := range envSettings {
		raw, ok := os.LookupEnv(s.key)
		if !ok {
			continue
		}
		if err := s.apply(&cfg, strings.TrimSpace(raw)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", s.key, err)
		}
	}

	if p := cfg.Policy; p.MinLength > p.MaxLength {
		return Config{}, fmt.Errorf("password policy invalid: min_len(%d) > max_len(%d)", p.MinLength, p.MaxLength)
	}
	return cfg, nil
}

func intSetting(lo, hi int, set func(*Config, int)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("not an integer")
		}
		if n < lo || n > hi {
			return fmt.Errorf("out of range [%d..%d]", lo, hi)
		}
		set(c, n)
		return nil
	}
}

func boolSetting(set func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		b, err := parseBool(raw)
		if err != nil {
			return err
		}
		set(c, b)
		return nil
	}
}

// parseBool accepts strconv forms plus yes/no and on/off.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean")
	}
	return b, nil
}
