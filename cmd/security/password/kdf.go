package password

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// NewSalt returns SaltLength random bytes.
func (k KDF) NewSalt() ([]byte, error) {
	salt := make([]byte, k.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	return salt, nil
}

// DeriveKey stretches secret into a KeyLength-byte key with Argon2id.
// The salt must be at least 8 bytes.
func (k KDF) DeriveKey(secret, salt []byte) ([]byte, error) {
	if len(salt) < 8 {
		return nil, ErrInvalidSalt
	}
	return argon2.IDKey(
		secret,
		salt,
		k.Iterations,
		k.MemoryKiB,
		k.Parallelism,
		k.KeyLength,
	), nil
}
