package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"leadflow/cmd/security/password"

	"golang.org/x/crypto/chacha20poly1305"
)

const prefix = "v1."

// Sealer seals and opens values with one passphrase.
// It is safe for concurrent use.
type Sealer struct {
	kdf    password.KDF
	secret []byte
	salt   []byte

	mu    sync.Mutex
	aeads map[string]cipher.AEAD // keyed by salt
}

// New returns a Sealer for passphrase. One salt is drawn per Sealer so a
// process pays for a single Argon2id derivation when writing.
func New(passphrase string, kdf password.KDF) (*Sealer, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, ErrEmptyPassphrase
	}
	kdf.KeyLength = chacha20poly1305.KeySize

	salt, err := kdf.NewSalt()
	if err != nil {
		return nil, err
	}
	return &Sealer{
		kdf:    kdf,
		secret: []byte(passphrase),
		salt:   salt,
		aeads:  make(map[string]cipher.AEAD),
	}, nil
}

// IsSealed reports whether v looks like a value produced by Seal.
func IsSealed(v string) bool { return strings.HasPrefix(v, prefix) }

// Seal encrypts plain under label.
func (s *Sealer) Seal(label, plain string) (string, error) {
	aead, err := s.aead(s.salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), len(s.salt)+aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("seal: nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, []byte(plain), []byte(label))

	blob := append(append([]byte{}, s.salt...), out...)
	return prefix + base64.RawURLEncoding.EncodeToString(blob), nil
}

// Open decrypts a value produced by Seal under the same label.
func (s *Sealer) Open(label, sealed string) (string, error) {
	if !IsSealed(sealed) {
		return "", ErrMalformed
	}
	blob, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, prefix))
	if err != nil {
		return "", ErrMalformed
	}

	saltLen := int(s.kdf.SaltLength)
	if len(blob) < saltLen+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", ErrMalformed
	}
	salt, rest := blob[:saltLen], blob[saltLen:]

	aead, err := s.aead(salt)
	if err != nil {
		return "", err
	}
	nonce, ct := rest[:aead.NonceSize()], rest[aead.NonceSize():]

	plain, err := aead.Open(nil, nonce, ct, []byte(label))
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

func (s *Sealer) aead(salt []byte) (cipher.AEAD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.aeads[string(salt)]; ok {
		return a, nil
	}
	key, err := s.kdf.DeriveKey(s.secret, salt)
	if err != nil {
		return nil, err
	}
	a, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	s.aeads[string(salt)] = a
	return a, nil
}
