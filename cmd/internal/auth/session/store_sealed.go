package session

import (
	"context"
	"fmt"

	"leadflow/cmd/security/seal"
)

// SealedStore encrypts token values before handing them to the inner store.
//
// Values found in plaintext (written before sealing was enabled) are returned
// as-is and get sealed on the next Save.
type SealedStore struct {
	inner  TokenStore
	sealer *seal.Sealer
}

// NewSealedStore wraps inner.
func NewSealedStore(inner TokenStore, sealer *seal.Sealer) *SealedStore {
	return &SealedStore{inner: inner, sealer: sealer}
}

// Load reads and opens both tokens.
func (s *SealedStore) Load(ctx context.Context) (Tokens, error) {
	t, err := s.inner.Load(ctx)
	if err != nil {
		return Tokens{}, err
	}
	if t.Access, err = s.open(KeyAccessToken, t.Access); err != nil {
		return Tokens{}, err
	}
	if t.Refresh, err = s.open(KeyRefreshToken, t.Refresh); err != nil {
		return Tokens{}, err
	}
	return t, nil
}

// Save seals both tokens and writes them.
func (s *SealedStore) Save(ctx context.Context, t Tokens) error {
	var err error
	if t.Access, err = s.seal(KeyAccessToken, t.Access); err != nil {
		return err
	}
	if t.Refresh, err = s.seal(KeyRefreshToken, t.Refresh); err != nil {
		return err
	}
	return s.inner.Save(ctx, t)
}

// Clear clears the inner store.
func (s *SealedStore) Clear(ctx context.Context) error { return s.inner.Clear(ctx) }

// Close closes the inner store.
func (s *SealedStore) Close() error { return s.inner.Close() }

func (s *SealedStore) seal(key, v string) (string, error) {
	if v == "" {
		return "", nil
	}
	out, err := s.sealer.Seal(key, v)
	if err != nil {
		return "", fmt.Errorf("seal %s: %w", key, err)
	}
	return out, nil
}

func (s *SealedStore) open(key, v string) (string, error) {
	if v == "" || !seal.IsSealed(v) {
		return v, nil
	}
	out, err := s.sealer.Open(key, v)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", key, err)
	}
	return out, nil
}
