package session

import (
	"context"
	"sync"
)

// Storage keys. These are the only persisted session values.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Tokens is the persisted token pair. An empty field means "not held".
type Tokens struct {
	Access  string
	Refresh string
}

// Empty reports whether neither token is held.
func (t Tokens) Empty() bool { return t.Access == "" && t.Refresh == "" }

// TokenStore persists the token pair.
//
// Requirements:
//   - Save writes both keys; an empty value deletes its key
//   - Load of an empty store returns zero Tokens and no error
//   - Last writer wins; no cross-process coordination
type TokenStore interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, t Tokens) error
	Clear(ctx context.Context) error
	Close() error
}

// MemoryStore is a process-local TokenStore for tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.Mutex
	vals   map[string]string
	closed bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vals: make(map[string]string, 2)}
}

// Load returns the held tokens.
func (s *MemoryStore) Load(ctx context.Context) (Tokens, error) {
	if err := ctx.Err(); err != nil {
		return Tokens{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Tokens{}, ErrStoreClosed
	}
	return Tokens{Access: s.vals[KeyAccessToken], Refresh: s.vals[KeyRefreshToken]}, nil
}

// Save replaces both tokens.
func (s *MemoryStore) Save(ctx context.Context, t Tokens) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	setOrDelete(s.vals, KeyAccessToken, t.Access)
	setOrDelete(s.vals, KeyRefreshToken, t.Refresh)
	return nil
}

// Clear removes both tokens.
func (s *MemoryStore) Clear(ctx context.Context) error {
	return s.Save(ctx, Tokens{})
}

// Close marks the store unusable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Raw returns the stored value for key, for inspection in tests and tooling.
func (s *MemoryStore) Raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[key]
	return v, ok
}

func setOrDelete(m map[string]string, k, v string) {
	if v == "" {
		delete(m, k)
		return
	}
	m[k] = v
}
