package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltRootBucket = []byte("sessions")

// BoltStore persists tokens in a local bbolt file, one bucket per profile.
type BoltStore struct {
	db      *bolt.DB
	profile []byte
}

// OpenBoltStore opens (or creates) the database at path. The parent directory
// is created with 0700 and the file with 0600.
func OpenBoltStore(path, profile string) (*BoltStore, error) {
	if !profilePattern.MatchString(profile) {
		return nil, fmt.Errorf("%w: profile %q", ErrConfig, profile)
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o700); err != nil {
		return nil, fmt.Errorf("bolt store dir: %w", err)
	}

	db, err := bolt.Open(clean, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt store open: %w", err)
	}

	s := &BoltStore{db: db, profile: []byte(profile)}
	err = db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(boltRootBucket)
		if err != nil {
			return err
		}
		_, err = root.CreateBucketIfNotExists(s.profile)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt store init: %w", err)
	}
	return s, nil
}

func (s *BoltStore) bucket(tx *bolt.Tx) *bolt.Bucket {
	root := tx.Bucket(boltRootBucket)
	if root == nil {
		return nil
	}
	return root.Bucket(s.profile)
}

// Load reads both tokens.
func (s *BoltStore) Load(ctx context.Context) (Tokens, error) {
	if err := ctx.Err(); err != nil {
		return Tokens{}, err
	}
	var t Tokens
	err := s.db.View(func(tx *bolt.Tx) error {
		b := s.bucket(tx)
		if b == nil {
			return nil
		}
		// Values are only valid inside the transaction; string() copies.
		t.Access = string(b.Get([]byte(KeyAccessToken)))
		t.Refresh = string(b.Get([]byte(KeyRefreshToken)))
		return nil
	})
	if err == bolt.ErrDatabaseNotOpen {
		return Tokens{}, ErrStoreClosed
	}
	return t, err
}

// Save writes both tokens in one transaction.
func (s *BoltStore) Save(ctx context.Context, t Tokens) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := s.bucket(tx)
		if b == nil {
			return fmt.Errorf("bolt store: bucket %q missing", s.profile)
		}
		if err := boltPut(b, KeyAccessToken, t.Access); err != nil {
			return err
		}
		return boltPut(b, KeyRefreshToken, t.Refresh)
	})
	if err == bolt.ErrDatabaseNotOpen {
		return ErrStoreClosed
	}
	return err
}

// Clear deletes both tokens.
func (s *BoltStore) Clear(ctx context.Context) error {
	return s.Save(ctx, Tokens{})
}

// Close closes the database file.
func (s *BoltStore) Close() error { return s.db.Close() }

func boltPut(b *bolt.Bucket, k, v string) error {
	if v == "" {
		return b.Delete([]byte(k))
	}
	return b.Put([]byte(k), []byte(v))
}
