package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow/cmd/internal/auth/session"
	"leadflow/cmd/security/password"
	"leadflow/cmd/security/seal"

	"github.com/jackc/pgx/v5/pgxpool"
)

// tokenBackend is the selected token store plus whatever it needs released.
type tokenBackend struct {
	store session.TokenStore
	pool  *pgxpool.Pool
}

func (b tokenBackend) Close() error {
	err := b.store.Close()
	if b.pool != nil {
		b.pool.Close()
	}
	return err
}

func (b tokenBackend) ping(ctx context.Context) error {
	return PingDB(ctx, b.pool, 2*time.Second)
}

// openTokenStore selects the backend named by cfg.TokenStore and wraps it in
// a SealedStore when a passphrase is configured.
func openTokenStore(ctx context.Context, cfg Config, kdf password.KDF, profile string, log Logger) (tokenBackend, error) {
	sealer, err := newSealer(cfg, kdf)
	if err != nil {
		return tokenBackend{}, err
	}

	var b tokenBackend
	switch cfg.TokenStore {
	case StoreMemory:
		b.store = session.NewMemoryStore()

	case StoreBolt:
		st, err := session.OpenBoltStore(cfg.StatePath, profile)
		if err != nil {
			return tokenBackend{}, err
		}
		b.store = st

	case StorePostgres:
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return tokenBackend{}, err
		}
		st, err := session.NewPostgresStoreWithSchema(pool, cfg.DBSchema, profile)
		if err != nil {
			pool.Close()
			return tokenBackend{}, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return tokenBackend{}, fmt.Errorf("token schema: %w", err)
		}
		b.store, b.pool = st, pool

	default:
		return tokenBackend{}, fmt.Errorf("%w: unknown token store %q", ErrConfig, cfg.TokenStore)
	}

	if sealer != nil {
		b.store = session.NewSealedStore(b.store, sealer)
	}
	log.Info("tokens.store", "backend", cfg.TokenStore, "profile", profile, "sealed", sealer != nil)
	return b, nil
}

// newSealer returns nil when sealing is off. RequireSealing turns a missing
// passphrase into a startup error.
func newSealer(cfg Config, kdf password.KDF) (*seal.Sealer, error) {
	if cfg.TokenPassphrase == "" {
		if cfg.RequireSealing {
			return nil, errors.New("security policy: LEADFLOW_REQUIRE_SEALING=true but LEADFLOW_TOKEN_PASSPHRASE is missing")
		}
		return nil, nil
	}
	return seal.New(cfg.TokenPassphrase, kdf)
}
