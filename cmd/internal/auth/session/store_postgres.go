package session

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// PostgresStore persists tokens in <schema>.client_tokens so that several
// daemons can share a session. Writes are plain upserts: last writer wins.
type PostgresStore struct {
	pool    *pgxpool.Pool
	schema  string
	profile string
}

// NewPostgresStore creates a Postgres-backed token store (default schema "leadflow").
// The pool is owned by the caller; Close is a no-op.
func NewPostgresStore(pool *pgxpool.Pool, profile string) (*PostgresStore, error) {
	return NewPostgresStoreWithSchema(pool, "leadflow", profile)
}

// NewPostgresStoreWithSchema is NewPostgresStore with an explicit schema.
func NewPostgresStoreWithSchema(pool *pgxpool.Pool, schema, profile string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: nil pool", ErrConfig)
	}
	if !schemaPattern.MatchString(schema) {
		return nil, fmt.Errorf("%w: schema %q", ErrConfig, schema)
	}
	if !profilePattern.MatchString(profile) {
		return nil, fmt.Errorf("%w: profile %q", ErrConfig, profile)
	}
	return &PostgresStore{pool: pool, schema: schema, profile: profile}, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "client_tokens"}.Sanitize()
}

// EnsureSchema creates the schema and table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx,
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{s.schema}.Sanitize()),
	); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			profile    text        NOT NULL,
			key        text        NOT NULL CHECK (key IN ('access_token', 'refresh_token')),
			value      text        NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (profile, key)
		)
	`, s.table()))
	return err
}

// Load reads both tokens for the profile.
func (s *PostgresStore) Load(ctx context.Context) (Tokens, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT key, value FROM %s WHERE profile = $1`, s.table()),
		s.profile,
	)
	if err != nil {
		return Tokens{}, err
	}
	defer rows.Close()

	var t Tokens
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Tokens{}, err
		}
		switch k {
		case KeyAccessToken:
			t.Access = v
		case KeyRefreshToken:
			t.Refresh = v
		}
	}
	return t, rows.Err()
}

// Save upserts (or deletes, for empty values) both tokens in one transaction.
func (s *PostgresStore) Save(ctx context.Context, t Tokens) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, kv := range [...]struct{ k, v string }{
		{KeyAccessToken, t.Access},
		{KeyRefreshToken, t.Refresh},
	} {
		if kv.v == "" {
			_, err = tx.Exec(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE profile = $1 AND key = $2`, s.table()),
				s.profile, kv.k,
			)
		} else {
			_, err = tx.Exec(ctx, fmt.Sprintf(`
				INSERT INTO %s (profile, key, value, updated_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (profile, key)
				DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
			`, s.table()), s.profile, kv.k, kv.v)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Clear deletes both tokens for the profile.
func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE profile = $1`, s.table()),
		s.profile,
	)
	return err
}

// Close is a no-op; the app owns the pool.
func (s *PostgresStore) Close() error { return nil }
