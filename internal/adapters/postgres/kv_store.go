// Package postgres provides a PostgreSQL-backed key-value store for session persistence.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/target/campus-auth/internal/clock"
	"github.com/target/campus-auth/internal/ports"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// KVStore implements ports.KeyValueStore on the kv_entries table created by internal/migrate.
// Expired rows are invisible to Get and removed by PurgeExpired.
type KVStore struct {
	db    *sql.DB
	clock clock.Clock
}

var _ ports.KeyValueStore = (*KVStore)(nil)

// KVStoreOptions groups dependencies for KVStore.
type KVStoreOptions struct {
	DB    *sql.DB
	Clock clock.Clock // defaults to clock.Real
}

// NewKVStore creates a KVStore. The schema must already be migrated.
func NewKVStore(opts KVStoreOptions) *KVStore {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &KVStore{db: opts.DB, clock: clk}
}

const (
	getQuery = `
		SELECT value FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`

	upsertQuery = `
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at`

	deleteQuery = `DELETE FROM kv_entries WHERE key = $1`

	purgeQuery = `DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= $1`
)

// Get returns the live value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, getQuery, key, s.clock.Now()).Scan(&value)
	if err != nil {
		return nil, mapDBError(err)
	}
	return value, nil
}

// Set upserts value under key. A non-positive ttl stores the row without expiry.
func (s *KVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	now := s.clock.Now()
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: now.Add(ttl), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, upsertQuery, key, value, expiresAt, now); err != nil {
		return fmt.Errorf("upsert kv entry: %w", mapDBError(err))
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("delete kv entry: %w", mapDBError(err))
	}
	return nil
}

// PurgeExpired deletes rows whose expiry has passed and returns how many were removed.
func (s *KVStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeQuery, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("purge kv entries: %w", mapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge kv entries rows affected: %w", err)
	}
	return n, nil
}
