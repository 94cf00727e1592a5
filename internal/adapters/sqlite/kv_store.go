// Package sqlite provides a local SQLite-backed key-value store, the default
// persistence for the campusauth CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/target/campus-auth/internal/clock"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const schema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER,
	updated_at INTEGER NOT NULL
)`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA busy_timeout=5000",
}

// KVStore implements ports.KeyValueStore in a single SQLite file.
// Expiry timestamps are stored as Unix nanoseconds; a NULL expiry never expires.
type KVStore struct {
	db    *sql.DB
	clock clock.Clock
}

var _ ports.KeyValueStore = (*KVStore)(nil)

// Options configures Open.
type Options struct {
	Path  string      // database file; ":memory:" is accepted for tests
	Clock clock.Clock // defaults to clock.Real
}

// Open opens (or creates) the database at opts.Path and ensures the schema exists.
func Open(ctx context.Context, opts Options) (*KVStore, error) {
	if opts.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if opts.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps WAL mode and ":memory:" databases consistent across calls.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return nil, closeWith(db, fmt.Errorf("apply %q: %w", p, err))
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, closeWith(db, fmt.Errorf("create kv_entries: %w", err))
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &KVStore{db: db, clock: clk}, nil
}

func closeWith(db *sql.DB, err error) error {
	if closeErr := db.Close(); closeErr != nil {
		return errors.Join(err, fmt.Errorf("close sqlite: %w", closeErr))
	}
	return err
}

// Get returns the live value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, s.clock.Now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("key not found")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return value, nil
}

// Set upserts value under key. A non-positive ttl stores the row without expiry.
func (s *KVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	now := s.clock.Now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		key, value, expiresAt, now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// PurgeExpired deletes rows whose expiry has passed and returns how many were removed.
func (s *KVStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.clock.Now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite purge: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database handle.
func (s *KVStore) Close() error {
	return s.db.Close()
}
