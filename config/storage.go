package config

import (
	"fmt"
	"strings"
)

// StorageMode selects where the authenticated session is persisted.
type StorageMode string

const (
	// StorageModeMemory keeps the session in process memory only.
	StorageModeMemory StorageMode = "memory"
	// StorageModeSQLite persists to a local SQLite file.
	StorageModeSQLite StorageMode = "sqlite"
	// StorageModeRedis persists to Redis.
	StorageModeRedis StorageMode = "redis"
	// StorageModePostgres persists to the kv_entries table in Postgres.
	StorageModePostgres StorageMode = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageMode.
func (m *StorageMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "sqlite", "redis", "postgres":
		*m = StorageMode(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageMode: %q (valid options: memory, sqlite, redis, postgres)", v)
	}
}

// StorageConfig controls session persistence.
type StorageConfig struct {
	Mode StorageMode `env:"STORAGE_MODE" envDefault:"sqlite"`

	// SessionKey is the well-known key holding the persisted session.
	SessionKey string `env:"STORAGE_SESSION_KEY" envDefault:"campus-auth:session"`

	// EncryptionKey seals the persisted session at rest when set. A hex encoded
	// 32-byte key is used verbatim; any other value is hashed into one.
	EncryptionKey string `env:"STORAGE_ENCRYPTION_KEY"`
}

// Sanitize applies defaults.
func (c *StorageConfig) Sanitize() {
	if c.Mode == "" {
		c.Mode = StorageModeSQLite
	}
	if c.SessionKey = strings.TrimSpace(c.SessionKey); c.SessionKey == "" {
		c.SessionKey = "campus-auth:session"
	}
}

// Persistent reports whether sessions survive a restart.
func (c *StorageConfig) Persistent() bool {
	return c.Mode != StorageModeMemory
}
