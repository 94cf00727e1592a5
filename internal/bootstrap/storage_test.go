package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/campus-auth/config"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
)

func sqliteConfig(path, key string) *config.AppConfig {
	cfg := &config.AppConfig{
		Storage: config.StorageConfig{Mode: config.StorageModeSQLite, EncryptionKey: key},
		SQLite:  config.SQLiteConfig{Path: path},
	}
	cfg.Storage.Sanitize()
	return cfg
}

func TestBuildStorage_Memory(t *testing.T) {
	cfg := &config.AppConfig{Storage: config.StorageConfig{Mode: config.StorageModeMemory}}

	st, err := BuildStorage(context.Background(), StorageDeps{Config: cfg, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Nil(t, st.Persistence)
	require.NoError(t, st.Close())
}

func TestBuildStorage_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	st, err := BuildStorage(ctx, StorageDeps{Config: sqliteConfig(path, "correct horse battery staple"), Logger: quietLogger()})
	require.NoError(t, err)
	require.NotNil(t, st.Persistence)

	rec := domainauth.PersistedSession{
		Token:     "tok-1",
		Identity:  domainauth.Identity{ID: "u1", Email: "dean@campus.edu", RoleTag: "dean"},
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, st.Persistence.Save(ctx, rec))

	got, err := st.Persistence.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Token, got.Token)
	assert.Equal(t, rec.Identity, got.Identity)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
	require.NoError(t, st.Close())

	// A different key cannot read the sealed record.
	other, err := BuildStorage(ctx, StorageDeps{Config: sqliteConfig(path, "another passphrase"), Logger: quietLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })

	_, err = other.Persistence.Load(ctx)
	require.Error(t, err)
}

func TestBuildStorage_Errors(t *testing.T) {
	_, err := BuildStorage(context.Background(), StorageDeps{})
	require.Error(t, err)

	cfg := &config.AppConfig{Storage: config.StorageConfig{Mode: "floppy"}}
	_, err = BuildStorage(context.Background(), StorageDeps{Config: cfg, Logger: quietLogger()})
	require.Error(t, err)

	_, err = BuildStorage(context.Background(), StorageDeps{Config: sqliteConfig("", ""), Logger: quietLogger()})
	require.Error(t, err)
}
