package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/campus-auth/internal/clock"
	apperrors "github.com/target/campus-auth/internal/errors"
)

func openTestStore(t *testing.T, clk clock.Clock) (*KVStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	store, err := Open(context.Background(), Options{Path: path, Clock: clk})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestKVStore_SetGetDelete(t *testing.T) {
	store, _ := openTestStore(t, nil)
	ctx := context.Background()

	_, err := store.Get(ctx, "session")
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, store.Set(ctx, "session", []byte("first"), time.Hour))
	require.NoError(t, store.Set(ctx, "session", []byte("second"), time.Hour))

	got, err := store.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	require.NoError(t, store.Delete(ctx, "session"))
	require.NoError(t, store.Delete(ctx, "session"))
	_, err = store.Get(ctx, "session")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestKVStore_Expiry(t *testing.T) {
	clk := clock.NewFixed(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	store, _ := openTestStore(t, clk)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte("v"), 0))

	clk.Advance(59 * time.Second)
	_, err := store.Get(ctx, "short")
	require.NoError(t, err)

	clk.Advance(time.Second)
	_, err = store.Get(ctx, "short")
	assert.True(t, apperrors.IsNotFound(err), "expiry is exclusive at the deadline")

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, "forever")
	require.NoError(t, err)
}

func TestKVStore_SurvivesReopen(t *testing.T) {
	store, path := openTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session", []byte("persisted"), time.Hour))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	require.Error(t, err)
}
