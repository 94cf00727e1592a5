package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/campus-auth/internal/clock"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	mocks "github.com/target/campus-auth/internal/mocks/auth"
	"github.com/target/campus-auth/internal/ports"
)

func newTestPersistence(t *testing.T) (*KVPersistence, *mocks.MemoryKV, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	kv := mocks.NewMemoryKV()
	kv.Clock = clk
	return NewKVPersistence(KVPersistenceOptions{Store: kv, Clock: clk}), kv, clk
}

func TestKVPersistence_RoundTrip(t *testing.T) {
	p, kv, clk := newTestPersistence(t)
	ctx := context.Background()

	sess := testSession(clk.Now().Add(30 * time.Minute)).Persisted()
	require.NoError(t, p.Save(ctx, sess))
	assert.True(t, kv.Has(DefaultSessionKey))

	clk.Advance(29 * time.Minute)
	got, err := p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, sess.Identity, got.Identity)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
}

func TestKVPersistence_TTLMatchesRemainingLifetime(t *testing.T) {
	p, _, clk := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, testSession(clk.Now().Add(time.Minute)).Persisted()))
	clk.Advance(time.Minute)

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKVPersistence_SaveRejectsUnusableSessions(t *testing.T) {
	p, _, clk := newTestPersistence(t)
	ctx := context.Background()

	err := p.Save(ctx, domainauth.PersistedSession{ExpiresAt: clk.Now().Add(time.Hour)})
	require.Error(t, err)

	err = p.Save(ctx, testSession(clk.Now()).Persisted())
	require.Error(t, err)
}

func TestKVPersistence_LoadEmpty(t *testing.T) {
	p, _, _ := newTestPersistence(t)
	got, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKVPersistence_LoadCorrupt(t *testing.T) {
	p, kv, _ := newTestPersistence(t)
	kv.Put(DefaultSessionKey, []byte("{not json"))

	_, err := p.Load(context.Background())
	require.ErrorIs(t, err, ports.ErrCorruptSession)
}

func TestKVPersistence_StoreErrorsWrapped(t *testing.T) {
	p, kv, clk := newTestPersistence(t)
	boom := errors.New("disk full")
	kv.SetErr = boom
	kv.GetErr = boom
	kv.DeleteErr = boom
	ctx := context.Background()

	require.ErrorIs(t, p.Save(ctx, testSession(clk.Now().Add(time.Hour)).Persisted()), boom)
	_, err := p.Load(ctx)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ports.ErrCorruptSession)
	require.ErrorIs(t, p.Clear(ctx), boom)
}

func TestKVPersistence_CustomKeyAndWireFormat(t *testing.T) {
	clk := clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	kv := mocks.NewMemoryKV()
	kv.Clock = clk
	p := NewKVPersistence(KVPersistenceOptions{Store: kv, Key: "portal:session", Clock: clk})
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, testSession(clk.Now().Add(time.Hour)).Persisted()))
	raw, err := kv.Get(ctx, "portal:session")
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "tok", fields["token"])
	assert.Contains(t, fields, "expires_at")
	assert.NotContains(t, fields, "role")

	require.NoError(t, p.Clear(ctx))
	assert.False(t, kv.Has("portal:session"))
}
