package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/target/campus-auth/internal/clock"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"
)

// DefaultSessionKey is the well-known key holding the serialized PersistedSession.
const DefaultSessionKey = "campus-auth:session"

// KVPersistence implements ports.SessionPersistence on top of a key-value store,
// keeping exactly one JSON record under a single key.
type KVPersistence struct {
	kv    ports.KeyValueStore
	key   string
	clock clock.Clock
}

var _ ports.SessionPersistence = (*KVPersistence)(nil)

// KVPersistenceOptions groups dependencies for KVPersistence.
type KVPersistenceOptions struct {
	Store ports.KeyValueStore
	Key   string      // defaults to DefaultSessionKey
	Clock clock.Clock // defaults to clock.Real
}

// NewKVPersistence constructs a KVPersistence.
func NewKVPersistence(opts KVPersistenceOptions) *KVPersistence {
	key := opts.Key
	if key == "" {
		key = DefaultSessionKey
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &KVPersistence{kv: opts.Store, key: key, clock: clk}
}

// Save writes the session with a TTL matching its remaining lifetime.
func (p *KVPersistence) Save(ctx context.Context, sess domainauth.PersistedSession) error {
	if sess.Token == "" {
		return errors.New("session token cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(p.clock.Now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := p.kv.Set(ctx, p.key, data, ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Load returns the stored session, or nil when none is stored.
// Expiry is not checked here; the caller decides what a stale record means.
func (p *KVPersistence) Load(ctx context.Context) (*domainauth.PersistedSession, error) {
	data, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess domainauth.PersistedSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrCorruptSession, err)
	}
	return &sess, nil
}

// Clear deletes the stored session. Deleting an absent record is not an error.
func (p *KVPersistence) Clear(ctx context.Context) error {
	if err := p.kv.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
