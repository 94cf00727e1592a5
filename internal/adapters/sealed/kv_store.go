// Package sealed wraps a key-value store so values are encrypted at rest.
package sealed

import (
	"context"
	"fmt"
	"time"

	"github.com/target/campus-auth/internal/cryptoutil"
	"github.com/target/campus-auth/internal/ports"
)

// KVStore seals every value before handing it to the inner store. The key name is
// bound as additional data, so a value copied to another key fails to open.
type KVStore struct {
	inner  ports.KeyValueStore
	sealer cryptoutil.Sealer
}

var _ ports.KeyValueStore = (*KVStore)(nil)

// New wraps inner with sealer.
func New(inner ports.KeyValueStore, sealer cryptoutil.Sealer) *KVStore {
	return &KVStore{inner: inner, sealer: sealer}
}

// Get opens the stored value.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.sealer.Open(data, key)
	if err != nil {
		return nil, fmt.Errorf("unseal %s: %w", key, err)
	}
	return plain, nil
}

// Set seals value and stores it.
func (s *KVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := s.sealer.Seal(value, key)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, data, ttl)
}

// Delete removes key from the inner store.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
