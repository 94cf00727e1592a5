// Package redis provides Redis-based adapters for campus-auth.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"
)

// DefaultPrefix namespaces every key written by KVStore.
const DefaultPrefix = "campus-auth:"

// KVStore is a Redis-backed ports.KeyValueStore. Expiry is delegated to Redis TTLs.
type KVStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.KeyValueStore = (*KVStore)(nil)

// NewKVStore creates a KVStore using DefaultPrefix.
func NewKVStore(client redis.UniversalClient) *KVStore {
	return NewKVStoreWithPrefix(client, DefaultPrefix)
}

// NewKVStoreWithPrefix creates a KVStore with a custom key prefix. An empty prefix is allowed.
func NewKVStoreWithPrefix(client redis.UniversalClient, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

// Get returns the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("key not found")
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set stores value under key. A non-positive ttl stores the key without expiry.
func (s *KVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// TTL reports the remaining lifetime of key; a negative duration means no expiry is set.
func (s *KVStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.client.TTL(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if d == -2 {
		return 0, apperrors.NotFound("key not found")
	}
	return d, nil
}
