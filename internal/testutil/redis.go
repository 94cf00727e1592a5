package testutil

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultTestRedisDB keeps tests away from DB 0, where developers usually keep data.
const defaultTestRedisDB = 15

// TestRedisAddr returns the first reachable address among TEST_REDIS_ADDR,
// REDIS_ADDR and the local test default.
func TestRedisAddr(t testing.TB) (string, bool) {
	t.Helper()
	candidates := []string{os.Getenv("TEST_REDIS_ADDR"), os.Getenv("REDIS_ADDR"), "localhost:56379", "localhost:6379"}
	for _, addr := range candidates {
		if addr == "" {
			continue
		}
		if ping(addr) == nil {
			return addr, true
		}
	}
	return "", false
}

func ping(addr string) error {
	c := redis.NewClient(&redis.Options{Addr: addr})
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.Ping(ctx).Err()
}

// SetupTestRedis returns a client on an emptied test database (TEST_REDIS_DB, default 15).
// The client is closed when the test finishes.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()
	addr, ok := TestRedisAddr(t)
	if !ok {
		if requireEnv("TEST_REQUIRE_REDIS") {
			t.Fatal("redis not available for testing")
		}
		t.Skip("redis not available for testing")
	}

	db := defaultTestRedisDB
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			t.Fatalf("invalid TEST_REDIS_DB %q", v)
		}
		db = n
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis db %d: %v", db, err)
	}
	return client
}
