package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/campus-auth/config"
	postgresadapter "github.com/target/campus-auth/internal/adapters/postgres"
	redisadapter "github.com/target/campus-auth/internal/adapters/redis"
	"github.com/target/campus-auth/internal/adapters/sealed"
	"github.com/target/campus-auth/internal/adapters/sqlite"
	"github.com/target/campus-auth/internal/clock"
	"github.com/target/campus-auth/internal/ports"
	"github.com/target/campus-auth/internal/service"
)

// StorageDeps contains what BuildStorage needs to open the session backend.
type StorageDeps struct {
	Config *config.AppConfig
	Clock  clock.Clock
	Logger *slog.Logger
}

// Storage is the opened persistence backend.
// Persistence is nil in memory mode; Close is always safe to call.
type Storage struct {
	Persistence ports.SessionPersistence
	Close       func() error
}

func noopClose() error { return nil }

// BuildStorage opens the backend selected by STORAGE_MODE and wraps it with
// at-rest sealing and the single-record session persistence.
func BuildStorage(ctx context.Context, deps StorageDeps) (Storage, error) {
	if deps.Config == nil {
		return Storage{}, errors.New("storage: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	var (
		kv      ports.KeyValueStore
		closeFn = noopClose
	)

	switch cfg.Storage.Mode {
	case config.StorageModeMemory:
		logger.Info("session storage disabled, sessions last until exit")
		return Storage{Close: noopClose}, nil

	case config.StorageModeSQLite:
		store, err := sqlite.Open(ctx, sqlite.Options{Path: cfg.SQLite.Path, Clock: deps.Clock})
		if err != nil {
			return Storage{}, fmt.Errorf("open sqlite session store: %w", err)
		}
		purgeExpired(ctx, logger, store.PurgeExpired)
		kv, closeFn = store, store.Close
		logger.Debug("session storage ready", "mode", cfg.Storage.Mode, "path", cfg.SQLite.Path)

	case config.StorageModeRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return Storage{}, fmt.Errorf("connect redis session store: %w", err)
		}
		kv, closeFn = redisadapter.NewKVStoreWithPrefix(client, cfg.Redis.KeyPrefix), client.Close

	case config.StorageModePostgres:
		db, err := ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return Storage{}, fmt.Errorf("connect postgres session store: %w", err)
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				return Storage{}, errors.Join(err, db.Close())
			}
		}
		store := postgresadapter.NewKVStore(postgresadapter.KVStoreOptions{DB: db, Clock: deps.Clock})
		purgeExpired(ctx, logger, store.PurgeExpired)
		kv, closeFn = store, db.Close

	default:
		return Storage{}, fmt.Errorf("storage: unsupported mode %q", cfg.Storage.Mode)
	}

	sealer := CreateSealer(cfg.Storage.EncryptionKey, logger)
	return Storage{
		Persistence: service.NewKVPersistence(service.KVPersistenceOptions{
			Store: sealed.New(kv, sealer),
			Key:   cfg.Storage.SessionKey,
			Clock: deps.Clock,
		}),
		Close: closeFn,
	}, nil
}

// purgeExpired drops stale rows left by earlier runs. Failure is not fatal.
func purgeExpired(ctx context.Context, logger *slog.Logger, purge func(context.Context) (int64, error)) {
	n, err := purge(ctx)
	if err != nil {
		logger.Warn("failed to purge expired session rows", "error", err)
		return
	}
	if n > 0 {
		logger.Debug("purged expired session rows", "count", n)
	}
}
