package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/moodjournal/moodjournal/internal/platform/cache"
	"github.com/moodjournal/moodjournal/internal/platform/db"
	"github.com/moodjournal/moodjournal/internal/platform/kv"
)

// OpenStorage connects the key-value backend selected by STORAGE_BACKEND.
// The returned close function releases the underlying connection.
func OpenStorage(ctx context.Context, cfg *Config, logger *slog.Logger) (kv.Store, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.StorageBackend {
	case BackendMemory:
		logger.Warn("using in-memory storage, entries are lost on restart")
		return kv.NewMemory(), func() {}, nil
	case BackendRedis:
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
		return kv.NewRedis(client, cfg.StorageNamespace), closeFn, nil
	case BackendPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		store := kv.NewPostgres(pool, cfg.StorageNamespace)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: STORAGE_BACKEND %q", ErrInvalidConfig, cfg.StorageBackend)
	}
}
