package kv

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// CloseFunc releases the resources held by a store opened with [OpenBackend].
type CloseFunc func() error

func noopClose() error { return nil }

// OpenBackend opens the backend named by cfg.Storage.Backend.
func OpenBackend(ctx context.Context, cfg *shared.Config) (Store, CloseFunc, error) {
	switch cfg.Storage.Backend {
	case shared.BackendMemory:
		return NewMemoryStore(), noopClose, nil
	case shared.BackendPostgres:
		return openPostgres(ctx, cfg.Postgres)
	case shared.BackendRedis:
		return openRedis(ctx, cfg.Redis)
	case shared.BackendSQLite, "":
		return openSQLite(ctx, cfg.Database)
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, cfg.Storage.Backend)
	}
}

// Open opens the configured backend and falls back to a [MemoryStore] when it is unavailable,
// so local state still works for the lifetime of the process.
func Open(ctx context.Context, cfg *shared.Config, logger *log.Logger) (Store, CloseFunc) {
	store, closeFn, err := OpenBackend(ctx, cfg)
	if err != nil {
		logger.Warn("storage unavailable, keeping local state in memory", "backend", cfg.Storage.Backend, "error", err)
		return NewMemoryStore(), noopClose
	}
	logger.Debug("opened storage", "backend", cfg.Storage.Backend)
	return store, closeFn
}

func openSQLite(ctx context.Context, cfg shared.DatabaseConfig) (Store, CloseFunc, error) {
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorageUnavailable, err)
	}
	if cfg.Path != ":memory:" {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorageUnavailable, err)
	}
	return NewSQLiteStore(db), db.Close, nil
}

func openPostgres(ctx context.Context, cfg shared.PostgresConfig) (Store, CloseFunc, error) {
	if cfg.DSN == "" {
		return nil, nil, fmt.Errorf("%w: postgres dsn is empty", shared.ErrMissingConfig)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorageUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorageUnavailable, err)
	}

	store, err := NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorageUnavailable, err)
	}
	return store, func() error { pool.Close(); return nil }, nil
}

func openRedis(ctx context.Context, cfg shared.RedisConfig) (Store, CloseFunc, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: redis url: %w", shared.ErrInvalidConfig, err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorageUnavailable, err)
	}
	return NewRedisStore(rdb, cfg.Prefix), rdb.Close, nil
}
