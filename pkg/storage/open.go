package storage

import (
	"context"
	"fmt"

	"github.com/mikeboe/lab-dashboard/pkg/config"
	"github.com/mikeboe/lab-dashboard/pkg/database"
	"github.com/redis/go-redis/v9"
)

// Backend is an opened store plus the database it sits on, if any.
type Backend struct {
	Store Store
	// DB is set for the postgres backend only.
	DB *database.PostgresDB

	closers []func()
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Open builds the store selected by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return &Backend{Store: NewMemoryStore()}, nil

	case config.BackendFile:
		return &Backend{Store: NewFileStore(cfg.StateFile)}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rs := NewRedisStore(client, cfg.RedisPrefix)
		if err := rs.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		return &Backend{Store: rs, closers: []func(){func() { _ = client.Close() }}}, nil

	case config.BackendPostgres:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		ps, err := NewPostgresStore(db.Pool, cfg.KVTable)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := ps.EnsureTable(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Backend{Store: ps, DB: db, closers: []func(){db.Close}}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
