// Package store persists the simple client's username between runs.
package store

import (
	"context"
	"fmt"

	"github.com/npezzotti/go-chatroom-client/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const usernameKey = "username"

type UsernameStore interface {
	// GetUsername returns "" when no username has been saved.
	GetUsername(ctx context.Context) (string, error)
	SetUsername(ctx context.Context, username string) error
	Close() error
}

// Open returns the backend selected by cfg.Type.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (UsernameStore, error) {
	logger = logger.With(zap.String("store", cfg.Type))

	var (
		s   UsernameStore
		err error
	)

	switch cfg.Type {
	case config.StoreSQLite:
		logger.Info("using sqlite store", zap.String("path", cfg.Path))
		s, err = NewSQLiteStore(cfg.Path)
	case config.StorePostgres:
		logger.Info("using postgres store")
		s, err = NewPgUsernameStore(ctx, cfg.DSN)
	case config.StoreRedis:
		logger.Info("using redis store", zap.String("addr", cfg.RedisAddr))
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s, err = NewRedisStore(ctx, client, cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Type, err)
	}

	return s, nil
}
