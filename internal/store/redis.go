package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(ctx context.Context, client *redis.Client, prefix string) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    prefix + usernameKey,
	}, nil
}

func (s *RedisStore) GetUsername(ctx context.Context) (string, error) {
	username, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get username: %w", err)
	}
	return username, nil
}

func (s *RedisStore) SetUsername(ctx context.Context, username string) error {
	if err := s.client.Set(ctx, s.key, username, 0).Err(); err != nil {
		return fmt.Errorf("set username: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
