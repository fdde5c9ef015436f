package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis keeps values under prefix+key with no expiry.
type Redis struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedis(client *redis.Client, prefix string, logger *zap.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get value", zap.String("key", r.prefix+key), zap.Error(err))
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		r.logger.Error("Failed to set value", zap.String("key", r.prefix+key), zap.Error(err))
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.Error("Failed to delete value", zap.String("key", r.prefix+key), zap.Error(err))
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}
