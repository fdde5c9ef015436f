package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

var _ Provider = (*RedisProvider)(nil)

// RedisProvider reads the session the identity provider stored under
// session:{token}.
type RedisProvider struct {
	client *redis.Client
	token  string
	now    func() time.Time
	logger *zap.Logger
}

func NewRedisProvider(client *redis.Client, token string, logger *zap.Logger) *RedisProvider {
	return &RedisProvider{
		client: client,
		token:  token,
		now:    time.Now,
		logger: logger,
	}
}

func (p *RedisProvider) CurrentSession(ctx context.Context) (*models.Session, error) {
	if p.token == "" {
		return nil, ErrNoSession
	}

	key := fmt.Sprintf("session:%s", p.token)
	data, err := p.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		p.logger.Error("Failed to read session", zap.Error(err))
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess models.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		p.logger.Warn("Failed to decode session", zap.Error(err))
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return check(&sess, p.now())
}
