package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

const (
	productsCacheKey = "catalog:products"
	productsCacheTTL = 30 * time.Minute
)

var _ Source = (*Cached)(nil)

// Cached puts a redis cache-aside in front of another Source. Cache
// failures are logged and fall through to the source.
type Cached struct {
	source Source
	cache  *redis.Client
	logger *zap.Logger
}

func NewCached(source Source, cache *redis.Client, logger *zap.Logger) *Cached {
	return &Cached{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

func (c *Cached) ListProducts(ctx context.Context) ([]models.Product, error) {
	// 嘗試從快取中獲取
	data, err := c.cache.Get(ctx, productsCacheKey).Bytes()
	switch {
	case err == nil:
		var products []models.Product
		if err = json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		c.logger.Warn("Failed to decode cached products", zap.Error(err))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Failed to get products from cache", zap.Error(err))
	}

	products, err := c.source.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	// 更新快取
	if data, err = json.Marshal(products); err != nil {
		c.logger.Warn("Failed to encode products for cache", zap.Error(err))
		return products, nil
	}
	if err = c.cache.Set(ctx, productsCacheKey, data, productsCacheTTL).Err(); err != nil {
		c.logger.Warn("Failed to cache products", zap.Error(err))
	}

	return products, nil
}
