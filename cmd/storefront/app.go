package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	shop "gofalre.io/storefront"
	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/catalog"
	"gofalre.io/storefront/config"
	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/event"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/order"
	"gofalre.io/storefront/session"
	"gofalre.io/storefront/storage"
)

const redisKeyPrefix = "storefront:"

// app connects to backing services on first use and closes them on exit.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	out    io.Writer
	money  *moneyFormatter

	redis *redis.Client
	db    *driver.DB
	nats  *nats.Conn
	shop  shop.Service
}

func newApp(cfg config.Config, logger *zap.Logger, out io.Writer) (*app, error) {
	unit, err := cfg.CurrencyUnit()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		out:    out,
		money:  newMoneyFormatter(unit),
	}, nil
}

func (a *app) close() {
	if a.shop != nil {
		a.shop.Close()
	}
	if a.nats != nil {
		a.nats.Close()
	}
	if a.db != nil {
		a.db.Pool.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}

	client, err := driver.ConnectRedis(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return client, nil
}

func (a *app) catalogSource(ctx context.Context) catalog.Source {
	var source catalog.Source = catalog.NewClient(a.cfg.CatalogURL, nil, a.logger)
	if !a.cfg.CatalogCache {
		return source
	}

	client, err := a.redisClient(ctx)
	if err != nil {
		a.logger.Warn("Product cache unavailable", zap.Error(err))
		return source
	}
	return catalog.NewCached(source, client, a.logger)
}

// cartStore builds the cart over the configured backend. When the backend
// cannot be opened the cart runs without durable storage.
func (a *app) cartStore(ctx context.Context) *cart.Store {
	var backend cart.Storage

	switch a.cfg.CartStorage {
	case config.StorageFile:
		file, err := storage.NewFile(a.cfg.CartDir, a.logger)
		if err != nil {
			a.logger.Warn("File cart storage unavailable", zap.Error(err))
			break
		}
		backend = file
	case config.StorageRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			a.logger.Warn("Redis cart storage unavailable", zap.Error(err))
			break
		}
		backend = storage.NewRedis(client, redisKeyPrefix, a.logger)
	}

	store := cart.NewStore(backend, a.cfg.CartKey, a.logger)
	store.Initialize(ctx)
	return store
}

func (a *app) sessions(ctx context.Context) session.Provider {
	if a.cfg.SessionToken != "" {
		client, err := a.redisClient(ctx)
		if err != nil {
			a.logger.Warn("Session store unavailable", zap.Error(err))
			return session.NewStatic(nil)
		}
		return session.NewRedisProvider(client, a.cfg.SessionToken, a.logger)
	}
	if a.cfg.Email != "" {
		return session.NewStatic(&models.Session{Email: a.cfg.Email})
	}
	return session.NewStatic(nil)
}

// shopService connects postgres and, when reachable, NATS.
func (a *app) shopService(ctx context.Context) (shop.Service, error) {
	if a.shop != nil {
		return a.shop, nil
	}

	db, err := driver.ConnectSQL(ctx, a.cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	a.db = db

	var broker shop.Broker
	if conn, err := driver.ConnectNATS(a.cfg.NATSURL, "storefront", a.logger); err != nil {
		a.logger.Warn("Message broker unavailable, checkout events will not be published", zap.Error(err))
	} else {
		a.nats = conn
		broker = conn
	}

	var cache *redis.Client
	if a.cfg.CatalogCache || a.cfg.CartStorage == config.StorageRedis {
		if cache, err = a.redisClient(ctx); err != nil {
			a.logger.Warn("Checkout cache unavailable", zap.Error(err))
			cache = nil
		}
	}

	a.shop = shop.NewService(
		order.NewRepository(db.Pool, cache, a.logger),
		event.NewRepository(db.Pool, a.logger),
		driver.NewTransactionManager(db.Pool, a.logger),
		broker,
		a.logger,
	)
	return a.shop, nil
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

