package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
)

// ErrNotFound is returned when no checkout record has the requested id.
var ErrNotFound = errors.New("checkout not found")

const cacheTTL = 30 * time.Minute

var _ Repository = (*repository)(nil)

type Repository interface {
	CreateCheckout(ctx context.Context, tx pgx.Tx, record *models.CheckoutRecord) (*models.CheckoutRecord, error)
	GetCheckout(ctx context.Context, tx pgx.Tx, checkoutID uint64) (*models.CheckoutRecord, error)
	ListCheckouts(ctx context.Context, tx pgx.Tx, userEmail string, limit, offset uint64) ([]*models.CheckoutRecord, error)
	// UpdateCheckoutStatus drops the cached record only when tx is nil; callers
	// that pass a tx call InvalidateCheckout after it commits.
	UpdateCheckoutStatus(ctx context.Context, tx pgx.Tx, checkoutID uint64, status enum.CheckoutStatus, updatedAt time.Time) error
	InvalidateCheckout(ctx context.Context, checkoutID uint64)
}

type repository struct {
	conn   driver.PostgresPool
	cache  *redis.Client
	logger *zap.Logger
}

// NewRepository returns a checkout repository. A nil cache disables read caching.
func NewRepository(conn driver.PostgresPool, cache *redis.Client, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		cache:  cache,
		logger: logger,
	}
}

const insertCheckout = `
INSERT INTO checkout (user_email, name, phone_number, address, items, total_price, currency, status)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
RETURNING id, created_at, updated_at`

const selectCheckout = `
SELECT id, user_email, name, phone_number, address, items, total_price::text, currency, status, created_at, updated_at
FROM checkout`

func (r *repository) CreateCheckout(ctx context.Context, tx pgx.Tx, record *models.CheckoutRecord) (*models.CheckoutRecord, error) {
	items, err := json.Marshal(record.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout items: %w", err)
	}

	status := record.Status
	if status == "" {
		status = enum.CheckoutStatusPending
	}
	currency := record.Currency
	if currency == "" {
		currency = stripe.CurrencyUSD
	}

	created := *record
	created.Status = status
	created.Currency = currency

	var id int64
	err = driver.Use(r.conn, tx).QueryRow(ctx, insertCheckout,
		record.UserEmail,
		record.Name,
		record.PhoneNumber,
		record.Address,
		items,
		record.TotalPrice,
		string(currency),
		string(status),
	).Scan(&id, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create checkout", zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}
	created.ID = uint64(id)

	// 更新快取，交易中的紀錄可能被回滾，不寫入快取
	if tx == nil {
		r.setCache(ctx, checkoutCacheKey(created.ID), &created)
	}

	return &created, nil
}

func (r *repository) GetCheckout(ctx context.Context, tx pgx.Tx, checkoutID uint64) (*models.CheckoutRecord, error) {
	cacheKey := checkoutCacheKey(checkoutID)

	// 嘗試從快取中獲取
	if tx == nil {
		var cached models.CheckoutRecord
		if r.getCache(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	row := driver.Use(r.conn, tx).QueryRow(ctx, selectCheckout+` WHERE id = $1`, int64(checkoutID))
	record, err := scanCheckout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, checkoutID)
		}
		r.logger.Error("Failed to get checkout", zap.Uint64("checkout_id", checkoutID), zap.Error(err))
		return nil, fmt.Errorf("failed to get checkout: %w", err)
	}

	if tx == nil {
		r.setCache(ctx, cacheKey, record)
	}

	return record, nil
}

func (r *repository) ListCheckouts(ctx context.Context, tx pgx.Tx, userEmail string, limit, offset uint64) ([]*models.CheckoutRecord, error) {
	rows, err := driver.Use(r.conn, tx).Query(ctx,
		selectCheckout+` WHERE user_email = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userEmail, int64(limit), int64(offset))
	if err != nil {
		r.logger.Error("Failed to list checkouts", zap.Error(err))
		return nil, fmt.Errorf("failed to list checkouts: %w", err)
	}
	defer rows.Close()

	records := make([]*models.CheckoutRecord, 0)
	for rows.Next() {
		record, err := scanCheckout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout: %w", err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Failed to list checkouts", zap.Error(err))
		return nil, fmt.Errorf("failed to list checkouts: %w", err)
	}

	return records, nil
}

func (r *repository) UpdateCheckoutStatus(ctx context.Context, tx pgx.Tx, checkoutID uint64, status enum.CheckoutStatus, updatedAt time.Time) error {
	tag, err := driver.Use(r.conn, tx).Exec(ctx,
		`UPDATE checkout SET status = $2, updated_at = $3 WHERE id = $1`,
		int64(checkoutID), string(status), updatedAt)
	if err != nil {
		r.logger.Error("Failed to update checkout status", zap.Error(err))
		return fmt.Errorf("failed to update checkout status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, checkoutID)
	}

	// 使相關的快取失效，交易尚未提交時由呼叫端處理
	if tx == nil {
		r.invalidateCache(ctx, checkoutID)
	}
	return nil
}

func (r *repository) InvalidateCheckout(ctx context.Context, checkoutID uint64) {
	r.invalidateCache(ctx, checkoutID)
}

func scanCheckout(row pgx.Row) (*models.CheckoutRecord, error) {
	var (
		record   models.CheckoutRecord
		id       int64
		items    []byte
		currency string
		status   string
	)
	err := row.Scan(
		&id,
		&record.UserEmail,
		&record.Name,
		&record.PhoneNumber,
		&record.Address,
		&items,
		&record.TotalPrice,
		&currency,
		&status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err = json.Unmarshal(items, &record.Items); err != nil {
		return nil, fmt.Errorf("failed to decode checkout items: %w", err)
	}
	record.ID = uint64(id)
	record.Currency = stripe.Currency(currency)
	record.Status = enum.CheckoutStatus(status)

	return &record, nil
}

func checkoutCacheKey(checkoutID uint64) string {
	return fmt.Sprintf("checkout:%d", checkoutID)
}

func (r *repository) getCache(ctx context.Context, key string, dest any) bool {
	if r.cache == nil {
		return false
	}

	data, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Failed to get checkout from cache", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err = json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("Failed to decode cached checkout", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *repository) setCache(ctx context.Context, key string, value any) {
	if r.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("Failed to encode checkout for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err = r.cache.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		r.logger.Warn("Failed to cache checkout", zap.String("key", key), zap.Error(err))
	}
}

func (r *repository) invalidateCache(ctx context.Context, checkoutID uint64) {
	if r.cache == nil {
		return
	}

	key := checkoutCacheKey(checkoutID)
	if err := r.cache.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("Failed to invalidate checkout cache", zap.Error(err), zap.String("key", key))
	}
}
