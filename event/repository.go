package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/models"
)

// ErrNotFound is returned when an event id has never been recorded.
var ErrNotFound = errors.New("event not found")

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, event *models.Event) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Event, error)
	MarkAsProcessed(ctx context.Context, tx pgx.Tx, id string) error
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		logger: logger,
	}
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, event *models.Event) error {
	var checkoutID *int64
	if event.CheckoutID != nil {
		id := int64(*event.CheckoutID)
		checkoutID = &id
	}

	_, err := driver.Use(r.conn, tx).Exec(ctx,
		`INSERT INTO events (id, type, checkout_id, processed, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, string(event.Type), checkoutID, event.Processed, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create event", zap.String("event_id", event.ID), zap.Error(err))
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Event, error) {
	var (
		event      models.Event
		eventType  string
		checkoutID *int64
	)
	err := driver.Use(r.conn, tx).QueryRow(ctx,
		`SELECT id, type, checkout_id, processed, created_at, updated_at FROM events WHERE id = $1`, id,
	).Scan(&event.ID, &eventType, &checkoutID, &event.Processed, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event.Type = stripe.EventType(eventType)
	if checkoutID != nil {
		id := uint64(*checkoutID)
		event.CheckoutID = &id
	}
	return &event, nil
}

func (r *repository) MarkAsProcessed(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := driver.Use(r.conn, tx).Exec(ctx,
		`UPDATE events SET processed = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		r.logger.Error("Failed to mark event as processed", zap.String("event_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
