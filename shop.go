package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/event"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
	"gofalre.io/storefront/order"
)

const defaultListLimit = 20

// ErrInvalidTransition is returned when a checkout cannot move to the requested status.
var ErrInvalidTransition = errors.New("invalid status transition")

type Service interface {
	SubmitOrder(ctx context.Context, record *models.CheckoutRecord) (*models.CheckoutRecord, error)
	GetCheckout(ctx context.Context, checkoutID uint64) (*models.CheckoutRecord, error)
	ListCheckouts(ctx context.Context, userEmail string, limit, offset uint64) ([]*models.CheckoutRecord, error)
	UpdateCheckoutStatus(ctx context.Context, checkoutID uint64, status enum.CheckoutStatus) error

	ProcessEvent(ctx context.Context, evt *stripe.Event) error
	// Listen subscribes to payment events and hands them to a pool of workers until Close.
	Listen(ctx context.Context, workers int) error
	Close()
}

type service struct {
	order  order.Repository
	events event.Repository

	transactionManager *driver.TransactionManager
	eventManager       *EventManager

	mu         sync.Mutex
	workerPool *WorkerPool
	stop       func() error

	logger *zap.Logger
}

func NewService(order order.Repository, events event.Repository, tm *driver.TransactionManager, broker Broker, logger *zap.Logger) Service {
	s := &service{
		order:              order,
		events:             events,
		transactionManager: tm,
		logger:             logger,
	}
	s.eventManager = NewEventManager(broker, logger)
	s.registerEventHandlers()

	return s
}

// SubmitOrder stores the checkout record and announces it. The record is
// committed before the announcement, so a publish failure never fails the order.
func (s *service) SubmitOrder(ctx context.Context, record *models.CheckoutRecord) (*models.CheckoutRecord, error) {
	// 1. 驗證結帳資料
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checkout record: %w", err)
	}

	// 2. 建立結帳紀錄
	var created *models.CheckoutRecord
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = s.order.CreateCheckout(ctx, tx, record)
		if err != nil {
			return fmt.Errorf("failed to create checkout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3. 發布事件
	if err = s.eventManager.PublishCheckoutCreated(created); err != nil {
		s.logger.Warn("Failed to publish checkout event", zap.Uint64("checkout_id", created.ID), zap.Error(err))
	}

	s.logger.Info("Checkout submitted",
		zap.Uint64("checkout_id", created.ID),
		zap.String("user_email", created.UserEmail),
		zap.String("total_price", created.TotalPrice))

	return created, nil
}

func (s *service) GetCheckout(ctx context.Context, checkoutID uint64) (*models.CheckoutRecord, error) {
	record, err := s.order.GetCheckout(ctx, nil, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout: %w", err)
	}
	return record, nil
}

// ListCheckouts returns the user's checkouts, newest first.
func (s *service) ListCheckouts(ctx context.Context, userEmail string, limit, offset uint64) ([]*models.CheckoutRecord, error) {
	if limit == 0 {
		limit = defaultListLimit
	}
	records, err := s.order.ListCheckouts(ctx, nil, userEmail, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkouts: %w", err)
	}
	return records, nil
}

func (s *service) UpdateCheckoutStatus(ctx context.Context, checkoutID uint64, status enum.CheckoutStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.changeStatus(ctx, tx, checkoutID, status)
	})
	if err != nil {
		return err
	}

	// 提交後使快取失效
	s.order.InvalidateCheckout(ctx, checkoutID)
	return nil
}

func (s *service) changeStatus(ctx context.Context, tx pgx.Tx, checkoutID uint64, status enum.CheckoutStatus) error {
	// 1. 獲取結帳紀錄
	record, err := s.order.GetCheckout(ctx, tx, checkoutID)
	if err != nil {
		return fmt.Errorf("failed to get checkout: %w", err)
	}

	// 2. 檢查狀態轉換是否有效
	if !record.AllowChangeStatus(status) {
		return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, record.Status, status)
	}

	// 3. 更新狀態
	if err = s.order.UpdateCheckoutStatus(ctx, tx, checkoutID, status, time.Now()); err != nil {
		return fmt.Errorf("failed to update checkout status: %w", err)
	}

	return nil
}

func (s *service) Listen(ctx context.Context, workers int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workerPool != nil {
		return errors.New("already listening for events")
	}

	wp := NewWorkerPool(workers, s, s.logger)
	unsubscribe, err := s.eventManager.SubscribeToEvents(ctx, wp)
	if err != nil {
		wp.Shutdown()
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	s.workerPool = wp
	s.stop = unsubscribe
	return nil
}

// Close stops event intake and waits for in-flight events to finish.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		if err := s.stop(); err != nil {
			s.logger.Warn("Failed to unsubscribe from events", zap.Error(err))
		}
		s.stop = nil
	}
	if s.workerPool != nil {
		s.workerPool.Shutdown()
		s.workerPool = nil
	}
}
