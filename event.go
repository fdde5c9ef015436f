package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nats-io/nats.go"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"gofalre.io/storefront/event"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
	"gofalre.io/storefront/order"
)

const (
	// CheckoutCreatedSubject carries a models.CheckoutEvent for every stored checkout.
	CheckoutCreatedSubject = "storefront.checkout.created"
	// PaymentEventSubject is where the payment service relays stripe events.
	PaymentEventSubject = "payment.service.event.>"

	checkoutCreatedType = "checkout.created"
	checkoutIDMetadata  = "checkout_id"
)

// Broker is the part of *nats.Conn the event manager needs.
type Broker interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var _ Broker = (*nats.Conn)(nil)

type EventHandler func(ctx context.Context, tx pgx.Tx, evt *stripe.Event) error

type EventManager struct {
	broker   Broker
	handlers map[stripe.EventType]EventHandler
	logger   *zap.Logger
}

func NewEventManager(broker Broker, logger *zap.Logger) *EventManager {
	return &EventManager{
		broker:   broker,
		handlers: make(map[stripe.EventType]EventHandler),
		logger:   logger,
	}
}

func (em *EventManager) RegisterHandler(eventType stripe.EventType, handler EventHandler) {
	em.handlers[eventType] = handler
}

func (em *EventManager) GetHandler(eventType stripe.EventType) (EventHandler, bool) {
	handler, exists := em.handlers[eventType]
	return handler, exists
}

// PublishCheckoutCreated announces a stored checkout. A nil broker publishes nothing.
func (em *EventManager) PublishCheckoutCreated(record *models.CheckoutRecord) error {
	if em.broker == nil {
		return nil
	}

	data, err := json.Marshal(models.CheckoutEvent{
		ID:         uuid.NewString(),
		Type:       checkoutCreatedType,
		CheckoutID: record.ID,
		UserEmail:  record.UserEmail,
		TotalPrice: record.TotalPrice,
		Currency:   string(record.Currency),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode checkout event: %w", err)
	}

	if err = em.broker.Publish(CheckoutCreatedSubject, data); err != nil {
		return fmt.Errorf("failed to publish checkout event: %w", err)
	}
	return nil
}

// SubscribeToEvents decodes payment events and submits them to wp. The
// returned func unsubscribes.
func (em *EventManager) SubscribeToEvents(ctx context.Context, wp *WorkerPool) (func() error, error) {
	if em.broker == nil {
		return nil, errors.New("no message broker configured")
	}

	sub, err := em.broker.Subscribe(PaymentEventSubject, func(msg *nats.Msg) {
		var evt stripe.Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			em.logger.Error("Failed to unmarshal event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}

		wp.Submit(ctx, &evt)
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		if sub == nil {
			return nil
		}
		return sub.Unsubscribe()
	}, nil
}

func (s *service) registerEventHandlers() {
	eventHandlers := map[stripe.EventType]EventHandler{
		stripe.EventTypePaymentIntentSucceeded:     s.handlePaymentIntent(enum.CheckoutStatusPaid),
		stripe.EventTypePaymentIntentPaymentFailed: s.handlePaymentIntent(enum.CheckoutStatusFailed),
		stripe.EventTypePaymentIntentCanceled:      s.handlePaymentIntent(enum.CheckoutStatusCancelled),
	}

	for eventType, handler := range eventHandlers {
		s.eventManager.RegisterHandler(eventType, handler)
	}
}

// handlePaymentIntent moves the checkout named in the intent's metadata to
// status. Transitions the checkout no longer allows are logged and dropped.
func (s *service) handlePaymentIntent(status enum.CheckoutStatus) EventHandler {
	return func(ctx context.Context, tx pgx.Tx, evt *stripe.Event) error {
		s.logger.Info("Handling PaymentIntent event",
			zap.String("event_id", evt.ID),
			zap.String("event_type", string(evt.Type)))

		checkoutID, err := checkoutIDFromEvent(evt)
		if err != nil {
			return err
		}

		// 根據 checkout ID 獲取結帳紀錄
		record, err := s.order.GetCheckout(ctx, tx, checkoutID)
		if err != nil {
			s.logger.Error("Checkout not found for PaymentIntent", zap.Uint64("checkout_id", checkoutID), zap.Error(err))
			return err
		}

		if record.Status == status {
			return nil
		}
		if !record.AllowChangeStatus(status) {
			s.logger.Warn("Ignoring payment event for checkout",
				zap.Uint64("checkout_id", checkoutID),
				zap.String("from", string(record.Status)),
				zap.String("to", string(status)))
			return nil
		}

		if err = s.order.UpdateCheckoutStatus(ctx, tx, checkoutID, status, time.Now()); err != nil {
			s.logger.Error("Failed to update checkout status", zap.Error(err))
			return err
		}

		s.logger.Info("Checkout status updated", zap.Uint64("checkout_id", checkoutID), zap.String("status", string(status)))
		return nil
	}
}

// ProcessEvent runs the registered handler for evt once. The event row, the
// handler's writes and the processed mark share one transaction, so a failed
// handler leaves the event free to be redelivered.
func (s *service) ProcessEvent(ctx context.Context, evt *stripe.Event) error {
	handler, exists := s.eventManager.GetHandler(evt.Type)
	if !exists {
		return fmt.Errorf("no handler registered for event type: %s", evt.Type)
	}

	skipped := false
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		_, err := s.events.GetByID(ctx, tx, evt.ID)
		if err == nil {
			skipped = true
			return nil
		}
		if !errors.Is(err, event.ErrNotFound) {
			return err
		}

		now := time.Now()
		record := &models.Event{
			ID:        evt.ID,
			Type:      evt.Type,
			Processed: false,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if checkoutID, err := checkoutIDFromEvent(evt); err == nil {
			record.CheckoutID = &checkoutID
		}
		if err = s.events.Create(ctx, tx, record); err != nil {
			return err
		}

		if err = handler(ctx, tx, evt); err != nil {
			return err
		}

		return s.events.MarkAsProcessed(ctx, tx, evt.ID)
	})
	if err != nil {
		s.logger.Error("Failed to process event",
			zap.String("event_id", evt.ID),
			zap.String("event_type", string(evt.Type)),
			zap.Error(err),
		)
		return err
	}

	if skipped {
		s.logger.Info("Event already processed", zap.String("event_id", evt.ID))
		return nil
	}

	if checkoutID, err := checkoutIDFromEvent(evt); err == nil {
		s.order.InvalidateCheckout(ctx, checkoutID)
	}

	s.logger.Info("Stripe event processed", zap.String("event_id", evt.ID))
	return nil
}

func checkoutIDFromEvent(evt *stripe.Event) (uint64, error) {
	if evt.Data == nil {
		return 0, fmt.Errorf("event %s has no data", evt.ID)
	}

	var paymentIntent stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &paymentIntent); err != nil {
		return 0, fmt.Errorf("failed to unmarshal PaymentIntent: %w", err)
	}

	raw, ok := paymentIntent.Metadata[checkoutIDMetadata]
	if !ok {
		return 0, fmt.Errorf("payment intent %s has no %s metadata: %w", paymentIntent.ID, checkoutIDMetadata, order.ErrNotFound)
	}

	checkoutID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s metadata %q: %w", checkoutIDMetadata, raw, err)
	}
	return checkoutID, nil
}
