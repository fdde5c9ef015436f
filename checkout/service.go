// Package checkout turns the cart and the shopper's contact details into a
// submitted order.
package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/session"
)

// Cart is the part of *cart.Store checkout reads and clears.
type Cart interface {
	Initialize(ctx context.Context)
	Snapshot() ([]models.CartLine, decimal.Decimal)
	Clear(ctx context.Context) error
}

// Sink accepts submitted orders.
type Sink interface {
	SubmitOrder(ctx context.Context, record *models.CheckoutRecord) (*models.CheckoutRecord, error)
}

type Service struct {
	cart     Cart
	sessions session.Provider
	sink     Sink
	currency stripe.Currency
	logger   *zap.Logger
}

func NewService(cart Cart, sessions session.Provider, sink Sink, currency stripe.Currency, logger *zap.Logger) *Service {
	if currency == "" {
		currency = stripe.CurrencyUSD
	}
	return &Service{
		cart:     cart,
		sessions: sessions,
		sink:     sink,
		currency: currency,
		logger:   logger,
	}
}

// Ready reports the signed-in session before the form is shown.
func (s *Service) Ready(ctx context.Context) (*models.Session, error) {
	s.cart.Initialize(ctx)

	sess, err := s.sessions.CurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSignedIn, err)
	}
	return sess, nil
}

// Submit validates form, builds the checkout record from the cart and hands
// it to the sink. The cart is cleared only after the sink accepts the order.
func (s *Service) Submit(ctx context.Context, form Form) (*models.CheckoutRecord, error) {
	// 1. 驗證表單
	if err := form.Validate(); err != nil {
		return nil, err
	}
	form = form.Normalize()

	// 2. 檢查購物車
	s.cart.Initialize(ctx)
	lines, total := s.cart.Snapshot()
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	// 3. 檢查登入狀態
	sess, err := s.sessions.CurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionRequired, err)
	}
	if sess.Email == "" {
		return nil, ErrSessionRequired
	}

	// 4. 建立結帳紀錄
	record := &models.CheckoutRecord{
		UserEmail:   sess.Email,
		Name:        form.Name,
		PhoneNumber: form.PhoneNumber,
		Address:     form.Address,
		Items:       models.CheckoutItemsFromLines(lines),
		TotalPrice:  total.StringFixed(2),
		Currency:    s.currency,
	}

	// 5. 提交訂單
	submitted, err := s.sink.SubmitOrder(ctx, record)
	if err != nil {
		s.logger.Error("Checkout submission failed", zap.String("user_email", sess.Email), zap.Error(err))
		return nil, &SubmissionError{Err: err}
	}

	// 6. 清空購物車
	if err = s.cart.Clear(ctx); err != nil {
		s.logger.Warn("Failed to clear cart after checkout", zap.Uint64("checkout_id", submitted.ID), zap.Error(err))
	}

	return submitted, nil
}
