package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"

	"gofalre.io/storefront/models/enum"
)

// CheckoutRecord 代表一筆已提交的結帳紀錄
type CheckoutRecord struct {
	ID          uint64              `json:"id"`
	UserEmail   string              `json:"user_email"`
	Name        string              `json:"name"`
	PhoneNumber string              `json:"phone_number"`
	Address     string              `json:"address"`
	Items       []CheckoutItem      `json:"items"`
	TotalPrice  string              `json:"total_price"`
	Currency    stripe.Currency     `json:"currency"`
	Status      enum.CheckoutStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CheckoutItem 代表結帳紀錄中的單個商品項目
type CheckoutItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// MarshalJSON writes price as a JSON number.
func (i CheckoutItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
		Quantity int         `json:"quantity"`
	}{
		Name:     i.Name,
		Price:    json.Number(i.Price.String()),
		Quantity: i.Quantity,
	})
}

// CheckoutItemsFromLines copies cart lines into the record's item layout.
func CheckoutItemsFromLines(lines []CartLine) []CheckoutItem {
	items := make([]CheckoutItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, CheckoutItem{
			Name:     line.Title,
			Price:    line.UnitPrice,
			Quantity: line.Quantity,
		})
	}
	return items
}

func (c *CheckoutRecord) Validate() error {
	if c.UserEmail == "" {
		return errors.New("user email is required")
	}
	if len(c.Items) == 0 {
		return errors.New("checkout must contain at least one item")
	}
	for _, item := range c.Items {
		if item.Quantity < 1 {
			return errors.New("item quantity must be positive")
		}
	}
	if _, err := decimal.NewFromString(c.TotalPrice); err != nil {
		return errors.New("total price is not a decimal")
	}
	return nil
}

// AllowChangeStatus reports whether the record may move to newStatus.
func (c *CheckoutRecord) AllowChangeStatus(newStatus enum.CheckoutStatus) bool {
	switch c.Status {
	case enum.CheckoutStatusPending:
		return newStatus == enum.CheckoutStatusPaid ||
			newStatus == enum.CheckoutStatusFailed ||
			newStatus == enum.CheckoutStatusCancelled
	case enum.CheckoutStatusFailed:
		return newStatus == enum.CheckoutStatusPaid ||
			newStatus == enum.CheckoutStatusCancelled
	default:
		return false
	}
}

// CheckoutEvent is published after a checkout record is stored.
type CheckoutEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	CheckoutID uint64    `json:"checkout_id"`
	UserEmail  string    `json:"user_email"`
	TotalPrice string    `json:"total_price"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}
