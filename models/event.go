package models

import (
	"time"

	"github.com/stripe/stripe-go/v79"
)

// Event 代表一個已接收的支付事件，用於冪等處理
type Event struct {
	ID         string           `json:"id"`
	Type       stripe.EventType `json:"type"`
	CheckoutID *uint64          `json:"checkout_id,omitempty"`
	Processed  bool             `json:"processed"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
