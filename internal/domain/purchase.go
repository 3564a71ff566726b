package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRecord is immutable once written.
type PurchaseRecord struct {
	ID           int64           `json:"id"`
	CheckoutID   uuid.UUID       `json:"checkout_id"`
	UserID       int64           `json:"user_id"`
	ProductID    int64           `json:"product_id"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	PurchasedAt  time.Time       `json:"purchased_at"`
}

type CheckoutResult struct {
	CheckoutID uuid.UUID         `json:"checkout_id"`
	State      CheckoutState     `json:"state"`
	Records    []*PurchaseRecord `json:"records"`
	Total      decimal.Decimal   `json:"total"`
}

// PurchaseCompletedEvent is the outbox payload written with every committed checkout.
type PurchaseCompletedEvent struct {
	CheckoutID  uuid.UUID         `json:"checkout_id"`
	UserID      int64             `json:"user_id"`
	Records     []*PurchaseRecord `json:"records"`
	Total       decimal.Decimal   `json:"total"`
	CompletedAt time.Time         `json:"completed_at"`
}

const EventTypePurchaseCompleted = "purchase.completed"
