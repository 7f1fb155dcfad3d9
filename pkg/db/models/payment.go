package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// Payment is one payment attempt against a provider for an order. An order
// may accumulate several (retries); at most one ends succeeded.
type Payment struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	Provider          enums.PaymentProvider `gorm:"column:provider;type:text;not null"`
	ProviderPaymentID string                `gorm:"column:provider_payment_id;type:text;not null;uniqueIndex"`
	Status            enums.PaymentStatus   `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	AmountCents       int64                 `gorm:"column:amount_cents;not null"`
	Currency          enums.Currency        `gorm:"column:currency;type:text;not null"`
	CheckoutURL       *string               `gorm:"column:checkout_url"`
	FailureReason     *string               `gorm:"column:failure_reason"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
