package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// SellerEarnings is a seller's payable amount derived from one sold ticket.
// It stays pending until HoldUntil passes, then releases to available or is
// retained when a dispute exists against the underlying sale.
type SellerEarnings struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerUserID    uuid.UUID            `gorm:"column:seller_user_id;type:uuid;not null"`
	OrderID         uuid.UUID            `gorm:"column:order_id;type:uuid;not null"`
	ListingTicketID uuid.UUID            `gorm:"column:listing_ticket_id;type:uuid;not null;uniqueIndex"`
	AmountCents     int64                `gorm:"column:amount_cents;not null"`
	Currency        enums.Currency       `gorm:"column:currency;type:text;not null"`
	Status          enums.EarningsStatus `gorm:"column:status;type:earnings_status;not null;default:'pending'"`
	HoldUntil       time.Time            `gorm:"column:hold_until;not null"`
	ReleasedAt      *time.Time           `gorm:"column:released_at"`
	PayoutID        *uuid.UUID           `gorm:"column:payout_id;type:uuid"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
