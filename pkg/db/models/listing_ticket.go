package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingTicket is one sellable unit inside a listing. A ticket with
// non-null SoldAt, CancelledAt or DeletedAt is never eligible for
// reservation or further sale.
type ListingTicket struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID    uuid.UUID  `gorm:"column:listing_id;type:uuid;not null"`
	TicketNumber int        `gorm:"column:ticket_number;not null"`
	PriceCents   int64      `gorm:"column:price_cents;not null"`
	SoldAt       *time.Time `gorm:"column:sold_at"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
