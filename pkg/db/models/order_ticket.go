package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderTicket is a time-boxed hold on one listing ticket for one order.
// DeletedAt is the release marker: while it is null and ReservedUntil is in
// the future, the referenced ticket is unavailable to any other order. A
// partial unique index on (listing_ticket_id) WHERE deleted_at IS NULL
// makes a double reservation an insert failure rather than a read race.
type OrderTicket struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ListingTicketID uuid.UUID  `gorm:"column:listing_ticket_id;type:uuid;not null"`
	PriceCents      int64      `gorm:"column:price_cents;not null"`
	ReservedUntil   time.Time  `gorm:"column:reserved_until;not null"`
	DeletedAt       *time.Time `gorm:"column:deleted_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the historical table name.
func (OrderTicket) TableName() string { return "order_tickets" }

// Active reports whether the reservation still blocks the ticket at now.
func (t OrderTicket) Active(now time.Time) bool {
	return t.DeletedAt == nil && t.ReservedUntil.After(now)
}
