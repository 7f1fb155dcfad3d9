package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// Order is a buyer's purchase intent over a fixed set of reserved tickets.
// Status only moves pending -> confirmed|cancelled|expired.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerUserID     uuid.UUID         `gorm:"column:buyer_user_id;type:uuid;not null"`
	EventID         uuid.UUID         `gorm:"column:event_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Currency        enums.Currency    `gorm:"column:currency;type:text;not null;default:'UYU'"`
	SubtotalCents   int64             `gorm:"column:subtotal_cents;not null"`
	CommissionCents int64             `gorm:"column:commission_cents;not null;default:0"`
	VATCents        int64             `gorm:"column:vat_cents;not null;default:0"`
	TotalCents      int64             `gorm:"column:total_cents;not null"`
	ReservedUntil   time.Time         `gorm:"column:reserved_until;not null"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at"`
	Tickets         []OrderTicket     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments        []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
