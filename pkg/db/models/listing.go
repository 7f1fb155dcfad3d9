package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing is a seller's batch of tickets for one ticket wave. SoldAt is set
// only once every constituent ticket has sold; DeletedAt marks cancellation.
type Listing struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerUserID uuid.UUID       `gorm:"column:seller_user_id;type:uuid;not null"`
	TicketWaveID uuid.UUID       `gorm:"column:ticket_wave_id;type:uuid;not null"`
	SoldAt       *time.Time      `gorm:"column:sold_at"`
	DeletedAt    *time.Time      `gorm:"column:deleted_at"`
	Tickets      []ListingTicket `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
