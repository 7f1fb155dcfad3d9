package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketWave is a price tier/batch of tickets for an event, set by the
// event source. Listings always hang off one wave.
type TicketWave struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID        uuid.UUID `gorm:"column:event_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;type:text;not null"`
	FaceValueCents int64     `gorm:"column:face_value_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
