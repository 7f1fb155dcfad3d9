package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// Event is a concert/show whose tickets are resold on the platform.
type Event struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;type:text;not null"`
	Venue     string         `gorm:"column:venue;type:text;not null"`
	Currency  enums.Currency `gorm:"column:currency;type:text;not null;default:'UYU'"`
	StartsAt  time.Time      `gorm:"column:starts_at;not null"`
	EndsAt    time.Time      `gorm:"column:ends_at;not null"`
	Waves     []TicketWave   `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
