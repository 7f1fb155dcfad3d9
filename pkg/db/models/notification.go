package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users. The
// metadata column carries the typed payload keyed by Type.
type Notification struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	Type         enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title        string                 `gorm:"column:title;type:text;not null"`
	Message      string                 `gorm:"column:message;type:text;not null"`
	Metadata     json.RawMessage        `gorm:"column:metadata;type:jsonb"`
	ReadAt       *time.Time             `gorm:"column:read_at"`
	DispatchedAt *time.Time             `gorm:"column:dispatched_at"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
}
