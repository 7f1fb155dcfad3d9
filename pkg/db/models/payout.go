package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// PayoutMethod is a seller-supplied destination for payouts.
type PayoutMethod struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerUserID  uuid.UUID `gorm:"column:seller_user_id;type:uuid;not null"`
	BankName      string    `gorm:"column:bank_name;type:text;not null"`
	AccountNumber string    `gorm:"column:account_number;type:text;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Payout groups available earnings into one transfer request.
type Payout struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerUserID   uuid.UUID          `gorm:"column:seller_user_id;type:uuid;not null"`
	PayoutMethodID uuid.UUID          `gorm:"column:payout_method_id;type:uuid;not null"`
	AmountCents    int64              `gorm:"column:amount_cents;not null"`
	Currency       enums.Currency     `gorm:"column:currency;type:text;not null"`
	Status         enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'pending'"`
	FailureReason  *string            `gorm:"column:failure_reason"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
