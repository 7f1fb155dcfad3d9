package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// Repository persists payment attempts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	HasSucceeded(ctx context.Context, orderID uuid.UUID) (bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.PaymentStatus, to enums.PaymentStatus, failureReason *string) (bool, error)
	FindStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		First(&payment, "provider_payment_id = ?", providerPaymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) HasSucceeded(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentStatusSucceeded).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TransitionStatus flips the payment status with a compare-and-set on the
// current value. Concurrent webhook deliveries for the same payment settle
// on exactly one winner.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.PaymentStatus, to enums.PaymentStatus, failureReason *string) (bool, error) {
	updates := map[string]any{"status": to}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at <= ?",
			[]enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing}, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
