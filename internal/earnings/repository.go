package earnings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// Repository persists seller earnings and their payout groupings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateBatch(ctx context.Context, rows []models.SellerEarnings) error
	FindEventEndsAt(ctx context.Context, eventID uuid.UUID) (time.Time, error)
	FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.SellerEarnings, error)
	TransitionFromPending(ctx context.Context, id uuid.UUID, to enums.EarningsStatus, releasedAt *time.Time) (bool, error)
	ListSellerEarnings(ctx context.Context, sellerUserID uuid.UUID) ([]models.SellerEarnings, error)

	FindPayoutMethod(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error)
	CreatePayout(ctx context.Context, payout *models.Payout) error
	AttachAvailableToPayout(ctx context.Context, sellerUserID, payoutID uuid.UUID) (int64, int64, error)
	FindPayoutByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	SettlePayout(ctx context.Context, payoutID uuid.UUID, to enums.PayoutStatus, reason *string) (bool, error)
	SetEarningsStatusByPayout(ctx context.Context, payoutID uuid.UUID, to enums.EarningsStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an earnings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, rows []models.SellerEarnings) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) FindEventEndsAt(ctx context.Context, eventID uuid.UUID) (time.Time, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Select("id", "ends_at").
		First(&event, "id = ?", eventID).Error
	if err != nil {
		return time.Time{}, err
	}
	return event.EndsAt, nil
}

func (r *repository) FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.SellerEarnings, error) {
	var rows []models.SellerEarnings
	err := r.db.WithContext(ctx).
		Where("status = ? AND hold_until <= ?", enums.EarningsStatusPending, now).
		Order("hold_until ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TransitionFromPending flips one earnings row out of pending. The status
// guard in the WHERE clause makes concurrent sweeps settle on one winner.
func (r *repository) TransitionFromPending(ctx context.Context, id uuid.UUID, to enums.EarningsStatus, releasedAt *time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if releasedAt != nil {
		updates["released_at"] = *releasedAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.SellerEarnings{}).
		Where("id = ? AND status = ?", id, enums.EarningsStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListSellerEarnings(ctx context.Context, sellerUserID uuid.UUID) ([]models.SellerEarnings, error) {
	var rows []models.SellerEarnings
	err := r.db.WithContext(ctx).
		Where("seller_user_id = ?", sellerUserID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindPayoutMethod(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error) {
	var method models.PayoutMethod
	err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

// AttachAvailableToPayout claims every unclaimed available earnings row for
// the seller and returns the claimed count and summed amount.
func (r *repository) AttachAvailableToPayout(ctx context.Context, sellerUserID, payoutID uuid.UUID) (int64, int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SellerEarnings{}).
		Where("seller_user_id = ? AND status = ? AND payout_id IS NULL", sellerUserID, enums.EarningsStatusAvailable).
		Update("payout_id", payoutID)
	if result.Error != nil {
		return 0, 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, 0, nil
	}

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.SellerEarnings{}).
		Where("payout_id = ?", payoutID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, 0, err
	}
	return result.RowsAffected, total, nil
}

func (r *repository) FindPayoutByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) SettlePayout(ctx context.Context, payoutID uuid.UUID, to enums.PayoutStatus, reason *string) (bool, error) {
	updates := map[string]any{"status": to}
	if reason != nil {
		updates["failure_reason"] = *reason
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutID, enums.PayoutStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetEarningsStatusByPayout(ctx context.Context, payoutID uuid.UUID, to enums.EarningsStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerEarnings{}).
		Where("payout_id = ?", payoutID).
		Update("status", to).Error
}
