package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// DisputeChecker reports whether an order has an open dispute. Earnings
// whose order is disputed are retained instead of released.
type DisputeChecker interface {
	HasOpenDispute(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// NoDisputes is the default checker until a dispute source exists.
type NoDisputes struct{}

func (NoDisputes) HasOpenDispute(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}

// HoldSweepResult counts the earnings settled by one sweep.
type HoldSweepResult struct {
	Released int
	Retained int
}

// Service manages seller earnings from sale through payout.
type Service interface {
	CheckHoldPeriods(ctx context.Context, batchSize int) (HoldSweepResult, error)
	ListForSeller(ctx context.Context, sellerUserID uuid.UUID) ([]models.SellerEarnings, error)
	RequestPayout(ctx context.Context, input RequestPayoutInput) (*models.Payout, error)
	SettlePayout(ctx context.Context, input SettlePayoutInput) error
}

// RequestPayoutInput groups a seller's available earnings into one payout.
type RequestPayoutInput struct {
	SellerUserID   uuid.UUID
	PayoutMethodID uuid.UUID
}

// SettlePayoutInput records the terminal outcome of a payout transfer.
type SettlePayoutInput struct {
	PayoutID      uuid.UUID
	Succeeded     bool
	FailureReason *string
}

type service struct {
	logg     *logger.Logger
	tx       txRunner
	repo     Repository
	outbox   outboxPublisher
	disputes DisputeChecker
	now      func() time.Time
}

// NewService builds the earnings service.
func NewService(logg *logger.Logger, tx txRunner, repo Repository, publisher outboxPublisher, disputes DisputeChecker) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if disputes == nil {
		disputes = NoDisputes{}
	}
	return &service{
		logg:     logg,
		tx:       tx,
		repo:     repo,
		outbox:   publisher,
		disputes: disputes,
		now:      time.Now,
	}, nil
}

// CheckHoldPeriods settles pending earnings whose hold period has passed.
// Each row gets its own transaction so one bad row cannot poison the batch.
func (s *service) CheckHoldPeriods(ctx context.Context, batchSize int) (HoldSweepResult, error) {
	if batchSize <= 0 {
		return HoldSweepResult{}, pkgerrors.New(pkgerrors.CodeValidation, "batch size must be positive")
	}

	now := s.now().UTC()
	due, err := s.repo.FindDuePending(ctx, now, batchSize)
	if err != nil {
		return HoldSweepResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query due earnings")
	}

	var result HoldSweepResult
	var errs []error
	for _, row := range due {
		disputed, err := s.disputes.HasOpenDispute(ctx, row.OrderID)
		if err != nil {
			errs = append(errs, fmt.Errorf("dispute check for earnings %s: %w", row.ID, err))
			continue
		}
		if err := s.settleHold(ctx, row, disputed, now); err != nil {
			errs = append(errs, fmt.Errorf("settle earnings %s: %w", row.ID, err))
			continue
		}
		if disputed {
			result.Retained++
		} else {
			result.Released++
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"due":      len(due),
		"released": result.Released,
		"retained": result.Retained,
		"failed":   len(errs),
	})
	s.logg.Info(logCtx, "earnings hold sweep finished")

	return result, multierr.Combine(errs...)
}

func (s *service) settleHold(ctx context.Context, row models.SellerEarnings, disputed bool, now time.Time) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		to := enums.EarningsStatusAvailable
		var releasedAt *time.Time
		if disputed {
			to = enums.EarningsStatusRetained
		} else {
			releasedAt = &now
		}

		won, err := repo.TransitionFromPending(ctx, row.ID, to, releasedAt)
		if err != nil {
			return err
		}
		if !won {
			// Another sweep already settled this row.
			return nil
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventEarningsReleased,
			AggregateType: enums.AggregateSellerEarnings,
			AggregateID:   row.ID,
			Version:       1,
			OccurredAt:    now,
		}
		if disputed {
			event.EventType = enums.EventEarningsRetained
			event.Data = payloads.EarningsRetainedEvent{
				EarningsID:   row.ID,
				SellerUserID: row.SellerUserID,
				OrderID:      row.OrderID,
				AmountCents:  row.AmountCents,
			}
		} else {
			event.Data = payloads.EarningsReleasedEvent{
				EarningsID:   row.ID,
				SellerUserID: row.SellerUserID,
				OrderID:      row.OrderID,
				AmountCents:  row.AmountCents,
				ReleasedAt:   now,
			}
		}
		return s.outbox.EmitIfNotExists(ctx, tx, event)
	})
}

func (s *service) ListForSeller(ctx context.Context, sellerUserID uuid.UUID) ([]models.SellerEarnings, error) {
	if sellerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListSellerEarnings(ctx, sellerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller earnings")
	}
	return rows, nil
}

func (s *service) RequestPayout(ctx context.Context, input RequestPayoutInput) (*models.Payout, error) {
	if input.SellerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PayoutMethodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout method is required")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		method, err := repo.FindPayoutMethod(ctx, input.PayoutMethodID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout method")
		}
		if method == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payout method not found")
		}
		if method.SellerUserID != input.SellerUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payout method belongs to another seller")
		}

		candidate := &models.Payout{
			ID:             uuid.New(),
			SellerUserID:   input.SellerUserID,
			PayoutMethodID: method.ID,
			Currency:       enums.CurrencyUYU,
			Status:         enums.PayoutStatusPending,
		}
		if err := repo.CreatePayout(ctx, candidate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}

		claimed, total, err := repo.AttachAvailableToPayout(ctx, input.SellerUserID, candidate.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim available earnings")
		}
		if claimed == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no available earnings to pay out")
		}

		candidate.AmountCents = total
		err = tx.WithContext(ctx).
			Model(&models.Payout{}).
			Where("id = ?", candidate.ID).
			Update("amount_cents", total).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set payout amount")
		}

		payout = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) SettlePayout(ctx context.Context, input SettlePayoutInput) error {
	if input.PayoutID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout id is required")
	}
	if !input.Succeeded && input.FailureReason == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "failure reason is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindPayoutByID(ctx, input.PayoutID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if payout == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}

		to := enums.PayoutStatusPaid
		earningsStatus := enums.EarningsStatusPaidOut
		if !input.Succeeded {
			to = enums.PayoutStatusFailed
			earningsStatus = enums.EarningsStatusFailedPayout
		}

		won, err := repo.SettlePayout(ctx, input.PayoutID, to, input.FailureReason)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payout")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already settled").
				WithDetails(map[string]any{"status": payout.Status})
		}

		if err := repo.SetEarningsStatusByPayout(ctx, input.PayoutID, earningsStatus); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout earnings")
		}
		return nil
	})
}
