package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/internal/orders"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

const defaultExpireBatchSize = 100

// OrderExpirationJobParams configure the reservation expiration sweeper.
type OrderExpirationJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Outbox    outboxEmitter
	BatchSize int
}

// NewOrderExpirationJob builds the job that expires pending orders whose
// reservation window has passed and puts their tickets back on the market.
func NewOrderExpirationJob(params OrderExpirationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultExpireBatchSize
	}
	return &orderExpirationJob{
		logg:      params.Logger,
		db:        params.DB,
		orders:    params.Orders,
		outbox:    params.Outbox,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type orderExpirationJob struct {
	logg      *logger.Logger
	db        txRunner
	orders    orders.Repository
	outbox    outboxEmitter
	batchSize int
	now       func() time.Time
}

func (j *orderExpirationJob) Name() string { return "order-expiration" }

// Run expires each overdue order in its own transaction. One stuck order
// must not stop the rest of the batch, so per-order failures are collected
// and logged instead of aborting the sweep.
func (j *orderExpirationJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	ids, err := j.orders.FindExpiredPendingIDs(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query expired pending orders: %w", err)
	}

	expired := 0
	var errs []error
	for _, id := range ids {
		if err := j.expireOrder(ctx, id); err != nil {
			j.logg.Error(j.logg.WithField(ctx, "order_id", id), "expire order failed", err)
			errs = append(errs, fmt.Errorf("expire order %s: %w", id, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(ids),
		"expired":    expired,
		"failed":     len(errs),
	})
	j.logg.Info(logCtx, "order expiration sweep complete")
	return multierr.Combine(errs...)
}

func (j *orderExpirationJob) expireOrder(ctx context.Context, orderID uuid.UUID) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.orders.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		won, err := repo.TransitionFromPending(ctx, orderID, enums.OrderStatusExpired)
		if err != nil {
			return err
		}
		if !won {
			// Reconciliation confirmed it or the buyer cancelled.
			return nil
		}

		now := j.now().UTC()
		released, err := repo.ReleaseTicketHolds(ctx, orderID, now)
		if err != nil {
			return err
		}

		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderExpired,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderExpiredEvent{
				OrderID:         orderID,
				BuyerUserID:     order.BuyerUserID,
				EventID:         order.EventID,
				ExpiredAt:       now,
				ReleasedTickets: int(released),
			},
		})
	})
}
