package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

const (
	defaultPaymentSyncStaleAge  = 5 * time.Minute
	defaultPaymentSyncBatchSize = 100
)

type stalePaymentReader interface {
	FindStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
}

type providerEventProcessor interface {
	ProcessProviderEvent(ctx context.Context, providerPaymentID string) error
}

// PaymentSyncJobParams configure the payment poll-sync job.
type PaymentSyncJobParams struct {
	Logger     *logger.Logger
	Payments   stalePaymentReader
	Reconciler providerEventProcessor
	StaleAge   time.Duration
	BatchSize  int
}

// NewPaymentSyncJob builds the job that re-drives reconciliation for
// payments stuck in pending or processing. Webhooks can be lost; polling
// the provider through the same path closes that gap.
func NewPaymentSyncJob(params PaymentSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments reader required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciliation engine required")
	}
	staleAge := params.StaleAge
	if staleAge <= 0 {
		staleAge = defaultPaymentSyncStaleAge
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultPaymentSyncBatchSize
	}
	return &paymentSyncJob{
		logg:       params.Logger,
		payments:   params.Payments,
		reconciler: params.Reconciler,
		staleAge:   staleAge,
		batchSize:  batchSize,
		now:        time.Now,
	}, nil
}

type paymentSyncJob struct {
	logg       *logger.Logger
	payments   stalePaymentReader
	reconciler providerEventProcessor
	staleAge   time.Duration
	batchSize  int
	now        func() time.Time
}

func (j *paymentSyncJob) Name() string { return "payment-sync" }

func (j *paymentSyncJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAge)
	stale, err := j.payments.FindStale(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query stale payments: %w", err)
	}

	synced := 0
	var errs []error
	for _, payment := range stale {
		if err := j.reconciler.ProcessProviderEvent(ctx, payment.ProviderPaymentID); err != nil {
			j.logg.Error(j.logg.WithField(ctx, "payment_id", payment.ID), "payment sync failed", err)
			errs = append(errs, fmt.Errorf("sync payment %s: %w", payment.ID, err))
			continue
		}
		synced++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stale":  len(stale),
		"synced": synced,
		"failed": len(errs),
	})
	j.logg.Info(logCtx, "payment sync sweep complete")
	return multierr.Combine(errs...)
}
