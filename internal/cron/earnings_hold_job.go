package cron

import (
	"context"
	"fmt"

	"github.com/reventa-uy/reventa-backend/internal/earnings"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

const defaultEarningsBatchSize = 100

type holdPeriodChecker interface {
	CheckHoldPeriods(ctx context.Context, batchSize int) (earnings.HoldSweepResult, error)
}

// EarningsHoldJobParams configure the earnings hold sweeper.
type EarningsHoldJobParams struct {
	Logger    *logger.Logger
	Earnings  holdPeriodChecker
	BatchSize int
}

// NewEarningsHoldJob builds the job that releases seller earnings whose
// hold period has elapsed.
func NewEarningsHoldJob(params EarningsHoldJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultEarningsBatchSize
	}
	return &earningsHoldJob{
		logg:      params.Logger,
		earnings:  params.Earnings,
		batchSize: batchSize,
	}, nil
}

type earningsHoldJob struct {
	logg      *logger.Logger
	earnings  holdPeriodChecker
	batchSize int
}

func (j *earningsHoldJob) Name() string { return "earnings-hold" }

func (j *earningsHoldJob) Run(ctx context.Context) error {
	result, err := j.earnings.CheckHoldPeriods(ctx, j.batchSize)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"released": result.Released,
		"retained": result.Retained,
	})
	j.logg.Info(logCtx, "earnings hold sweep complete")
	return err
}
