package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

const defaultDispatchBatchSize = 100

type notificationDispatchRepo interface {
	FindUndispatched(ctx context.Context, limit int) ([]models.Notification, error)
	MarkDispatched(ctx context.Context, tx *gorm.DB, notificationID uuid.UUID, now time.Time) (bool, error)
}

// NotificationSender pushes a notification to an external channel.
type NotificationSender interface {
	Send(ctx context.Context, notification models.Notification) error
}

type NotificationDispatchJobParams struct {
	Logger     *logger.Logger
	Repository notificationDispatchRepo
	Sender     NotificationSender
	BatchSize  int
}

func NewNotificationDispatchJob(params NotificationDispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("notification sender required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultDispatchBatchSize
	}
	return &notificationDispatchJob{
		logg:      params.Logger,
		repo:      params.Repository,
		sender:    params.Sender,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type notificationDispatchJob struct {
	logg      *logger.Logger
	repo      notificationDispatchRepo
	sender    NotificationSender
	batchSize int
	now       func() time.Time
}

func (j *notificationDispatchJob) Name() string { return "notification-dispatch" }

// Run delivers pending notifications. A failed send leaves the row
// undispatched so the next sweep retries it.
func (j *notificationDispatchJob) Run(ctx context.Context) error {
	pending, err := j.repo.FindUndispatched(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("find undispatched notifications: %w", err)
	}

	var errs []error
	dispatched := 0
	for _, notification := range pending {
		if err := j.dispatch(ctx, notification); err != nil {
			j.logg.Error(j.logg.WithField(ctx, "notification_id", notification.ID.String()), "notification dispatch failed", err)
			errs = append(errs, fmt.Errorf("notification %s: %w", notification.ID, err))
			continue
		}
		dispatched++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pending":    len(pending),
		"dispatched": dispatched,
		"failed":     len(errs),
	})
	j.logg.Info(logCtx, "notification dispatch sweep complete")
	return multierr.Combine(errs...)
}

func (j *notificationDispatchJob) dispatch(ctx context.Context, notification models.Notification) error {
	if err := j.sender.Send(ctx, notification); err != nil {
		return err
	}
	// A lost mark means another worker delivered it between the read and
	// the update, which is fine.
	_, err := j.repo.MarkDispatched(ctx, nil, notification.ID, j.now().UTC())
	return err
}
