package router

import (
	"context"
	"fmt"

	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

type paymentFailedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newPaymentFailedHandler(writer Writer, logg *logger.Logger) Handler {
	return &paymentFailedHandler{writer: writer, logg: logg}
}

func (h *paymentFailedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for payment_failed")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"payment_id": event.PaymentID,
		"order_id":   event.OrderID,
	})

	row, err := buildBaseRow(envelope, envelope.OccurredAt, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build marketplace row", err)
		return err
	}
	row.OrderID = stringPtr(event.OrderID.String())
	row.PaymentID = stringPtr(event.PaymentID.String())
	row.FailureReason = stringPtr(event.Reason)

	if err := h.writer.InsertMarketplace(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert marketplace row", err)
		return err
	}

	h.logg.Info(logCtx, "payment_failed handler inserted marketplace row")
	return nil
}
