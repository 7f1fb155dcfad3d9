package router

import (
	"context"
	"fmt"

	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

type orderConfirmedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderConfirmedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderConfirmedHandler{writer: writer, logg: logg}
}

func (h *orderConfirmedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderConfirmedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_confirmed")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":   envelope.EventType,
		"order_id":     event.OrderID,
		"confirmed_at": event.ConfirmedAt,
	})

	row, err := buildBaseRow(envelope, event.ConfirmedAt, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build marketplace row", err)
		return err
	}
	row.OrderID = stringPtr(event.OrderID.String())
	row.BuyerUserID = stringPtr(event.BuyerUserID.String())
	row.TicketEventID = stringPtr(event.EventID.String())
	row.PaymentID = stringPtr(event.PaymentID.String())

	if err := h.writer.InsertMarketplace(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert marketplace row", err)
		return err
	}

	h.logg.Info(logCtx, "order_confirmed handler inserted marketplace row")
	return nil
}
