package router

import (
	"context"
	"fmt"

	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

type orderExpiredHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderExpiredHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderExpiredHandler{writer: writer, logg: logg}
}

func (h *orderExpiredHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderExpiredEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_expired")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"order_id":   event.OrderID,
		"expired_at": event.ExpiredAt,
	})

	row, err := buildBaseRow(envelope, event.ExpiredAt, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build marketplace row", err)
		return err
	}
	row.OrderID = stringPtr(event.OrderID.String())
	row.BuyerUserID = stringPtr(event.BuyerUserID.String())
	row.TicketEventID = stringPtr(event.EventID.String())
	row.ReleasedTickets = int64Ptr(int64(event.ReleasedTickets))

	if err := h.writer.InsertMarketplace(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert marketplace row", err)
		return err
	}

	h.logg.Info(logCtx, "order_expired handler inserted marketplace row")
	return nil
}
