package router

import (
	"context"
	"fmt"

	"github.com/reventa-uy/reventa-backend/internal/analytics/types"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

type ticketSoldHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newTicketSoldHandler(writer Writer, logg *logger.Logger) Handler {
	return &ticketSoldHandler{writer: writer, logg: logg}
}

func (h *ticketSoldHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.TicketSoldEvent)
	if !ok {
		return fmt.Errorf("invalid payload for ticket_sold")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":        envelope.EventType,
		"listing_ticket_id": event.ListingTicketID,
		"order_id":          event.OrderID,
		"price_cents":       event.PriceCents,
	})

	row, err := buildBaseRow(envelope, envelope.OccurredAt, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build marketplace row", err)
		return err
	}
	row.OrderID = stringPtr(event.OrderID.String())
	row.SellerUserID = stringPtr(event.SellerUserID.String())
	row.ListingID = stringPtr(event.ListingID.String())
	row.ListingTicketID = stringPtr(event.ListingTicketID.String())
	row.PriceCents = int64Ptr(event.PriceCents)

	if err := h.writer.InsertMarketplace(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert marketplace row", err)
		return err
	}

	h.logg.Info(logCtx, "ticket_sold handler inserted marketplace row")
	return nil
}
