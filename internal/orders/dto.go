package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// BuyerOrderFilters describe the inputs supported by the buyer orders list.
type BuyerOrderFilters struct {
	Status   *enums.OrderStatus
	EventID  *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderTicketSummary exposes one reserved or sold ticket inside an order.
type OrderTicketSummary struct {
	ListingTicketID uuid.UUID `json:"listing_ticket_id"`
	PriceCents      int64     `json:"price_cents"`
	Released        bool      `json:"released"`
}

// OrderSummary is the buyer-facing projection of an order.
type OrderSummary struct {
	ID              uuid.UUID            `json:"id"`
	EventID         uuid.UUID            `json:"event_id"`
	Status          enums.OrderStatus    `json:"status"`
	Currency        enums.Currency       `json:"currency"`
	SubtotalCents   int64                `json:"subtotal_cents"`
	CommissionCents int64                `json:"commission_cents"`
	VATCents        int64                `json:"vat_cents"`
	TotalCents      int64                `json:"total_cents"`
	TicketCount     int                  `json:"ticket_count"`
	ReservedUntil   time.Time            `json:"reserved_until"`
	CreatedAt       time.Time            `json:"created_at"`
	Tickets         []OrderTicketSummary `json:"tickets,omitempty"`
}

// BuyerOrderList wraps the paginated orders plus the next page cursor.
type BuyerOrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// SoldTicketRef joins an order's held ticket back to its listing and seller.
// The confirmation flow uses it to emit per-ticket sale events and to fan
// out seller earnings.
type SoldTicketRef struct {
	ListingTicketID uuid.UUID
	ListingID       uuid.UUID
	SellerUserID    uuid.UUID
	PriceCents      int64
}

// Summarize projects an order row into its buyer-facing summary.
func Summarize(order *models.Order) OrderSummary {
	summary := OrderSummary{
		ID:              order.ID,
		EventID:         order.EventID,
		Status:          order.Status,
		Currency:        order.Currency,
		SubtotalCents:   order.SubtotalCents,
		CommissionCents: order.CommissionCents,
		VATCents:        order.VATCents,
		TotalCents:      order.TotalCents,
		ReservedUntil:   order.ReservedUntil,
		CreatedAt:       order.CreatedAt,
	}
	for _, ticket := range order.Tickets {
		summary.Tickets = append(summary.Tickets, OrderTicketSummary{
			ListingTicketID: ticket.ListingTicketID,
			PriceCents:      ticket.PriceCents,
			Released:        ticket.DeletedAt != nil,
		})
		if ticket.DeletedAt == nil {
			summary.TicketCount++
		}
	}
	// Confirmed orders release their holds; the buyer still owns every ticket.
	if order.Status == enums.OrderStatusConfirmed {
		summary.TicketCount = len(order.Tickets)
	}
	return summary
}
