package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// MarketplaceEventRow mirrors the marketplace_events BigQuery schema. One row
// is appended per consumed domain event; columns that a given event type does
// not carry stay NULL. ticket_event_id refers to the show the tickets belong
// to, event_id to the analytics event itself.
type MarketplaceEventRow struct {
	EventID         string             `bigquery:"event_id"`
	EventType       string             `bigquery:"event_type"`
	OccurredAt      time.Time          `bigquery:"occurred_at"`
	OrderID         *string            `bigquery:"order_id"`
	BuyerUserID     *string            `bigquery:"buyer_user_id"`
	SellerUserID    *string            `bigquery:"seller_user_id"`
	TicketEventID   *string            `bigquery:"ticket_event_id"`
	ListingID       *string            `bigquery:"listing_id"`
	ListingTicketID *string            `bigquery:"listing_ticket_id"`
	PaymentID       *string            `bigquery:"payment_id"`
	PriceCents      *int64             `bigquery:"price_cents"`
	ReleasedTickets *int64             `bigquery:"released_tickets"`
	FailureReason   *string            `bigquery:"failure_reason"`
	Payload         cbigquery.NullJSON `bigquery:"payload"`
}
