package notifications

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// Metadata payloads form a tagged union keyed by the notification type.
// Every type listed in enums.NotificationType has exactly one shape here,
// and Render switches over all of them.

type OrderConfirmedMetadata struct {
	OrderID   uuid.UUID `json:"orderId"`
	EventID   uuid.UUID `json:"eventId"`
	PaymentID uuid.UUID `json:"paymentId"`
}

type OrderExpiredMetadata struct {
	OrderID         uuid.UUID `json:"orderId"`
	EventID         uuid.UUID `json:"eventId"`
	ReleasedTickets int       `json:"releasedTickets"`
}

type PaymentSucceededMetadata struct {
	PaymentID   uuid.UUID `json:"paymentId"`
	OrderID     uuid.UUID `json:"orderId"`
	AmountCents int64     `json:"amountCents"`
}

type PaymentFailedMetadata struct {
	PaymentID uuid.UUID `json:"paymentId"`
	OrderID   uuid.UUID `json:"orderId"`
	Reason    string    `json:"reason,omitempty"`
}

type TicketSoldMetadata struct {
	ListingTicketID uuid.UUID `json:"listingTicketId"`
	OrderID         uuid.UUID `json:"orderId"`
	PriceCents      int64     `json:"priceCents"`
}

// Render produces the user-facing title and message for a notification.
// Unknown types are an error: a new NotificationType must get a case here
// before anything can emit it.
func Render(notificationType enums.NotificationType, metadata json.RawMessage) (title, message string, err error) {
	switch notificationType {
	case enums.NotificationOrderConfirmed:
		var m OrderConfirmedMetadata
		if err := json.Unmarshal(metadata, &m); err != nil {
			return "", "", fmt.Errorf("decode order confirmed metadata: %w", err)
		}
		return "Your tickets are confirmed",
			"Payment received. Your tickets are confirmed and ready under your orders.", nil

	case enums.NotificationOrderExpired:
		var m OrderExpiredMetadata
		if err := json.Unmarshal(metadata, &m); err != nil {
			return "", "", fmt.Errorf("decode order expired metadata: %w", err)
		}
		return "Your reservation expired",
			fmt.Sprintf("The %d ticket(s) you were holding went back on sale. You can start a new order anytime.",
				m.ReleasedTickets), nil

	case enums.NotificationPaymentSucceeded:
		var m PaymentSucceededMetadata
		if err := json.Unmarshal(metadata, &m); err != nil {
			return "", "", fmt.Errorf("decode payment succeeded metadata: %w", err)
		}
		return "Payment received",
			fmt.Sprintf("We received your payment of $%d.%02d UYU.", m.AmountCents/100, m.AmountCents%100), nil

	case enums.NotificationPaymentFailed:
		var m PaymentFailedMetadata
		if err := json.Unmarshal(metadata, &m); err != nil {
			return "", "", fmt.Errorf("decode payment failed metadata: %w", err)
		}
		message := "Your payment did not go through. Your tickets are still held; try again before the reservation expires."
		if m.Reason != "" {
			message = fmt.Sprintf("Your payment did not go through (%s). Your tickets are still held; try again before the reservation expires.", m.Reason)
		}
		return "Payment failed", message, nil

	case enums.NotificationTicketSold:
		var m TicketSoldMetadata
		if err := json.Unmarshal(metadata, &m); err != nil {
			return "", "", fmt.Errorf("decode ticket sold metadata: %w", err)
		}
		return "You sold a ticket",
			fmt.Sprintf("One of your tickets sold for $%d.%02d UYU. Earnings release after the event's hold period.",
				m.PriceCents/100, m.PriceCents%100), nil

	default:
		return "", "", fmt.Errorf("no renderer for notification type %q", notificationType)
	}
}
