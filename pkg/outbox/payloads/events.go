package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/enums"
)

// OrderCreatedEvent signals a new order with its tickets reserved.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID      `json:"orderId"`
	BuyerUserID   uuid.UUID      `json:"buyerUserId"`
	EventID       uuid.UUID      `json:"eventId"`
	TicketCount   int            `json:"ticketCount"`
	SubtotalCents int64          `json:"subtotalCents"`
	TotalCents    int64          `json:"totalCents"`
	Currency      enums.Currency `json:"currency"`
	ReservedUntil time.Time      `json:"reservedUntil"`
}

// OrderConfirmedEvent is emitted exactly once when payment settles an order.
type OrderConfirmedEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	BuyerUserID uuid.UUID `json:"buyerUserId"`
	EventID     uuid.UUID `json:"eventId"`
	PaymentID   uuid.UUID `json:"paymentId"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

// OrderExpiredEvent describes the payload when the sweeper expires an order.
type OrderExpiredEvent struct {
	OrderID         uuid.UUID `json:"orderId"`
	BuyerUserID     uuid.UUID `json:"buyerUserId"`
	EventID         uuid.UUID `json:"eventId"`
	ExpiredAt       time.Time `json:"expiredAt"`
	ReleasedTickets int       `json:"releasedTickets"`
}

// OrderCancelledEvent is emitted when a buyer cancels a pending order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	BuyerUserID uuid.UUID `json:"buyerUserId"`
	CancelledAt time.Time `json:"cancelledAt"`
	Reason      string    `json:"reason,omitempty"`
}

// PaymentSucceededEvent reports a provider-confirmed successful payment.
type PaymentSucceededEvent struct {
	PaymentID         uuid.UUID             `json:"paymentId"`
	OrderID           uuid.UUID             `json:"orderId"`
	Provider          enums.PaymentProvider `json:"provider"`
	ProviderPaymentID string                `json:"providerPaymentId"`
	AmountCents       int64                 `json:"amountCents"`
	Currency          enums.Currency        `json:"currency"`
}

// PaymentFailedEvent reports a terminal failed payment.
type PaymentFailedEvent struct {
	PaymentID         uuid.UUID             `json:"paymentId"`
	OrderID           uuid.UUID             `json:"orderId"`
	Provider          enums.PaymentProvider `json:"provider"`
	ProviderPaymentID string                `json:"providerPaymentId"`
	Reason            string                `json:"reason,omitempty"`
}

// PaymentOrphanedEvent flags a payment that succeeded at the provider after
// its order left the pending state. These rows need manual review and a
// refund decision; nothing downstream auto-confirms the order.
type PaymentOrphanedEvent struct {
	PaymentID         uuid.UUID         `json:"paymentId"`
	OrderID           uuid.UUID         `json:"orderId"`
	ProviderPaymentID string            `json:"providerPaymentId"`
	OrderStatus       enums.OrderStatus `json:"orderStatus"`
	AmountCents       int64             `json:"amountCents"`
}

// TicketSoldEvent is emitted per ticket when an order confirms.
type TicketSoldEvent struct {
	ListingTicketID uuid.UUID `json:"listingTicketId"`
	ListingID       uuid.UUID `json:"listingId"`
	SellerUserID    uuid.UUID `json:"sellerUserId"`
	OrderID         uuid.UUID `json:"orderId"`
	PriceCents      int64     `json:"priceCents"`
}

// EarningsReleasedEvent reports earnings that cleared their hold period.
type EarningsReleasedEvent struct {
	EarningsID   uuid.UUID `json:"earningsId"`
	SellerUserID uuid.UUID `json:"sellerUserId"`
	OrderID      uuid.UUID `json:"orderId"`
	AmountCents  int64     `json:"amountCents"`
	ReleasedAt   time.Time `json:"releasedAt"`
}

// EarningsRetainedEvent reports earnings held back because of a dispute.
type EarningsRetainedEvent struct {
	EarningsID   uuid.UUID `json:"earningsId"`
	SellerUserID uuid.UUID `json:"sellerUserId"`
	OrderID      uuid.UUID `json:"orderId"`
	AmountCents  int64     `json:"amountCents"`
}
