package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder          OutboxAggregateType = "order"
	AggregatePayment        OutboxAggregateType = "payment"
	AggregateListing        OutboxAggregateType = "listing"
	AggregateListingTicket  OutboxAggregateType = "listing_ticket"
	AggregateSellerEarnings OutboxAggregateType = "seller_earnings"
	AggregateNotification   OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregatePayment,
	AggregateListing,
	AggregateListingTicket,
	AggregateSellerEarnings,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated     OutboxEventType = "order_created"
	EventOrderConfirmed   OutboxEventType = "order_confirmed"
	EventOrderExpired     OutboxEventType = "order_expired"
	EventOrderCancelled   OutboxEventType = "order_cancelled"
	EventPaymentSucceeded OutboxEventType = "payment_succeeded"
	EventPaymentFailed    OutboxEventType = "payment_failed"
	EventPaymentOrphaned  OutboxEventType = "payment_orphaned"
	EventTicketSold       OutboxEventType = "ticket_sold"
	EventEarningsReleased OutboxEventType = "earnings_released"
	EventEarningsRetained OutboxEventType = "earnings_retained"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderConfirmed,
	EventOrderExpired,
	EventOrderCancelled,
	EventPaymentSucceeded,
	EventPaymentFailed,
	EventPaymentOrphaned,
	EventTicketSold,
	EventEarningsReleased,
	EventEarningsRetained,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
