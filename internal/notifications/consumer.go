package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/idempotency"
	"github.com/reventa-uy/reventa-backend/pkg/outbox/payloads"
)

const userNotificationConsumer = "user-notifications"

type consumerRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindOrderBuyer(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error)
}

// Consumer watches marketplace events and turns them into in-app
// notification rows for the affected buyer or seller.
type Consumer struct {
	repo         consumerRepository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer.
func NewConsumer(repo consumerRepository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !notifiableEvent(eventType) {
		c.logg.Info(logCtx, "skipping event without a notification mapping")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, userNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEvent(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, userNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func notifiableEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventOrderConfirmed, enums.EventOrderExpired,
		enums.EventPaymentSucceeded, enums.EventPaymentFailed,
		enums.EventTicketSold:
		return true
	}
	return false
}

func (c *Consumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderConfirmed:
		var payload payloads.OrderConfirmedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse order confirmed payload: %w", err)
		}
		return c.notify(ctx, payload.BuyerUserID, enums.NotificationOrderConfirmed, OrderConfirmedMetadata{
			OrderID:   payload.OrderID,
			EventID:   payload.EventID,
			PaymentID: payload.PaymentID,
		}, logCtx)

	case enums.EventOrderExpired:
		var payload payloads.OrderExpiredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse order expired payload: %w", err)
		}
		return c.notify(ctx, payload.BuyerUserID, enums.NotificationOrderExpired, OrderExpiredMetadata{
			OrderID:         payload.OrderID,
			EventID:         payload.EventID,
			ReleasedTickets: payload.ReleasedTickets,
		}, logCtx)

	case enums.EventPaymentSucceeded:
		var payload payloads.PaymentSucceededEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse payment succeeded payload: %w", err)
		}
		buyer, err := c.repo.FindOrderBuyer(ctx, payload.OrderID)
		if err != nil {
			return fmt.Errorf("resolve buyer for order %s: %w", payload.OrderID, err)
		}
		return c.notify(ctx, buyer, enums.NotificationPaymentSucceeded, PaymentSucceededMetadata{
			PaymentID:   payload.PaymentID,
			OrderID:     payload.OrderID,
			AmountCents: payload.AmountCents,
		}, logCtx)

	case enums.EventPaymentFailed:
		var payload payloads.PaymentFailedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse payment failed payload: %w", err)
		}
		buyer, err := c.repo.FindOrderBuyer(ctx, payload.OrderID)
		if err != nil {
			return fmt.Errorf("resolve buyer for order %s: %w", payload.OrderID, err)
		}
		return c.notify(ctx, buyer, enums.NotificationPaymentFailed, PaymentFailedMetadata{
			PaymentID: payload.PaymentID,
			OrderID:   payload.OrderID,
			Reason:    payload.Reason,
		}, logCtx)

	case enums.EventTicketSold:
		var payload payloads.TicketSoldEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse ticket sold payload: %w", err)
		}
		return c.notify(ctx, payload.SellerUserID, enums.NotificationTicketSold, TicketSoldMetadata{
			ListingTicketID: payload.ListingTicketID,
			OrderID:         payload.OrderID,
			PriceCents:      payload.PriceCents,
		}, logCtx)

	default:
		return nil
	}
}

func (c *Consumer) notify(ctx context.Context, userID uuid.UUID, notificationType enums.NotificationType, metadata any, logCtx context.Context) error {
	if userID == uuid.Nil {
		c.logg.Warn(logCtx, "no recipient for event, dropping notification")
		return nil
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	title, message, err := Render(notificationType, raw)
	if err != nil {
		return err
	}

	notification := &models.Notification{
		ID:       uuid.New(),
		UserID:   userID,
		Type:     notificationType,
		Title:    title,
		Message:  message,
		Metadata: raw,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"user_id":           userID.String(),
		"notification_type": string(notificationType),
	}), "notification created")
	return nil
}
