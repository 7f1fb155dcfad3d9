package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/reventa-uy/reventa-backend/pkg/db/models"
)

const sendTimeout = 15 * time.Second

type senderPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) senderPublishResult
}

type senderPublishResult interface {
	Get(ctx context.Context) (string, error)
}

// PubSubSender pushes notification rows to the notification topic so
// downstream channels (push, email) can deliver them.
type PubSubSender struct {
	pub senderPublisher
}

// NewPubSubSender wraps a notification topic publisher.
func NewPubSubSender(pub *gcppubsub.Publisher) (*PubSubSender, error) {
	if pub == nil {
		return nil, fmt.Errorf("notification publisher required")
	}
	return &PubSubSender{pub: &senderGCPPublisher{Publisher: pub}}, nil
}

type notificationMessage struct {
	NotificationID string          `json:"notification_id"`
	UserID         string          `json:"user_id"`
	Type           string          `json:"type"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Send publishes the notification and waits for the broker ack.
func (s *PubSubSender) Send(ctx context.Context, notification models.Notification) error {
	payload, err := json.Marshal(notificationMessage{
		NotificationID: notification.ID.String(),
		UserID:         notification.UserID.String(),
		Type:           string(notification.Type),
		Title:          notification.Title,
		Message:        notification.Message,
		Metadata:       notification.Metadata,
		CreatedAt:      notification.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", notification.ID, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	result := s.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"notification_id":   notification.ID.String(),
			"notification_type": string(notification.Type),
			"user_id":           notification.UserID.String(),
		},
	})
	if result == nil {
		return fmt.Errorf("publisher returned nil result for notification %s", notification.ID)
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish notification %s: %w", notification.ID, err)
	}
	return nil
}

type senderGCPPublisher struct {
	*gcppubsub.Publisher
}

func (p *senderGCPPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) senderPublishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
