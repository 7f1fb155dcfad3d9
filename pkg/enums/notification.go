package enums

import "fmt"

// NotificationType keys the typed metadata payload carried by a notification.
type NotificationType string

const (
	NotificationOrderConfirmed   NotificationType = "order_confirmed"
	NotificationOrderExpired     NotificationType = "order_expired"
	NotificationPaymentSucceeded NotificationType = "payment_succeeded"
	NotificationPaymentFailed    NotificationType = "payment_failed"
	NotificationTicketSold       NotificationType = "ticket_sold"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderConfirmed,
	NotificationOrderExpired,
	NotificationPaymentSucceeded,
	NotificationPaymentFailed,
	NotificationTicketSold,
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
