package models

import (
	"time"

	"github.com/google/uuid"

	id "condo/pkg/domain"
)

// NotificationType names an outward governance notification.
type NotificationType string

const (
	NotificationTopicChanged     NotificationType = "topic_changed"
	NotificationManagerChanged   NotificationType = "manager_changed"
	NotificationQuotaChanged     NotificationType = "quota_changed"
	NotificationTransferExecuted NotificationType = "transfer_executed"
)

// Notification is published after a state change succeeds.
type Notification struct {
	ID         uuid.UUID        `json:"id"`
	Type       NotificationType `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Topic      string           `json:"topic,omitempty"`
	Status     *Status          `json:"status,omitempty"`
	Manager    *id.Address      `json:"manager,omitempty"`
	Amount     *Amount          `json:"amount,omitempty"`
	To         *id.Address      `json:"to,omitempty"`
}
