package model

import "time"

// NotificationType selects the delivery channel for a queued notification
type NotificationType string

const (
	NotificationTypeEmail NotificationType = "email"
	NotificationTypeBot   NotificationType = "bot"
)

// NotificationStatus tracks a queued notification. Only pending rows are
// ever mutated: the dispatcher moves them to sent or failed, and session
// mutation may cancel or reschedule them. Sent, failed and cancelled rows
// are immutable history.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusFailed    NotificationStatus = "failed"
	NotificationStatusCancelled NotificationStatus = "cancelled"
)

// QueuedNotification is a durable row in the notification queue, picked up
// by the periodic dispatcher once its scheduled time has passed.
type QueuedNotification struct {
	ID            string                 `json:"id"`
	SessionID     string                 `json:"session_id"`
	Type          NotificationType       `json:"type"`
	Recipient     string                 `json:"recipient"`
	Template      string                 `json:"template"`
	Data          map[string]interface{} `json:"data,omitempty"`
	ScheduledTime time.Time              `json:"scheduled_time"`
	Status        NotificationStatus     `json:"status"`
	SentAt        *time.Time             `json:"sent_at,omitempty"`
	Error         string                 `json:"error,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}
