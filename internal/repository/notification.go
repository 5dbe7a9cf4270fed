package repository

import (
	"context"
	"time"

	"github.com/forgo/mentora/api/internal/database"
	"github.com/forgo/mentora/api/internal/model"
)

// NotificationRepository handles the durable notification queue. Only
// pending rows are ever mutated; sent, failed and cancelled rows are
// immutable history until the cleanup job deletes aged sent rows.
type NotificationRepository struct {
	db database.Database
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Enqueue persists a notification in pending status
func (r *NotificationRepository) Enqueue(ctx context.Context, n *model.QueuedNotification) error {
	query := `
		CREATE type::thing("notification_queue", $id) CONTENT {
			session_id: $session_id,
			type: $type,
			recipient: $recipient,
			template: $template,
			data: $data,
			scheduled_time: $scheduled_time,
			status: $status,
			created_at: time::now()
		}
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"id":             n.ID,
		"session_id":     n.SessionID,
		"type":           string(n.Type),
		"recipient":      n.Recipient,
		"template":       n.Template,
		"data":           n.Data,
		"scheduled_time": n.ScheduledTime,
		"status":         string(model.NotificationStatusPending),
	})
}

// FindDuePending returns all pending rows whose scheduled time has passed
func (r *NotificationRepository) FindDuePending(ctx context.Context, now time.Time) ([]*model.QueuedNotification, error) {
	query := `
		SELECT * FROM notification_queue
		WHERE status = $status AND scheduled_time <= $now
		ORDER BY scheduled_time ASC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{
		"status": string(model.NotificationStatusPending),
		"now":    now,
	})
	if err != nil {
		return nil, err
	}
	rows := extractQueryResults(result)
	notifications := make([]*model.QueuedNotification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, rowToNotification(row))
	}
	return notifications, nil
}

// MarkSent moves a pending row to sent
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.db.Execute(ctx, `
		UPDATE type::thing("notification_queue", $id) SET
			status = $status,
			sent_at = $sent_at
		WHERE status = $pending
	`, map[string]interface{}{
		"id":      id,
		"status":  string(model.NotificationStatusSent),
		"sent_at": at.UTC(),
		"pending": string(model.NotificationStatusPending),
	})
}

// MarkFailed moves a pending row to failed, recording the error
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.Execute(ctx, `
		UPDATE type::thing("notification_queue", $id) SET
			status = $status,
			error = $error
		WHERE status = $pending
	`, map[string]interface{}{
		"id":      id,
		"status":  string(model.NotificationStatusFailed),
		"error":   errMsg,
		"pending": string(model.NotificationStatusPending),
	})
}

// CancelBySessionID cancels all still-pending rows for a session and
// returns the number of rows touched
func (r *NotificationRepository) CancelBySessionID(ctx context.Context, sessionID string) (int, error) {
	query := `
		UPDATE notification_queue SET
			status = $cancelled
		WHERE session_id = $session_id AND status = $pending
		RETURN AFTER
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{
		"session_id": sessionID,
		"cancelled":  string(model.NotificationStatusCancelled),
		"pending":    string(model.NotificationStatusPending),
	})
	if err != nil {
		return 0, err
	}
	return len(extractQueryResults(result)), nil
}

// UpdateScheduledTimeBySessionID shifts all still-pending rows for a
// session by the given delta and returns the number of rows touched.
// Rows already dispatched keep their history untouched.
func (r *NotificationRepository) UpdateScheduledTimeBySessionID(ctx context.Context, sessionID string, delta time.Duration) (int, error) {
	query := `
		UPDATE notification_queue SET
			scheduled_time = scheduled_time + $delta
		WHERE session_id = $session_id AND status = $pending
		RETURN AFTER
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{
		"session_id": sessionID,
		"delta":      delta,
		"pending":    string(model.NotificationStatusPending),
	})
	if err != nil {
		return 0, err
	}
	return len(extractQueryResults(result)), nil
}

// DeleteSentBefore removes sent rows older than the cutoff and returns the
// number deleted
func (r *NotificationRepository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE notification_queue
		WHERE status = $sent AND sent_at < $cutoff
		RETURN BEFORE
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{
		"sent":   string(model.NotificationStatusSent),
		"cutoff": cutoff.UTC(),
	})
	if err != nil {
		return 0, err
	}
	return len(extractQueryResults(result)), nil
}

func rowToNotification(row map[string]interface{}) *model.QueuedNotification {
	return &model.QueuedNotification{
		ID:            convertSurrealID(row["id"]),
		SessionID:     getString(row, "session_id"),
		Type:          model.NotificationType(getString(row, "type")),
		Recipient:     getString(row, "recipient"),
		Template:      getString(row, "template"),
		Data:          getDataMap(row, "data"),
		ScheduledTime: getTime(row, "scheduled_time"),
		Status:        model.NotificationStatus(getString(row, "status")),
		SentAt:        getTimePtr(row, "sent_at"),
		Error:         getString(row, "error"),
		CreatedAt:     getTime(row, "created_at"),
	}
}
