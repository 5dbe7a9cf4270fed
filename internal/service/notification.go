package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/mentora/api/internal/model"
)

// NotificationService owns the durable notification queue: scheduling,
// periodic dispatch, cancellation and cleanup. Delivery is at-least-once
// from the queue's point of view; a row is only marked sent after the
// gateway accepts it.
type NotificationService struct {
	repo   NotificationStore
	email  EmailGateway
	logger *slog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo NotificationStore, email EmailGateway, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		repo:   repo,
		email:  email,
		logger: logger,
	}
}

// Schedule enqueues a notification for later dispatch
func (s *NotificationService) Schedule(ctx context.Context, n *model.QueuedNotification) error {
	if n.Recipient == "" {
		return ErrRecipientRequired
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Type == "" {
		n.Type = model.NotificationTypeEmail
	}
	n.Status = model.NotificationStatusPending
	n.CreatedAt = time.Now()

	if err := s.repo.Enqueue(ctx, n); err != nil {
		return fmt.Errorf("enqueueing notification: %w", err)
	}
	return nil
}

// DispatchDue delivers every pending notification whose scheduled time has
// passed. Rows are processed independently: one delivery failure is
// recorded on its own row and the loop continues. Returns the number
// delivered.
func (s *NotificationService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.FindDuePending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("finding due notifications: %w", err)
	}

	sent := 0
	for _, n := range due {
		if err := s.deliver(ctx, n); err != nil {
			s.logger.Error("notification delivery failed",
				slog.String("notification_id", n.ID),
				slog.String("session_id", n.SessionID),
				slog.String("recipient", n.Recipient),
				slog.String("error", err.Error()),
			)
			if markErr := s.repo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				s.logger.Error("marking notification failed",
					slog.String("notification_id", n.ID),
					slog.String("error", markErr.Error()),
				)
			}
			continue
		}
		if err := s.repo.MarkSent(ctx, n.ID, time.Now()); err != nil {
			s.logger.Error("marking notification sent",
				slog.String("notification_id", n.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *NotificationService) deliver(ctx context.Context, n *model.QueuedNotification) error {
	switch n.Type {
	case model.NotificationTypeEmail:
		return s.email.SendEmail(ctx, EmailMessage{
			To:       n.Recipient,
			Subject:  subjectForTemplate(n.Template),
			Template: n.Template,
			Data:     n.Data,
		})
	case model.NotificationTypeBot:
		// No bot gateway is wired yet.
		return fmt.Errorf("%w: %s", ErrUnsupportedChannel, n.Type)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedChannel, n.Type)
	}
}

// CancelForSession cancels all pending notifications for a session.
// Returns the number cancelled.
func (s *NotificationService) CancelForSession(ctx context.Context, sessionID string) (int, error) {
	count, err := s.repo.CancelBySessionID(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("cancelling notifications for session %s: %w", sessionID, err)
	}
	return count, nil
}

// RescheduleForSession shifts every pending notification for a session by
// delta. Sent, failed and cancelled rows are untouched.
func (s *NotificationService) RescheduleForSession(ctx context.Context, sessionID string, delta time.Duration) (int, error) {
	count, err := s.repo.UpdateScheduledTimeBySessionID(ctx, sessionID, delta)
	if err != nil {
		return 0, fmt.Errorf("rescheduling notifications for session %s: %w", sessionID, err)
	}
	return count, nil
}

// CleanupSent removes sent notifications older than the retention window
func (s *NotificationService) CleanupSent(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	count, err := s.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up sent notifications: %w", err)
	}
	if count > 0 {
		s.logger.Info("cleaned up sent notifications",
			slog.Int("count", count),
			slog.Time("cutoff", cutoff),
		)
	}
	return count, nil
}

func subjectForTemplate(template string) string {
	switch template {
	case "session_reminder":
		return "Upcoming session reminder"
	case "meeting_operation_failed":
		return "Meeting operation needs attention"
	default:
		return "Notification"
	}
}
