package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/forgo/mentora/api/internal/model"
)

// ReminderScheduler is the slice of the notification service the reaction
// handler drives
type ReminderScheduler interface {
	Schedule(ctx context.Context, n *model.QueuedNotification) error
	CancelForSession(ctx context.Context, sessionID string) (int, error)
}

// reminderAudience is every participant whose reminders are queued for a
// session. Distinct from a result event's NotifyRoles, which only scopes
// who gets alerted about the operation itself.
var reminderAudience = []model.Role{
	model.RoleStudent,
	model.RoleMentor,
	model.RoleCounselor,
}

// displayZones are the timezones rendered into every calendar event
// description, in presentation order.
var displayZones = []struct {
	label string
	name  string
}{
	{"PST", "America/Los_Angeles"},
	{"CST", "America/Chicago"},
	{"EST", "America/New_York"},
	{"UK", "Europe/London"},
	{"Shanghai", "Asia/Shanghai"},
}

// SessionReactionHandler consumes meeting operation results and performs
// the user-facing follow-up: calendar events and reminder notifications on
// success, an immediate counselor alert on failure.
//
// Calendar and reminder side effects are independent of each other. Each
// is wrapped and logged on its own; a calendar failure never blocks
// reminders and vice versa, and neither failure propagates back to the
// bus. The provisioning outcome itself is already settled by the time
// these run.
type SessionReactionHandler struct {
	sessions        SessionStore
	directory       DirectoryService
	calendar        CalendarGateway
	email           EmailGateway
	reminders       ReminderScheduler
	calendarEnabled bool
	logger          *slog.Logger
	now             func() time.Time
}

// SessionReactionConfig holds dependencies for the reaction handler
type SessionReactionConfig struct {
	Sessions        SessionStore
	Directory       DirectoryService
	Calendar        CalendarGateway
	Email           EmailGateway
	Reminders       ReminderScheduler
	CalendarEnabled bool
	Logger          *slog.Logger
}

// NewSessionReactionHandler creates a new reaction handler
func NewSessionReactionHandler(cfg SessionReactionConfig) *SessionReactionHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionReactionHandler{
		sessions:        cfg.Sessions,
		directory:       cfg.Directory,
		calendar:        cfg.Calendar,
		email:           cfg.Email,
		reminders:       cfg.Reminders,
		calendarEnabled: cfg.CalendarEnabled,
		logger:          logger,
		now:             time.Now,
	}
}

// Register subscribes the handler on the bus
func (h *SessionReactionHandler) Register(bus *EventBus) {
	bus.Subscribe(model.EventMeetingOperationResult, h.HandleOperationResult)
}

// HandleOperationResult dispatches on the (operation, status) pair of a
// result event
func (h *SessionReactionHandler) HandleOperationResult(ctx context.Context, event model.Event) error {
	result, ok := event.Data.(model.MeetingOperationResultEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", event.Type, event.Data)
	}

	if result.Status == model.OperationStatusFailed {
		return h.handleFailure(ctx, result)
	}

	switch result.Operation {
	case model.MeetingOperationCreate:
		return h.handleCreateSuccess(ctx, result)
	case model.MeetingOperationUpdate:
		return h.handleUpdateSuccess(ctx, result)
	case model.MeetingOperationCancel:
		return h.handleCancelSuccess(ctx, result)
	default:
		h.logger.Warn("unknown meeting operation in result",
			slog.String("session_id", result.SessionID),
			slog.String("operation", string(result.Operation)),
		)
		return nil
	}
}

func (h *SessionReactionHandler) handleCreateSuccess(ctx context.Context, result model.MeetingOperationResultEvent) error {
	session, err := h.sessions.FindByID(ctx, result.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %s: %w", result.SessionID, err)
	}

	if h.calendarEnabled {
		if err := h.createCalendarEvent(ctx, session, result.MeetingURL); err != nil {
			h.logger.Error("calendar event creation failed",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	h.scheduleReminders(ctx, session, result.NotifyRoles)
	return nil
}

func (h *SessionReactionHandler) handleUpdateSuccess(ctx context.Context, result model.MeetingOperationResultEvent) error {
	session, err := h.sessions.FindByID(ctx, result.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %s: %w", result.SessionID, err)
	}

	if session.CalendarEventID != "" {
		if err := h.calendar.UpdateEvent(ctx, session.CalendarEventID, session.StartTime, session.EndTime()); err != nil {
			h.logger.Error("calendar event update failed",
				slog.String("session_id", session.ID),
				slog.String("event_id", session.CalendarEventID),
				slog.String("error", err.Error()),
			)
		}
	}

	// The session row already carries the new schedule, so pending
	// reminders are replaced rather than shifted. The replacement covers
	// the full reminder audience, not the result's alert roles: the rows
	// being cancelled here were queued for every participant at create
	// time.
	if _, err := h.reminders.CancelForSession(ctx, session.ID); err != nil {
		h.logger.Error("cancelling stale reminders failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	} else {
		h.scheduleReminders(ctx, session, reminderAudience)
	}
	return nil
}

func (h *SessionReactionHandler) handleCancelSuccess(ctx context.Context, result model.MeetingOperationResultEvent) error {
	session, err := h.sessions.FindByID(ctx, result.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %s: %w", result.SessionID, err)
	}

	if session.CalendarEventID != "" {
		if err := h.calendar.CancelEvent(ctx, session.CalendarEventID); err != nil {
			h.logger.Error("calendar event cancellation failed",
				slog.String("session_id", session.ID),
				slog.String("event_id", session.CalendarEventID),
				slog.String("error", err.Error()),
			)
		}
	}

	if _, err := h.reminders.CancelForSession(ctx, session.ID); err != nil {
		h.logger.Error("cancelling reminders failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// handleFailure sends the counselor an immediate alert email. Reminder and
// calendar state is left alone; a failed step means nothing changed.
func (h *SessionReactionHandler) handleFailure(ctx context.Context, result model.MeetingOperationResultEvent) error {
	session, err := h.sessions.FindByID(ctx, result.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %s: %w", result.SessionID, err)
	}

	counselor, err := h.directory.Resolve(ctx, session.CounselorID)
	if err != nil {
		return fmt.Errorf("resolving counselor %s: %w", session.CounselorID, err)
	}

	msg := EmailMessage{
		To:       counselor.Email,
		Subject:  fmt.Sprintf("Meeting %s failed for session %s", result.Operation, session.ID),
		Template: "meeting_operation_failed",
		Data: map[string]interface{}{
			"session_id":          session.ID,
			"topic":               session.Topic,
			"operation":           string(result.Operation),
			"error":               result.ErrorMessage,
			"manual_intervention": result.RequireManualIntervention,
		},
	}
	if err := h.email.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("sending failure alert for session %s: %w", session.ID, err)
	}
	return nil
}

// createCalendarEvent resolves attendees, creates the provider calendar
// event and records its id on the session
func (h *SessionReactionHandler) createCalendarEvent(ctx context.Context, session *model.Session, meetingURL string) error {
	var attendees []CalendarAttendee
	for _, userID := range []string{session.StudentID, session.MentorID} {
		p, err := h.directory.Resolve(ctx, userID)
		if err != nil {
			return fmt.Errorf("resolving attendee %s: %w", userID, err)
		}
		attendees = append(attendees, CalendarAttendee{
			Email:       p.Email,
			DisplayName: p.DisplayName,
		})
	}

	eventID, err := h.calendar.CreateEvent(ctx, CreateEventRequest{
		Summary:     session.Topic,
		StartTime:   session.StartTime,
		EndTime:     session.EndTime(),
		Description: buildEventDescription(session, meetingURL),
		MeetingURL:  meetingURL,
		Attendees:   attendees,
	})
	if err != nil {
		return err
	}

	if err := h.sessions.SetCalendarEventID(ctx, session.ID, eventID); err != nil {
		return fmt.Errorf("recording calendar event id: %w", err)
	}
	return nil
}

// scheduleReminders queues the 24-hour and 1-hour email reminders for
// every notified participant. Reminder times already in the past are
// pulled forward to now so a near-term session still gets its reminders.
func (h *SessionReactionHandler) scheduleReminders(ctx context.Context, session *model.Session, roles []model.Role) {
	now := h.now()
	offsets := []time.Duration{24 * time.Hour, time.Hour}

	for _, role := range roles {
		userID := h.userIDForRole(session, role)
		if userID == "" {
			continue
		}
		p, err := h.directory.Resolve(ctx, userID)
		if err != nil {
			h.logger.Error("resolving reminder recipient failed",
				slog.String("session_id", session.ID),
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, offset := range offsets {
			at := session.StartTime.Add(-offset)
			if at.Before(now) {
				at = now
			}
			n := &model.QueuedNotification{
				SessionID: session.ID,
				Type:      model.NotificationTypeEmail,
				Recipient: p.Email,
				Template:  "session_reminder",
				Data: map[string]interface{}{
					"topic":      session.Topic,
					"start_time": session.StartTime.Format(time.RFC3339),
					"advance":    offset.String(),
				},
				ScheduledTime: at,
			}
			if err := h.reminders.Schedule(ctx, n); err != nil {
				h.logger.Error("scheduling reminder failed",
					slog.String("session_id", session.ID),
					slog.String("recipient", p.Email),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (h *SessionReactionHandler) userIDForRole(session *model.Session, role model.Role) string {
	switch role {
	case model.RoleStudent:
		return session.StudentID
	case model.RoleMentor:
		return session.MentorID
	case model.RoleCounselor:
		return session.CounselorID
	default:
		return ""
	}
}

// buildEventDescription renders the session start across the timezones
// participants commonly sit in
func buildEventDescription(session *model.Session, meetingURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nJoin: %s\n\nSession time:\n", session.Topic, meetingURL)
	for _, zone := range displayZones {
		loc, err := time.LoadLocation(zone.name)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", zone.label, session.StartTime.In(loc).Format("Mon Jan 2, 3:04 PM"))
	}
	return b.String()
}
