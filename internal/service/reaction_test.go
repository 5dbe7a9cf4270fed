package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/mentora/api/internal/model"
)

func newReactionHandler(cfg SessionReactionConfig) *SessionReactionHandler {
	if cfg.Sessions == nil {
		cfg.Sessions = &fakeSessionStore{}
	}
	if cfg.Directory == nil {
		cfg.Directory = &fakeDirectory{}
	}
	if cfg.Calendar == nil {
		cfg.Calendar = &fakeCalendar{}
	}
	if cfg.Email == nil {
		cfg.Email = &fakeEmail{}
	}
	if cfg.Reminders == nil {
		cfg.Reminders = &fakeReminders{}
	}
	return NewSessionReactionHandler(cfg)
}

func createSuccessResult(roles ...model.Role) model.Event {
	return model.Event{
		Type: model.EventMeetingOperationResult,
		Data: model.MeetingOperationResultEvent{
			SessionID:   "session-1",
			Operation:   model.MeetingOperationCreate,
			Status:      model.OperationStatusSuccess,
			MeetingID:   "meeting-1",
			MeetingURL:  "https://meet.example/1",
			NotifyRoles: roles,
		},
	}
}

func TestCreateSuccessSchedulesRemindersAndCalendar(t *testing.T) {
	ctx := context.Background()
	session := testSession()
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return session, nil
		},
	}
	var eventID string
	sessions.SetCalendarEventIDFn = func(ctx context.Context, sessionID, id string) error {
		eventID = id
		return nil
	}
	reminders := &fakeReminders{}
	h := newReactionHandler(SessionReactionConfig{
		Sessions:        sessions,
		Reminders:       reminders,
		CalendarEnabled: true,
	})

	err := h.HandleOperationResult(ctx, createSuccessResult(model.RoleStudent, model.RoleMentor))
	require.NoError(t, err)

	assert.Equal(t, "event-1", eventID)
	// Two reminders per notified participant.
	require.Len(t, reminders.scheduled, 4)
	for _, n := range reminders.scheduled {
		assert.Equal(t, "session-1", n.SessionID)
		assert.Equal(t, model.NotificationTypeEmail, n.Type)
		assert.Equal(t, "session_reminder", n.Template)
	}
	assert.Equal(t, session.StartTime.Add(-24*time.Hour), reminders.scheduled[0].ScheduledTime)
	assert.Equal(t, session.StartTime.Add(-time.Hour), reminders.scheduled[1].ScheduledTime)
}

func TestCreateSuccessCalendarDisabled(t *testing.T) {
	ctx := context.Background()
	calendarCalled := false
	calendar := &fakeCalendar{
		CreateEventFn: func(ctx context.Context, req CreateEventRequest) (string, error) {
			calendarCalled = true
			return "event-1", nil
		},
	}
	reminders := &fakeReminders{}
	h := newReactionHandler(SessionReactionConfig{
		Sessions: &fakeSessionStore{
			FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return testSession(), nil
			},
		},
		Calendar:  calendar,
		Reminders: reminders,
	})

	err := h.HandleOperationResult(ctx, createSuccessResult(model.RoleStudent))
	require.NoError(t, err)
	assert.False(t, calendarCalled)
	assert.Len(t, reminders.scheduled, 2)
}

func TestCalendarFailureDoesNotBlockReminders(t *testing.T) {
	ctx := context.Background()
	calendar := &fakeCalendar{
		CreateEventFn: func(ctx context.Context, req CreateEventRequest) (string, error) {
			return "", errors.New("calendar api down")
		},
	}
	reminders := &fakeReminders{}
	h := newReactionHandler(SessionReactionConfig{
		Sessions: &fakeSessionStore{
			FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return testSession(), nil
			},
		},
		Calendar:        calendar,
		Reminders:       reminders,
		CalendarEnabled: true,
	})

	err := h.HandleOperationResult(ctx, createSuccessResult(model.RoleStudent))
	require.NoError(t, err)
	assert.Len(t, reminders.scheduled, 2)
}

func TestPastReminderTimesPulledForward(t *testing.T) {
	ctx := context.Background()
	session := testSession()
	session.StartTime = time.Now().Add(30 * time.Minute)
	reminders := &fakeReminders{}
	h := newReactionHandler(SessionReactionConfig{
		Sessions: &fakeSessionStore{
			FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return session, nil
			},
		},
		Reminders: reminders,
	})
	fixedNow := time.Now()
	h.now = func() time.Time { return fixedNow }

	err := h.HandleOperationResult(ctx, createSuccessResult(model.RoleStudent))
	require.NoError(t, err)

	require.Len(t, reminders.scheduled, 2)
	for _, n := range reminders.scheduled {
		assert.Equal(t, fixedNow, n.ScheduledTime)
	}
}

func TestUpdateSuccessReplacesPendingReminders(t *testing.T) {
	ctx := context.Background()
	session := testSession()
	session.CalendarEventID = "event-1"
	var updatedEventID string
	calendar := &fakeCalendar{
		UpdateEventFn: func(ctx context.Context, eventID string, startTime, endTime time.Time) error {
			updatedEventID = eventID
			assert.Equal(t, session.StartTime, startTime)
			assert.Equal(t, session.EndTime(), endTime)
			return nil
		},
	}
	reminders := &fakeReminders{}
	h := newReactionHandler(SessionReactionConfig{
		Sessions: &fakeSessionStore{
			FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return session, nil
			},
		},
		Calendar:  calendar,
		Reminders: reminders,
	})

	// The saga notifies mentor and counselor on update success; the
	// student's reminders must still be re-queued after the replacement.
	err := h.HandleOperationResult(ctx, model.Event{
		Type: model.EventMeetingOperationResult,
		Data: model.MeetingOperationResultEvent{
			SessionID:   "session-1",
			Operation:   model.MeetingOperationUpdate,
			Status:      model.OperationStatusSuccess,
			NotifyRoles: []model.Role{model.RoleMentor, model.RoleCounselor},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "event-1", updatedEventID)
	assert.Equal(t, []string{"session-1"}, reminders.cancelled)
	require.Len(t, reminders.scheduled, 6)

	recipients := make(map[string]int)
	for _, n := range reminders.scheduled {
		recipients[n.Recipient]++
	}
	assert.Equal(t, 2, recipients["student-1@example.com"])
	assert.Equal(t, 2, recipients["mentor-1@example.com"])
	assert.Equal(t, 2, recipients["counselor-1@example.com"])
}

func TestCancelSuccessCleansUp(t *testing.T) {
	ctx := context.Background()
	session := testSession()
	session.CalendarEventID = "event-1"
	var cancelledEventID string
	calendar := &fakeCalendar{
		CancelEventFn: func(ctx context.Context, eventID string) error {
			cancelledEventID = eventID
			return nil
		},
	}
	reminders := &fakeReminders{}
	h := newReactionHandler(SessionReactionConfig{
		Sessions: &fakeSessionStore{
			FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return session, nil
			},
		},
		Calendar:  calendar,
		Reminders: reminders,
	})

	err := h.HandleOperationResult(ctx, model.Event{
		Type: model.EventMeetingOperationResult,
		Data: model.MeetingOperationResultEvent{
			SessionID: "session-1",
			Operation: model.MeetingOperationCancel,
			Status:    model.OperationStatusSuccess,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "event-1", cancelledEventID)
	assert.Equal(t, []string{"session-1"}, reminders.cancelled)
	assert.Empty(t, reminders.scheduled)
}

func TestFailureAlertsCounselor(t *testing.T) {
	ctx := context.Background()
	email := &fakeEmail{}
	h := newReactionHandler(SessionReactionConfig{
		Sessions: &fakeSessionStore{
			FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return testSession(), nil
			},
		},
		Email: email,
	})

	err := h.HandleOperationResult(ctx, model.Event{
		Type: model.EventMeetingOperationResult,
		Data: model.MeetingOperationResultEvent{
			SessionID:                 "session-1",
			Operation:                 model.MeetingOperationCreate,
			Status:                    model.OperationStatusFailed,
			ErrorMessage:              "provider unavailable",
			NotifyRoles:               []model.Role{model.RoleCounselor},
			RequireManualIntervention: true,
		},
	})
	require.NoError(t, err)

	sent := email.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "counselor-1@example.com", sent[0].To)
	assert.Equal(t, "meeting_operation_failed", sent[0].Template)
	assert.Equal(t, "provider unavailable", sent[0].Data["error"])
	assert.Equal(t, true, sent[0].Data["manual_intervention"])
}

func TestEventDescriptionListsTimezones(t *testing.T) {
	session := testSession()
	desc := buildEventDescription(session, "https://meet.example/1")
	for _, label := range []string{"PST", "CST", "EST", "UK", "Shanghai"} {
		assert.Contains(t, desc, label)
	}
	assert.Contains(t, desc, "https://meet.example/1")
}
