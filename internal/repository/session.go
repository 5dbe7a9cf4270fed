package repository

import (
	"context"
	"time"

	"github.com/forgo/mentora/api/internal/database"
	"github.com/forgo/mentora/api/internal/model"
)

// SessionRepository handles session persistence. Saga steps that mutate a
// session together with its meeting record go through the batch methods so
// both rows commit atomically.
type SessionRepository struct {
	db database.Database
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.Database) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID returns a session
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	query := `SELECT * FROM type::thing("session", $id)`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	row := firstRow(result)
	if row == nil {
		return nil, database.ErrNotFound
	}
	return rowToSession(row), nil
}

// FindByMeetingID returns the session owning a provider meeting, or
// database.ErrNotFound when the meeting belongs to no session here
func (r *SessionRepository) FindByMeetingID(ctx context.Context, meetingID string) (*model.Session, error) {
	query := `SELECT * FROM session WHERE meeting_id = $meeting_id LIMIT 1`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"meeting_id": meetingID})
	if err != nil {
		return nil, err
	}
	row := firstRow(result)
	if row == nil {
		return nil, database.ErrNotFound
	}
	return rowToSession(row), nil
}

// Create inserts a session row in pending_meeting status
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		CREATE type::thing("session", $id) CONTENT {
			student_id: $student_id,
			mentor_id: $mentor_id,
			counselor_id: $counselor_id,
			service_type: $service_type,
			topic: $topic,
			start_time: $start_time,
			duration: $duration,
			provider: $provider,
			meeting_id: $meeting_id,
			meeting_url: $meeting_url,
			calendar_event_id: $calendar_event_id,
			status: $status,
			created_at: time::now(),
			updated_at: time::now()
		}
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"id":                session.ID,
		"student_id":        session.StudentID,
		"mentor_id":         session.MentorID,
		"counselor_id":      session.CounselorID,
		"service_type":      session.ServiceType,
		"topic":             session.Topic,
		"start_time":        session.StartTime,
		"duration":          session.Duration,
		"provider":          session.Provider,
		"meeting_id":        session.MeetingID,
		"meeting_url":       session.MeetingURL,
		"calendar_event_id": session.CalendarEventID,
		"status":            string(session.Status),
	})
}

// ScheduleMeeting records a provisioned meeting: the session moves to
// scheduled and the local meeting record is created, in one transaction.
// The external meeting already exists when this commits.
func (r *SessionRepository) ScheduleMeeting(ctx context.Context, sessionID string, meeting *model.Meeting) error {
	batch := database.NewAtomicBatch()
	batch.Add(`
		UPDATE type::thing("session", $session_id) SET
			meeting_id = $meeting_id,
			meeting_url = $meeting_url,
			status = $status,
			updated_at = time::now()
	`, map[string]interface{}{
		"session_id":  sessionID,
		"meeting_id":  meeting.ProviderMeetingID,
		"meeting_url": meeting.JoinURL,
		"status":      string(model.SessionStatusScheduled),
	})
	batch.Add(`
		CREATE type::thing("meeting", $id) CONTENT {
			provider_meeting_id: $provider_meeting_id,
			meeting_no: $meeting_no,
			status: $meeting_status,
			topic: $topic,
			schedule_start_time: $schedule_start_time,
			schedule_duration: $schedule_duration,
			join_url: $join_url,
			updated_at: time::now()
		}
	`, map[string]interface{}{
		"id":                  meeting.ID,
		"provider_meeting_id": meeting.ProviderMeetingID,
		"meeting_no":          meeting.MeetingNo,
		"meeting_status":      string(meeting.Status),
		"topic":               meeting.Topic,
		"schedule_start_time": meeting.ScheduleStartTime,
		"schedule_duration":   meeting.ScheduleDuration,
		"join_url":            meeting.JoinURL,
	})
	return batch.Execute(ctx, r.db)
}

// UpdateSchedule writes the rescheduled topic and time window onto the
// session and its meeting record together
func (r *SessionRepository) UpdateSchedule(ctx context.Context, sessionID, meetingID, topic string, startTime time.Time, duration int) error {
	batch := database.NewAtomicBatch()
	batch.Add(`
		UPDATE type::thing("session", $session_id) SET
			topic = $topic,
			start_time = $start_time,
			duration = $duration,
			updated_at = time::now()
	`, map[string]interface{}{
		"session_id": sessionID,
		"topic":      topic,
		"start_time": startTime,
		"duration":   duration,
	})
	batch.Add(`
		UPDATE meeting SET
			topic = $topic,
			schedule_start_time = $start_time,
			schedule_duration = $duration,
			updated_at = time::now()
		WHERE provider_meeting_id = $meeting_id
	`, map[string]interface{}{
		"meeting_id": meetingID,
		"topic":      topic,
		"start_time": startTime,
		"duration":   duration,
	})
	return batch.Execute(ctx, r.db)
}

// MarkCancelled cancels the session and its meeting record together. The
// meeting update is a no-op for sessions that never acquired a meeting.
func (r *SessionRepository) MarkCancelled(ctx context.Context, sessionID, meetingID string) error {
	batch := database.NewAtomicBatch()
	batch.Add(`
		UPDATE type::thing("session", $session_id) SET
			status = $status,
			updated_at = time::now()
	`, map[string]interface{}{
		"session_id": sessionID,
		"status":     string(model.SessionStatusCancelled),
	})
	if meetingID != "" {
		batch.Add(`
			UPDATE meeting SET
				status = $meeting_status,
				updated_at = time::now()
			WHERE provider_meeting_id = $meeting_id
		`, map[string]interface{}{
			"meeting_id":     meetingID,
			"meeting_status": string(model.MeetingStatusCancelled),
		})
	}
	return batch.Execute(ctx, r.db)
}

// MarkCompleted completes the session and ends its meeting record together
func (r *SessionRepository) MarkCompleted(ctx context.Context, sessionID, meetingID string) error {
	batch := database.NewAtomicBatch()
	batch.Add(`
		UPDATE type::thing("session", $session_id) SET
			status = $status,
			updated_at = time::now()
	`, map[string]interface{}{
		"session_id": sessionID,
		"status":     string(model.SessionStatusCompleted),
	})
	batch.Add(`
		UPDATE meeting SET
			status = $meeting_status,
			updated_at = time::now()
		WHERE provider_meeting_id = $meeting_id
	`, map[string]interface{}{
		"meeting_id":     meetingID,
		"meeting_status": string(model.MeetingStatusEnded),
	})
	return batch.Execute(ctx, r.db)
}

// SetCalendarEventID persists the calendar event created for a session
func (r *SessionRepository) SetCalendarEventID(ctx context.Context, sessionID, eventID string) error {
	return r.db.Execute(ctx, `
		UPDATE type::thing("session", $session_id) SET
			calendar_event_id = $event_id,
			updated_at = time::now()
	`, map[string]interface{}{
		"session_id": sessionID,
		"event_id":   eventID,
	})
}

func rowToSession(row map[string]interface{}) *model.Session {
	return &model.Session{
		ID:              convertSurrealID(row["id"]),
		StudentID:       getString(row, "student_id"),
		MentorID:        getString(row, "mentor_id"),
		CounselorID:     getString(row, "counselor_id"),
		ServiceType:     getString(row, "service_type"),
		Topic:           getString(row, "topic"),
		StartTime:       getTime(row, "start_time"),
		Duration:        getInt(row, "duration"),
		Provider:        getString(row, "provider"),
		MeetingID:       getString(row, "meeting_id"),
		MeetingURL:      getString(row, "meeting_url"),
		CalendarEventID: getString(row, "calendar_event_id"),
		Status:          model.SessionStatus(getString(row, "status")),
		CreatedAt:       getTime(row, "created_at"),
		UpdatedAt:       getTime(row, "updated_at"),
	}
}
