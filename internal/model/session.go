package model

import "time"

// SessionStatus tracks a mentoring session through its lifecycle
type SessionStatus string

const (
	SessionStatusPendingMeeting SessionStatus = "pending_meeting"
	SessionStatusScheduled      SessionStatus = "scheduled"
	SessionStatusActive         SessionStatus = "active"
	SessionStatusCompleted      SessionStatus = "completed"
	SessionStatusCancelled      SessionStatus = "cancelled"
)

// MeetingStatus mirrors the third-party provider's state for a meeting
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusActive    MeetingStatus = "active"
	MeetingStatusCancelled MeetingStatus = "cancelled"
	MeetingStatusEnded     MeetingStatus = "ended"
)

// IsUpdatable reports whether the meeting can still be rescheduled.
// Cancelled and ended meetings must never be touched at the provider.
func (s MeetingStatus) IsUpdatable() bool {
	return s == MeetingStatusScheduled || s == MeetingStatusActive
}

// IsCancellable reports whether the meeting can still be cancelled
func (s MeetingStatus) IsCancellable() bool {
	return s == MeetingStatusScheduled || s == MeetingStatusActive
}

// Session represents a booked mentoring session. The booking command layer
// creates it in pending_meeting; the provisioning workflow moves it through
// the rest of its lifecycle.
type Session struct {
	ID              string        `json:"id"`
	StudentID       string        `json:"student_id"`
	MentorID        string        `json:"mentor_id"`
	CounselorID     string        `json:"counselor_id"`
	ServiceType     string        `json:"service_type"`
	Topic           string        `json:"topic"`
	StartTime       time.Time     `json:"start_time"`
	Duration        int           `json:"duration"` // minutes
	Provider        string        `json:"provider"` // meeting provider code, e.g. "feishu"
	MeetingID       string        `json:"meeting_id,omitempty"`
	MeetingURL      string        `json:"meeting_url,omitempty"`
	CalendarEventID string        `json:"calendar_event_id,omitempty"`
	Status          SessionStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// EndTime returns the scheduled end of the session
func (s *Session) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.Duration) * time.Minute)
}

// Meeting mirrors the provider-side meeting record persisted locally
type Meeting struct {
	ID                string        `json:"id"`
	ProviderMeetingID string        `json:"provider_meeting_id"`
	MeetingNo         string        `json:"meeting_no,omitempty"`
	Status            MeetingStatus `json:"status"`
	Topic             string        `json:"topic"`
	ScheduleStartTime time.Time     `json:"schedule_start_time"`
	ScheduleDuration  int           `json:"schedule_duration"` // minutes
	JoinURL           string        `json:"join_url,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
