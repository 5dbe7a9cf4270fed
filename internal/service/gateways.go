package service

import (
	"context"
	"time"

	"github.com/forgo/mentora/api/internal/model"
)

// Gateway contracts for the external systems the provisioning workflow
// calls. Implementations live at the edge of the application; every
// provider call here is wrapped in the shared retry policy by the caller.

// CreateMeetingRequest is the provider-side meeting definition
type CreateMeetingRequest struct {
	Topic                string
	Provider             string
	StartTime            string // ISO-8601
	Duration             int    // minutes
	HostUserID           string
	AutoRecord           bool
	ParticipantJoinEarly bool
}

// CreatedMeeting is the provider's handle for a provisioned meeting
type CreatedMeeting struct {
	ID         string
	MeetingNo  string
	MeetingURL string
}

// UpdateMeetingRequest carries the fields a reschedule may change
type UpdateMeetingRequest struct {
	Topic     string
	StartTime string // ISO-8601
	Duration  int    // minutes
}

// MeetingProviderGateway provisions meetings at the third-party provider.
// All three calls may fail transiently.
type MeetingProviderGateway interface {
	CreateMeeting(ctx context.Context, req CreateMeetingRequest) (*CreatedMeeting, error)
	UpdateMeeting(ctx context.Context, meetingID string, req UpdateMeetingRequest) error
	CancelMeeting(ctx context.Context, meetingID string) error
}

// CalendarAttendee is one invitee on a calendar event
type CalendarAttendee struct {
	Email       string
	DisplayName string
	IsOptional  bool
}

// CreateEventRequest defines a calendar event for a session
type CreateEventRequest struct {
	Summary     string
	StartTime   time.Time
	EndTime     time.Time
	Description string
	MeetingURL  string
	Attendees   []CalendarAttendee
}

// CalendarGateway manages provider calendar events and booking slots
type CalendarGateway interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (string, error)
	UpdateEvent(ctx context.Context, eventID string, startTime, endTime time.Time) error
	CancelEvent(ctx context.Context, eventID string) error
	UpdateSlotWithSessionAndMeeting(ctx context.Context, sessionID, meetingID, meetingURL, otherPartyName string) error
}

// EmailMessage is one outbound email
type EmailMessage struct {
	To       string
	Subject  string
	Template string
	Data     map[string]interface{}
}

// EmailGateway sends transactional email
type EmailGateway interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// Participant is a resolved person for calendar and notification use
type Participant struct {
	ID          string
	DisplayName string
	Email       string
}

// DirectoryService resolves user ids to human-readable names and addresses
type DirectoryService interface {
	Resolve(ctx context.Context, userID string) (*Participant, error)
}

// Repository contracts consumed by the services in this package.

// LedgerStore is the service ledger persistence port
type LedgerStore interface {
	FindByID(ctx context.Context, id string) (*model.ServiceLedger, error)
	FindByStudentAndServiceType(ctx context.Context, studentID, serviceType string) ([]*model.ServiceLedger, error)
	CalculateBalance(ctx context.Context, studentID, serviceType string) (int, error)
	SaveGuarded(ctx context.Context, ledger *model.ServiceLedger, expectedBalance int) error
}

// PayableStore is the mentor payable persistence port
type PayableStore interface {
	FindByID(ctx context.Context, id string) (*model.MentorPayableLedger, error)
	FindByReferenceID(ctx context.Context, referenceID string) ([]*model.MentorPayableLedger, error)
	FindUnsettledByMentor(ctx context.Context, mentorID string) ([]*model.MentorPayableLedger, error)
	Save(ctx context.Context, payable *model.MentorPayableLedger) error
	MarkSettled(ctx context.Context, ids []string, settlementID string, at time.Time) error
}

// SessionStore is the session persistence port used by the workflow
type SessionStore interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	FindByMeetingID(ctx context.Context, meetingID string) (*model.Session, error)
	ScheduleMeeting(ctx context.Context, sessionID string, meeting *model.Meeting) error
	UpdateSchedule(ctx context.Context, sessionID, meetingID, topic string, startTime time.Time, duration int) error
	MarkCancelled(ctx context.Context, sessionID, meetingID string) error
	MarkCompleted(ctx context.Context, sessionID, meetingID string) error
	SetCalendarEventID(ctx context.Context, sessionID, eventID string) error
}

// MeetingRecordStore is the narrow local meeting-state port the workflow
// gates its provider calls on
type MeetingRecordStore interface {
	GetStatus(ctx context.Context, meetingID string) (model.MeetingStatus, error)
	UpdateSchedule(ctx context.Context, meetingID, topic string, startTime time.Time, duration int) error
	MarkCancelled(ctx context.Context, meetingID string) error
	UpdateStatusByMeetingID(ctx context.Context, meetingID string, status model.MeetingStatus) (int, error)
}

// NotificationStore is the notification queue persistence port
type NotificationStore interface {
	Enqueue(ctx context.Context, n *model.QueuedNotification) error
	FindDuePending(ctx context.Context, now time.Time) ([]*model.QueuedNotification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	CancelBySessionID(ctx context.Context, sessionID string) (int, error)
	UpdateScheduledTimeBySessionID(ctx context.Context, sessionID string, delta time.Duration) (int, error)
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Publisher is the outbound side of the event bus
type Publisher interface {
	Publish(ctx context.Context, event model.Event) error
}
