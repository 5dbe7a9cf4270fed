package service

import (
	"context"
	"sync"
	"time"

	"github.com/forgo/mentora/api/internal/model"
)

// Function-field fakes for the ports in gateways.go. A nil function means
// "succeed with zero values".

type fakeLedgerStore struct {
	FindByIDFn                    func(ctx context.Context, id string) (*model.ServiceLedger, error)
	FindByStudentAndServiceTypeFn func(ctx context.Context, studentID, serviceType string) ([]*model.ServiceLedger, error)
	CalculateBalanceFn            func(ctx context.Context, studentID, serviceType string) (int, error)
	SaveGuardedFn                 func(ctx context.Context, ledger *model.ServiceLedger, expectedBalance int) error
}

func (f *fakeLedgerStore) FindByID(ctx context.Context, id string) (*model.ServiceLedger, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeLedgerStore) FindByStudentAndServiceType(ctx context.Context, studentID, serviceType string) ([]*model.ServiceLedger, error) {
	if f.FindByStudentAndServiceTypeFn != nil {
		return f.FindByStudentAndServiceTypeFn(ctx, studentID, serviceType)
	}
	return nil, nil
}

func (f *fakeLedgerStore) CalculateBalance(ctx context.Context, studentID, serviceType string) (int, error) {
	if f.CalculateBalanceFn != nil {
		return f.CalculateBalanceFn(ctx, studentID, serviceType)
	}
	return 0, nil
}

func (f *fakeLedgerStore) SaveGuarded(ctx context.Context, ledger *model.ServiceLedger, expectedBalance int) error {
	if f.SaveGuardedFn != nil {
		return f.SaveGuardedFn(ctx, ledger, expectedBalance)
	}
	return nil
}

type fakePayableStore struct {
	FindByIDFn              func(ctx context.Context, id string) (*model.MentorPayableLedger, error)
	FindByReferenceIDFn     func(ctx context.Context, referenceID string) ([]*model.MentorPayableLedger, error)
	FindUnsettledByMentorFn func(ctx context.Context, mentorID string) ([]*model.MentorPayableLedger, error)
	SaveFn                  func(ctx context.Context, payable *model.MentorPayableLedger) error
	MarkSettledFn           func(ctx context.Context, ids []string, settlementID string, at time.Time) error
}

func (f *fakePayableStore) FindByID(ctx context.Context, id string) (*model.MentorPayableLedger, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakePayableStore) FindByReferenceID(ctx context.Context, referenceID string) ([]*model.MentorPayableLedger, error) {
	if f.FindByReferenceIDFn != nil {
		return f.FindByReferenceIDFn(ctx, referenceID)
	}
	return nil, nil
}

func (f *fakePayableStore) FindUnsettledByMentor(ctx context.Context, mentorID string) ([]*model.MentorPayableLedger, error) {
	if f.FindUnsettledByMentorFn != nil {
		return f.FindUnsettledByMentorFn(ctx, mentorID)
	}
	return nil, nil
}

func (f *fakePayableStore) Save(ctx context.Context, payable *model.MentorPayableLedger) error {
	if f.SaveFn != nil {
		return f.SaveFn(ctx, payable)
	}
	return nil
}

func (f *fakePayableStore) MarkSettled(ctx context.Context, ids []string, settlementID string, at time.Time) error {
	if f.MarkSettledFn != nil {
		return f.MarkSettledFn(ctx, ids, settlementID, at)
	}
	return nil
}

type fakeSessionStore struct {
	FindByIDFn           func(ctx context.Context, id string) (*model.Session, error)
	FindByMeetingIDFn    func(ctx context.Context, meetingID string) (*model.Session, error)
	ScheduleMeetingFn    func(ctx context.Context, sessionID string, meeting *model.Meeting) error
	UpdateScheduleFn     func(ctx context.Context, sessionID, meetingID, topic string, startTime time.Time, duration int) error
	MarkCancelledFn      func(ctx context.Context, sessionID, meetingID string) error
	MarkCompletedFn      func(ctx context.Context, sessionID, meetingID string) error
	SetCalendarEventIDFn func(ctx context.Context, sessionID, eventID string) error
}

func (f *fakeSessionStore) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id)
	}
	return nil, ErrSessionNotFound
}

func (f *fakeSessionStore) FindByMeetingID(ctx context.Context, meetingID string) (*model.Session, error) {
	if f.FindByMeetingIDFn != nil {
		return f.FindByMeetingIDFn(ctx, meetingID)
	}
	return nil, ErrSessionNotFound
}

func (f *fakeSessionStore) ScheduleMeeting(ctx context.Context, sessionID string, meeting *model.Meeting) error {
	if f.ScheduleMeetingFn != nil {
		return f.ScheduleMeetingFn(ctx, sessionID, meeting)
	}
	return nil
}

func (f *fakeSessionStore) UpdateSchedule(ctx context.Context, sessionID, meetingID, topic string, startTime time.Time, duration int) error {
	if f.UpdateScheduleFn != nil {
		return f.UpdateScheduleFn(ctx, sessionID, meetingID, topic, startTime, duration)
	}
	return nil
}

func (f *fakeSessionStore) MarkCancelled(ctx context.Context, sessionID, meetingID string) error {
	if f.MarkCancelledFn != nil {
		return f.MarkCancelledFn(ctx, sessionID, meetingID)
	}
	return nil
}

func (f *fakeSessionStore) MarkCompleted(ctx context.Context, sessionID, meetingID string) error {
	if f.MarkCompletedFn != nil {
		return f.MarkCompletedFn(ctx, sessionID, meetingID)
	}
	return nil
}

func (f *fakeSessionStore) SetCalendarEventID(ctx context.Context, sessionID, eventID string) error {
	if f.SetCalendarEventIDFn != nil {
		return f.SetCalendarEventIDFn(ctx, sessionID, eventID)
	}
	return nil
}

type fakeMeetingStore struct {
	GetStatusFn               func(ctx context.Context, meetingID string) (model.MeetingStatus, error)
	UpdateScheduleFn          func(ctx context.Context, meetingID, topic string, startTime time.Time, duration int) error
	MarkCancelledFn           func(ctx context.Context, meetingID string) error
	UpdateStatusByMeetingIDFn func(ctx context.Context, meetingID string, status model.MeetingStatus) (int, error)
}

func (f *fakeMeetingStore) GetStatus(ctx context.Context, meetingID string) (model.MeetingStatus, error) {
	if f.GetStatusFn != nil {
		return f.GetStatusFn(ctx, meetingID)
	}
	return model.MeetingStatusScheduled, nil
}

func (f *fakeMeetingStore) UpdateSchedule(ctx context.Context, meetingID, topic string, startTime time.Time, duration int) error {
	if f.UpdateScheduleFn != nil {
		return f.UpdateScheduleFn(ctx, meetingID, topic, startTime, duration)
	}
	return nil
}

func (f *fakeMeetingStore) MarkCancelled(ctx context.Context, meetingID string) error {
	if f.MarkCancelledFn != nil {
		return f.MarkCancelledFn(ctx, meetingID)
	}
	return nil
}

func (f *fakeMeetingStore) UpdateStatusByMeetingID(ctx context.Context, meetingID string, status model.MeetingStatus) (int, error) {
	if f.UpdateStatusByMeetingIDFn != nil {
		return f.UpdateStatusByMeetingIDFn(ctx, meetingID, status)
	}
	return 1, nil
}

type fakeNotificationStore struct {
	EnqueueFn                        func(ctx context.Context, n *model.QueuedNotification) error
	FindDuePendingFn                 func(ctx context.Context, now time.Time) ([]*model.QueuedNotification, error)
	MarkSentFn                       func(ctx context.Context, id string, at time.Time) error
	MarkFailedFn                     func(ctx context.Context, id string, errMsg string) error
	CancelBySessionIDFn              func(ctx context.Context, sessionID string) (int, error)
	UpdateScheduledTimeBySessionIDFn func(ctx context.Context, sessionID string, delta time.Duration) (int, error)
	DeleteSentBeforeFn               func(ctx context.Context, cutoff time.Time) (int, error)
}

func (f *fakeNotificationStore) Enqueue(ctx context.Context, n *model.QueuedNotification) error {
	if f.EnqueueFn != nil {
		return f.EnqueueFn(ctx, n)
	}
	return nil
}

func (f *fakeNotificationStore) FindDuePending(ctx context.Context, now time.Time) ([]*model.QueuedNotification, error) {
	if f.FindDuePendingFn != nil {
		return f.FindDuePendingFn(ctx, now)
	}
	return nil, nil
}

func (f *fakeNotificationStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	if f.MarkSentFn != nil {
		return f.MarkSentFn(ctx, id, at)
	}
	return nil
}

func (f *fakeNotificationStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	if f.MarkFailedFn != nil {
		return f.MarkFailedFn(ctx, id, errMsg)
	}
	return nil
}

func (f *fakeNotificationStore) CancelBySessionID(ctx context.Context, sessionID string) (int, error) {
	if f.CancelBySessionIDFn != nil {
		return f.CancelBySessionIDFn(ctx, sessionID)
	}
	return 0, nil
}

func (f *fakeNotificationStore) UpdateScheduledTimeBySessionID(ctx context.Context, sessionID string, delta time.Duration) (int, error) {
	if f.UpdateScheduledTimeBySessionIDFn != nil {
		return f.UpdateScheduledTimeBySessionIDFn(ctx, sessionID, delta)
	}
	return 0, nil
}

func (f *fakeNotificationStore) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if f.DeleteSentBeforeFn != nil {
		return f.DeleteSentBeforeFn(ctx, cutoff)
	}
	return 0, nil
}

type fakeProvider struct {
	CreateMeetingFn func(ctx context.Context, req CreateMeetingRequest) (*CreatedMeeting, error)
	UpdateMeetingFn func(ctx context.Context, meetingID string, req UpdateMeetingRequest) error
	CancelMeetingFn func(ctx context.Context, meetingID string) error
}

func (f *fakeProvider) CreateMeeting(ctx context.Context, req CreateMeetingRequest) (*CreatedMeeting, error) {
	if f.CreateMeetingFn != nil {
		return f.CreateMeetingFn(ctx, req)
	}
	return &CreatedMeeting{ID: "meeting-1", MeetingNo: "100", MeetingURL: "https://meet.example/1"}, nil
}

func (f *fakeProvider) UpdateMeeting(ctx context.Context, meetingID string, req UpdateMeetingRequest) error {
	if f.UpdateMeetingFn != nil {
		return f.UpdateMeetingFn(ctx, meetingID, req)
	}
	return nil
}

func (f *fakeProvider) CancelMeeting(ctx context.Context, meetingID string) error {
	if f.CancelMeetingFn != nil {
		return f.CancelMeetingFn(ctx, meetingID)
	}
	return nil
}

type fakeCalendar struct {
	CreateEventFn                     func(ctx context.Context, req CreateEventRequest) (string, error)
	UpdateEventFn                     func(ctx context.Context, eventID string, startTime, endTime time.Time) error
	CancelEventFn                     func(ctx context.Context, eventID string) error
	UpdateSlotWithSessionAndMeetingFn func(ctx context.Context, sessionID, meetingID, meetingURL, otherPartyName string) error
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, req CreateEventRequest) (string, error) {
	if f.CreateEventFn != nil {
		return f.CreateEventFn(ctx, req)
	}
	return "event-1", nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, eventID string, startTime, endTime time.Time) error {
	if f.UpdateEventFn != nil {
		return f.UpdateEventFn(ctx, eventID, startTime, endTime)
	}
	return nil
}

func (f *fakeCalendar) CancelEvent(ctx context.Context, eventID string) error {
	if f.CancelEventFn != nil {
		return f.CancelEventFn(ctx, eventID)
	}
	return nil
}

func (f *fakeCalendar) UpdateSlotWithSessionAndMeeting(ctx context.Context, sessionID, meetingID, meetingURL, otherPartyName string) error {
	if f.UpdateSlotWithSessionAndMeetingFn != nil {
		return f.UpdateSlotWithSessionAndMeetingFn(ctx, sessionID, meetingID, meetingURL, otherPartyName)
	}
	return nil
}

type fakeEmail struct {
	mu     sync.Mutex
	sent   []EmailMessage
	SendFn func(ctx context.Context, msg EmailMessage) error
}

func (f *fakeEmail) SendEmail(ctx context.Context, msg EmailMessage) error {
	if f.SendFn != nil {
		return f.SendFn(ctx, msg)
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeEmail) Sent() []EmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EmailMessage(nil), f.sent...)
}

type fakeDirectory struct {
	ResolveFn func(ctx context.Context, userID string) (*Participant, error)
}

func (f *fakeDirectory) Resolve(ctx context.Context, userID string) (*Participant, error) {
	if f.ResolveFn != nil {
		return f.ResolveFn(ctx, userID)
	}
	return &Participant{ID: userID, DisplayName: "User " + userID, Email: userID + "@example.com"}, nil
}

type fakeReminders struct {
	mu         sync.Mutex
	scheduled  []*model.QueuedNotification
	cancelled  []string
	ScheduleFn func(ctx context.Context, n *model.QueuedNotification) error
	CancelFn   func(ctx context.Context, sessionID string) (int, error)
}

func (f *fakeReminders) Schedule(ctx context.Context, n *model.QueuedNotification) error {
	if f.ScheduleFn != nil {
		return f.ScheduleFn(ctx, n)
	}
	f.mu.Lock()
	f.scheduled = append(f.scheduled, n)
	f.mu.Unlock()
	return nil
}

func (f *fakeReminders) CancelForSession(ctx context.Context, sessionID string) (int, error) {
	if f.CancelFn != nil {
		return f.CancelFn(ctx, sessionID)
	}
	f.mu.Lock()
	f.cancelled = append(f.cancelled, sessionID)
	f.mu.Unlock()
	return 0, nil
}

// capturingPublisher records published events synchronously
type capturingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, event model.Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *capturingPublisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

func (p *capturingPublisher) ByType(t model.EventType) []model.Event {
	var out []model.Event
	for _, e := range p.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
