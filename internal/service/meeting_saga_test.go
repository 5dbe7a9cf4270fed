package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/mentora/api/internal/model"
	"github.com/forgo/mentora/api/pkg/retry"
)

var testPolicy = retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond}

func testSession() *model.Session {
	return &model.Session{
		ID:          "session-1",
		StudentID:   "student-1",
		MentorID:    "mentor-1",
		CounselorID: "counselor-1",
		ServiceType: "mock_interview",
		Topic:       "System design practice",
		StartTime:   time.Now().Add(48 * time.Hour),
		Duration:    60,
		Provider:    "feishu",
		Status:      model.SessionStatusPendingMeeting,
	}
}

func newProvisioner(cfg MeetingProvisionerConfig) *MeetingProvisioner {
	if cfg.Sessions == nil {
		cfg.Sessions = &fakeSessionStore{}
	}
	if cfg.Meetings == nil {
		cfg.Meetings = &fakeMeetingStore{}
	}
	if cfg.Provider == nil {
		cfg.Provider = &fakeProvider{}
	}
	if cfg.Calendar == nil {
		cfg.Calendar = &fakeCalendar{}
	}
	if cfg.Directory == nil {
		cfg.Directory = &fakeDirectory{}
	}
	cfg.RetryPolicy = testPolicy
	return NewMeetingProvisioner(cfg)
}

func TestCreateMeetingSuccess(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	var scheduled *model.Meeting
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return testSession(), nil
		},
		ScheduleMeetingFn: func(ctx context.Context, sessionID string, meeting *model.Meeting) error {
			scheduled = meeting
			return nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Bus: pub})

	err := p.HandleSessionCreated(ctx, model.Event{
		Type: model.EventSessionCreated,
		Data: model.SessionCreatedEvent{SessionID: "session-1"},
	})
	require.NoError(t, err)

	require.NotNil(t, scheduled)
	assert.Equal(t, "meeting-1", scheduled.ProviderMeetingID)
	assert.Equal(t, model.MeetingStatusScheduled, scheduled.Status)

	results := pub.ByType(model.EventMeetingOperationResult)
	require.Len(t, results, 1)
	result := results[0].Data.(model.MeetingOperationResultEvent)
	assert.Equal(t, model.OperationStatusSuccess, result.Status)
	assert.Equal(t, model.MeetingOperationCreate, result.Operation)
	assert.Equal(t, "meeting-1", result.MeetingID)
	assert.Equal(t, "https://meet.example/1", result.MeetingURL)
	assert.False(t, result.RequireManualIntervention)
	assert.ElementsMatch(t, []model.Role{model.RoleStudent, model.RoleMentor, model.RoleCounselor}, result.NotifyRoles)
}

func TestCreateMeetingProviderFailureExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	attempts := 0
	provider := &fakeProvider{
		CreateMeetingFn: func(ctx context.Context, req CreateMeetingRequest) (*CreatedMeeting, error) {
			attempts++
			return nil, errors.New("provider unavailable")
		},
	}
	scheduleCalled := false
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return testSession(), nil
		},
		ScheduleMeetingFn: func(ctx context.Context, sessionID string, meeting *model.Meeting) error {
			scheduleCalled = true
			return nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Provider: provider, Bus: pub})

	err := p.HandleSessionCreated(ctx, model.Event{
		Type: model.EventSessionCreated,
		Data: model.SessionCreatedEvent{SessionID: "session-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.False(t, scheduleCalled, "local state must not change when provisioning failed")

	results := pub.ByType(model.EventMeetingOperationResult)
	require.Len(t, results, 1)
	result := results[0].Data.(model.MeetingOperationResultEvent)
	assert.Equal(t, model.OperationStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "provider unavailable")
	assert.True(t, result.RequireManualIntervention)
	assert.Equal(t, []model.Role{model.RoleCounselor}, result.NotifyRoles)
}

func TestUpdateMeetingGatedOnLocalStatus(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	session := testSession()
	session.MeetingID = "meeting-1"
	providerCalled := false
	provider := &fakeProvider{
		UpdateMeetingFn: func(ctx context.Context, meetingID string, req UpdateMeetingRequest) error {
			providerCalled = true
			return nil
		},
	}
	meetings := &fakeMeetingStore{
		GetStatusFn: func(ctx context.Context, meetingID string) (model.MeetingStatus, error) {
			return model.MeetingStatusCancelled, nil
		},
	}
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return session, nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Meetings: meetings, Provider: provider, Bus: pub})

	err := p.HandleSessionUpdated(ctx, model.Event{
		Type: model.EventSessionUpdated,
		Data: model.SessionUpdatedEvent{SessionID: "session-1", StartTime: session.StartTime, Duration: 30},
	})
	require.NoError(t, err)

	assert.False(t, providerCalled, "a cancelled meeting must never reach the provider")
	results := pub.ByType(model.EventMeetingOperationResult)
	require.Len(t, results, 1)
	result := results[0].Data.(model.MeetingOperationResultEvent)
	assert.Equal(t, model.OperationStatusFailed, result.Status)
	assert.Equal(t, model.MeetingOperationUpdate, result.Operation)
}

func TestUpdateMeetingSuccess(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	session := testSession()
	session.MeetingID = "meeting-1"
	newStart := session.StartTime.Add(24 * time.Hour)
	var gotUpdate UpdateMeetingRequest
	provider := &fakeProvider{
		UpdateMeetingFn: func(ctx context.Context, meetingID string, req UpdateMeetingRequest) error {
			gotUpdate = req
			return nil
		},
	}
	updated := false
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return session, nil
		},
		UpdateScheduleFn: func(ctx context.Context, sessionID, meetingID, topic string, startTime time.Time, duration int) error {
			updated = true
			assert.Equal(t, newStart, startTime)
			assert.Equal(t, 90, duration)
			return nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Provider: provider, Bus: pub})

	err := p.HandleSessionUpdated(ctx, model.Event{
		Type: model.EventSessionUpdated,
		Data: model.SessionUpdatedEvent{SessionID: "session-1", Topic: "Moved session", StartTime: newStart, Duration: 90},
	})
	require.NoError(t, err)

	assert.True(t, updated)
	assert.Equal(t, newStart.Format(time.RFC3339), gotUpdate.StartTime)

	results := pub.ByType(model.EventMeetingOperationResult)
	require.Len(t, results, 1)
	result := results[0].Data.(model.MeetingOperationResultEvent)
	assert.Equal(t, model.OperationStatusSuccess, result.Status)
	assert.ElementsMatch(t, []model.Role{model.RoleMentor, model.RoleCounselor}, result.NotifyRoles)
}

func TestCancelSessionWithoutMeetingIsSuccessNoOp(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	providerCalled := false
	provider := &fakeProvider{
		CancelMeetingFn: func(ctx context.Context, meetingID string) error {
			providerCalled = true
			return nil
		},
	}
	var cancelledMeetingID string
	cancelled := false
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return testSession(), nil
		},
		MarkCancelledFn: func(ctx context.Context, sessionID, meetingID string) error {
			cancelled = true
			cancelledMeetingID = meetingID
			return nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Provider: provider, Bus: pub})

	err := p.HandleSessionCancelled(ctx, model.Event{
		Type: model.EventSessionCancelled,
		Data: model.SessionCancelledEvent{SessionID: "session-1"},
	})
	require.NoError(t, err)

	assert.False(t, providerCalled)
	assert.True(t, cancelled)
	assert.Empty(t, cancelledMeetingID)

	results := pub.ByType(model.EventMeetingOperationResult)
	require.Len(t, results, 1)
	result := results[0].Data.(model.MeetingOperationResultEvent)
	assert.Equal(t, model.OperationStatusSuccess, result.Status)
	assert.Equal(t, model.MeetingOperationCancel, result.Operation)
}

func TestCancelMeetingSuccess(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	session := testSession()
	session.MeetingID = "meeting-1"
	var cancelledAtProvider string
	provider := &fakeProvider{
		CancelMeetingFn: func(ctx context.Context, meetingID string) error {
			cancelledAtProvider = meetingID
			return nil
		},
	}
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return session, nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Provider: provider, Bus: pub})

	err := p.HandleSessionCancelled(ctx, model.Event{
		Type: model.EventSessionCancelled,
		Data: model.SessionCancelledEvent{SessionID: "session-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "meeting-1", cancelledAtProvider)
	results := pub.ByType(model.EventMeetingOperationResult)
	require.Len(t, results, 1)
	assert.Equal(t, model.OperationStatusSuccess, results[0].Data.(model.MeetingOperationResultEvent).Status)
}

func TestCancelMeetingGatedOnLocalStatus(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	session := testSession()
	session.MeetingID = "meeting-1"
	providerCalled := false
	provider := &fakeProvider{
		CancelMeetingFn: func(ctx context.Context, meetingID string) error {
			providerCalled = true
			return nil
		},
	}
	meetings := &fakeMeetingStore{
		GetStatusFn: func(ctx context.Context, meetingID string) (model.MeetingStatus, error) {
			return model.MeetingStatusEnded, nil
		},
	}
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return session, nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Meetings: meetings, Provider: provider, Bus: pub})

	err := p.HandleSessionCancelled(ctx, model.Event{
		Type: model.EventSessionCancelled,
		Data: model.SessionCancelledEvent{SessionID: "session-1"},
	})
	require.NoError(t, err)

	assert.False(t, providerCalled)
	results := pub.ByType(model.EventMeetingOperationResult)
	require.Len(t, results, 1)
	assert.Equal(t, model.OperationStatusFailed, results[0].Data.(model.MeetingOperationResultEvent).Status)
}

func TestMeetingCompletedBridgesToBilling(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	session := testSession()
	session.MeetingID = "meeting-1"
	completed := false
	sessions := &fakeSessionStore{
		FindByMeetingIDFn: func(ctx context.Context, meetingID string) (*model.Session, error) {
			return session, nil
		},
		MarkCompletedFn: func(ctx context.Context, sessionID, meetingID string) error {
			completed = true
			return nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Bus: pub})

	endedAt := time.Now()
	err := p.HandleMeetingCompleted(ctx, model.Event{
		Type: model.EventMeetingCompleted,
		Data: model.MeetingLifecycleCompletedEvent{MeetingID: "meeting-1", DurationSeconds: 5400, EndedAt: endedAt},
	})
	require.NoError(t, err)
	assert.True(t, completed)

	events := pub.ByType(model.EventServiceSessionCompleted)
	require.Len(t, events, 1)
	data := events[0].Data.(model.ServiceSessionCompletedEvent)
	assert.Equal(t, "session-1", data.SessionID)
	assert.Equal(t, "mentor-1", data.MentorID)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(data.Hours), "5400 seconds is 1.5 hours, got %s", data.Hours)
	assert.Equal(t, endedAt, data.CompletedAt)
}

func TestMeetingCompletedUnknownMeetingIsNoOp(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: &fakeSessionStore{}, Bus: pub})

	err := p.HandleMeetingCompleted(ctx, model.Event{
		Type: model.EventMeetingCompleted,
		Data: model.MeetingLifecycleCompletedEvent{MeetingID: "someone-elses-meeting", DurationSeconds: 600},
	})
	require.NoError(t, err)
	assert.Empty(t, pub.Events())
}

func TestSagaFailureDoesNotAffectOtherSessions(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	provider := &fakeProvider{
		CreateMeetingFn: func(ctx context.Context, req CreateMeetingRequest) (*CreatedMeeting, error) {
			if req.Topic == "failing" {
				return nil, errors.New("provider unavailable")
			}
			return &CreatedMeeting{ID: "meeting-ok", MeetingURL: "https://meet.example/ok"}, nil
		},
	}
	sessions := &fakeSessionStore{
		FindByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			s := testSession()
			s.ID = id
			if id == "session-bad" {
				s.Topic = "failing"
			}
			return s, nil
		},
	}
	p := newProvisioner(MeetingProvisionerConfig{Sessions: sessions, Provider: provider, Bus: pub})

	for _, id := range []string{"session-bad", "session-good"} {
		err := p.HandleSessionCreated(ctx, model.Event{
			Type: model.EventSessionCreated,
			Data: model.SessionCreatedEvent{SessionID: id},
		})
		require.NoError(t, err)
	}

	results := pub.ByType(model.EventMeetingOperationResult)
	require.Len(t, results, 2)
	byID := map[string]model.MeetingOperationResultEvent{}
	for _, e := range results {
		r := e.Data.(model.MeetingOperationResultEvent)
		byID[r.SessionID] = r
	}
	assert.Equal(t, model.OperationStatusFailed, byID["session-bad"].Status)
	assert.Equal(t, model.OperationStatusSuccess, byID["session-good"].Status)
}
