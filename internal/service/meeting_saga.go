package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forgo/mentora/api/internal/model"
	"github.com/forgo/mentora/api/pkg/retry"
)

// MeetingProvisioner drives the multi-step workflow that provisions a
// third-party meeting for a booked session, keeps the local session and
// meeting records in step, and announces each outcome as a result event.
//
// Every step follows the same discipline: check local state before acting
// on the provider, wrap the provider call in the bounded retry policy, and
// publish a result event carrying the outcome plus the notify-audience
// policy. A step failure becomes a failed result event; it never escapes
// onto the bus as an error, so one session's failure cannot affect another
// session's in-flight step.
type MeetingProvisioner struct {
	sessions    SessionStore
	meetings    MeetingRecordStore
	provider    MeetingProviderGateway
	calendar    CalendarGateway
	directory   DirectoryService
	bus         Publisher
	retryPolicy retry.Policy
	logger      *slog.Logger
}

// MeetingProvisionerConfig holds dependencies for the provisioner
type MeetingProvisionerConfig struct {
	Sessions    SessionStore
	Meetings    MeetingRecordStore
	Provider    MeetingProviderGateway
	Calendar    CalendarGateway
	Directory   DirectoryService
	Bus         Publisher
	RetryPolicy retry.Policy
	Logger      *slog.Logger
}

// NewMeetingProvisioner creates a new meeting provisioner
func NewMeetingProvisioner(cfg MeetingProvisionerConfig) *MeetingProvisioner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.RetryPolicy
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy
	}
	return &MeetingProvisioner{
		sessions:    cfg.Sessions,
		meetings:    cfg.Meetings,
		provider:    cfg.Provider,
		calendar:    cfg.Calendar,
		directory:   cfg.Directory,
		bus:         cfg.Bus,
		retryPolicy: policy,
		logger:      logger,
	}
}

// Register subscribes all saga handlers on the bus
func (p *MeetingProvisioner) Register(bus *EventBus) {
	bus.Subscribe(model.EventSessionCreated, p.HandleSessionCreated)
	bus.Subscribe(model.EventSessionUpdated, p.HandleSessionUpdated)
	bus.Subscribe(model.EventSessionCancelled, p.HandleSessionCancelled)
	bus.Subscribe(model.EventMeetingCompleted, p.HandleMeetingCompleted)
}

// HandleSessionCreated provisions a provider meeting for a new session:
// create the meeting externally, then commit the session transition and
// meeting record together, then announce the result. No compensating
// rollback of upstream calendar holds happens here; the booking flow owns
// those.
func (p *MeetingProvisioner) HandleSessionCreated(ctx context.Context, event model.Event) error {
	data, ok := event.Data.(model.SessionCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", event.Type, event.Data)
	}

	session, err := p.sessions.FindByID(ctx, data.SessionID)
	if err != nil {
		p.publishFailure(ctx, data.SessionID, model.MeetingOperationCreate, fmt.Sprintf("session lookup failed: %v", err))
		return nil
	}

	created, err := retry.Do(ctx, func(ctx context.Context) (*CreatedMeeting, error) {
		return p.provider.CreateMeeting(ctx, CreateMeetingRequest{
			Topic:                session.Topic,
			Provider:             session.Provider,
			StartTime:            session.StartTime.Format(time.RFC3339),
			Duration:             session.Duration,
			HostUserID:           session.MentorID,
			AutoRecord:           true,
			ParticipantJoinEarly: true,
		})
	}, p.retryPolicy, p.logger)
	if err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationCreate, fmt.Sprintf("provider create failed: %v", err))
		return nil
	}

	mentor, err := p.directory.Resolve(ctx, session.MentorID)
	if err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationCreate, fmt.Sprintf("mentor lookup failed: %v", err))
		return nil
	}

	meeting := &model.Meeting{
		ID:                session.ID,
		ProviderMeetingID: created.ID,
		MeetingNo:         created.MeetingNo,
		Status:            model.MeetingStatusScheduled,
		Topic:             session.Topic,
		ScheduleStartTime: session.StartTime,
		ScheduleDuration:  session.Duration,
		JoinURL:           created.MeetingURL,
	}
	if err := p.sessions.ScheduleMeeting(ctx, session.ID, meeting); err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationCreate, fmt.Sprintf("local schedule failed: %v", err))
		return nil
	}

	if err := p.calendar.UpdateSlotWithSessionAndMeeting(ctx, session.ID, created.ID, created.MeetingURL, mentor.DisplayName); err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationCreate, fmt.Sprintf("calendar slot update failed: %v", err))
		return nil
	}

	p.publishResult(ctx, model.MeetingOperationResultEvent{
		SessionID:   session.ID,
		Operation:   model.MeetingOperationCreate,
		Status:      model.OperationStatusSuccess,
		MeetingID:   created.ID,
		MeetingURL:  created.MeetingURL,
		NotifyRoles: []model.Role{model.RoleStudent, model.RoleMentor, model.RoleCounselor},
	})
	return nil
}

// HandleSessionUpdated reschedules the provider meeting for a session.
// The local state check comes first: a cancelled or ended meeting is never
// touched at the provider, and the precondition failure folds into the
// same failed-result path as a provider error.
func (p *MeetingProvisioner) HandleSessionUpdated(ctx context.Context, event model.Event) error {
	data, ok := event.Data.(model.SessionUpdatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", event.Type, event.Data)
	}

	session, err := p.sessions.FindByID(ctx, data.SessionID)
	if err != nil {
		p.publishFailure(ctx, data.SessionID, model.MeetingOperationUpdate, fmt.Sprintf("session lookup failed: %v", err))
		return nil
	}
	if session.MeetingID == "" {
		p.publishFailure(ctx, session.ID, model.MeetingOperationUpdate, "session has no meeting to update")
		return nil
	}

	status, err := p.meetings.GetStatus(ctx, session.MeetingID)
	if err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationUpdate, fmt.Sprintf("meeting status lookup failed: %v", err))
		return nil
	}
	if !status.IsUpdatable() {
		p.logger.Warn("meeting not updatable, skipping provider call",
			slog.String("session_id", session.ID),
			slog.String("meeting_id", session.MeetingID),
			slog.String("status", string(status)),
		)
		p.publishFailure(ctx, session.ID, model.MeetingOperationUpdate,
			fmt.Sprintf("meeting %s is %s and cannot be updated", session.MeetingID, status))
		return nil
	}

	err = retry.DoVoid(ctx, func(ctx context.Context) error {
		return p.provider.UpdateMeeting(ctx, session.MeetingID, UpdateMeetingRequest{
			Topic:     data.Topic,
			StartTime: data.StartTime.Format(time.RFC3339),
			Duration:  data.Duration,
		})
	}, p.retryPolicy, p.logger)
	if err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationUpdate, fmt.Sprintf("provider update failed: %v", err))
		return nil
	}

	if err := p.sessions.UpdateSchedule(ctx, session.ID, session.MeetingID, data.Topic, data.StartTime, data.Duration); err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationUpdate, fmt.Sprintf("local schedule update failed: %v", err))
		return nil
	}

	p.publishResult(ctx, model.MeetingOperationResultEvent{
		SessionID:   session.ID,
		Operation:   model.MeetingOperationUpdate,
		Status:      model.OperationStatusSuccess,
		MeetingID:   session.MeetingID,
		NotifyRoles: []model.Role{model.RoleMentor, model.RoleCounselor},
	})
	return nil
}

// HandleSessionCancelled cancels the provider meeting for a session. A
// session that never acquired a meeting is a success-no-op: nothing exists
// externally, but the result event still goes out so downstream calendar
// and reminder cleanup runs uniformly.
func (p *MeetingProvisioner) HandleSessionCancelled(ctx context.Context, event model.Event) error {
	data, ok := event.Data.(model.SessionCancelledEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", event.Type, event.Data)
	}

	session, err := p.sessions.FindByID(ctx, data.SessionID)
	if err != nil {
		p.publishFailure(ctx, data.SessionID, model.MeetingOperationCancel, fmt.Sprintf("session lookup failed: %v", err))
		return nil
	}

	if session.MeetingID == "" {
		if err := p.sessions.MarkCancelled(ctx, session.ID, ""); err != nil {
			p.publishFailure(ctx, session.ID, model.MeetingOperationCancel, fmt.Sprintf("local cancel failed: %v", err))
			return nil
		}
		p.publishResult(ctx, model.MeetingOperationResultEvent{
			SessionID:   session.ID,
			Operation:   model.MeetingOperationCancel,
			Status:      model.OperationStatusSuccess,
			NotifyRoles: []model.Role{model.RoleMentor, model.RoleCounselor},
		})
		return nil
	}

	status, err := p.meetings.GetStatus(ctx, session.MeetingID)
	if err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationCancel, fmt.Sprintf("meeting status lookup failed: %v", err))
		return nil
	}
	if !status.IsCancellable() {
		p.logger.Warn("meeting not cancellable, skipping provider call",
			slog.String("session_id", session.ID),
			slog.String("meeting_id", session.MeetingID),
			slog.String("status", string(status)),
		)
		p.publishFailure(ctx, session.ID, model.MeetingOperationCancel,
			fmt.Sprintf("meeting %s is %s and cannot be cancelled", session.MeetingID, status))
		return nil
	}

	err = retry.DoVoid(ctx, func(ctx context.Context) error {
		return p.provider.CancelMeeting(ctx, session.MeetingID)
	}, p.retryPolicy, p.logger)
	if err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationCancel, fmt.Sprintf("provider cancel failed: %v", err))
		return nil
	}

	if err := p.sessions.MarkCancelled(ctx, session.ID, session.MeetingID); err != nil {
		p.publishFailure(ctx, session.ID, model.MeetingOperationCancel, fmt.Sprintf("local cancel failed: %v", err))
		return nil
	}

	p.publishResult(ctx, model.MeetingOperationResultEvent{
		SessionID:   session.ID,
		Operation:   model.MeetingOperationCancel,
		Status:      model.OperationStatusSuccess,
		MeetingID:   session.MeetingID,
		NotifyRoles: []model.Role{model.RoleMentor, model.RoleCounselor},
	})
	return nil
}

// HandleMeetingCompleted bridges the workflow into the billing subsystem
// when the provider reports a meeting ended: the session completes, the
// meeting record ends, and a completion event with the actual elapsed
// hours goes out for the consumption and earnings handlers.
func (p *MeetingProvisioner) HandleMeetingCompleted(ctx context.Context, event model.Event) error {
	data, ok := event.Data.(model.MeetingLifecycleCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", event.Type, event.Data)
	}

	session, err := p.sessions.FindByMeetingID(ctx, data.MeetingID)
	if err != nil {
		// The meeting may belong to a different session type entirely.
		p.logger.Info("completed meeting has no session here",
			slog.String("meeting_id", data.MeetingID),
		)
		return nil
	}

	if err := p.sessions.MarkCompleted(ctx, session.ID, data.MeetingID); err != nil {
		return fmt.Errorf("completing session %s: %w", session.ID, err)
	}

	hours := decimal.NewFromInt(int64(data.DurationSeconds)).Div(decimal.NewFromInt(3600))

	if err := p.bus.Publish(ctx, model.Event{
		Type: model.EventServiceSessionCompleted,
		Data: model.ServiceSessionCompletedEvent{
			SessionID:   session.ID,
			StudentID:   session.StudentID,
			MentorID:    session.MentorID,
			ServiceType: session.ServiceType,
			Hours:       hours,
			CompletedAt: data.EndedAt,
		},
	}); err != nil {
		p.logger.Error("publishing session completion",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// publishFailure emits a failed result event. Failures always route to the
// counselor and flag manual intervention.
func (p *MeetingProvisioner) publishFailure(ctx context.Context, sessionID string, op model.MeetingOperation, errMsg string) {
	p.logger.Error("meeting operation failed",
		slog.String("session_id", sessionID),
		slog.String("operation", string(op)),
		slog.String("error", errMsg),
	)
	p.publishResult(ctx, model.MeetingOperationResultEvent{
		SessionID:                 sessionID,
		Operation:                 op,
		Status:                    model.OperationStatusFailed,
		ErrorMessage:              errMsg,
		NotifyRoles:               []model.Role{model.RoleCounselor},
		RequireManualIntervention: true,
	})
}

func (p *MeetingProvisioner) publishResult(ctx context.Context, result model.MeetingOperationResultEvent) {
	if err := p.bus.Publish(ctx, model.Event{
		Type: model.EventMeetingOperationResult,
		Data: result,
	}); err != nil {
		p.logger.Error("publishing operation result",
			slog.String("session_id", result.SessionID),
			slog.String("error", err.Error()),
		)
	}
}
