package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType identifies an event on the bus
type EventType string

const (
	// Session lifecycle events published by the booking command layer
	EventSessionCreated   EventType = "session.created"
	EventSessionUpdated   EventType = "session.updated"
	EventSessionCancelled EventType = "session.cancelled"

	// Provider webhook funneled through the system when a meeting ends
	EventMeetingCompleted EventType = "meeting.lifecycle_completed"

	// Outcome of a provisioning step, consumed by the reaction handler
	EventMeetingOperationResult EventType = "meeting.operation_result"

	// Bridge into the billing/ledger subsystem
	EventServiceSessionCompleted EventType = "service_session.completed"
)

// Event is the envelope published on the bus
type Event struct {
	Type EventType
	Data interface{}
}

// Role identifies a notification audience
type Role string

const (
	RoleStudent   Role = "student"
	RoleMentor    Role = "mentor"
	RoleCounselor Role = "counselor"
)

// MeetingOperation names a provisioning step
type MeetingOperation string

const (
	MeetingOperationCreate MeetingOperation = "create"
	MeetingOperationUpdate MeetingOperation = "update"
	MeetingOperationCancel MeetingOperation = "cancel"
)

// OperationStatus is the outcome carried by a result event
type OperationStatus string

const (
	OperationStatusSuccess OperationStatus = "success"
	OperationStatusFailed  OperationStatus = "failed"
)

// SessionCreatedEvent announces a freshly booked session awaiting a meeting
type SessionCreatedEvent struct {
	SessionID string `json:"session_id"`
}

// SessionUpdatedEvent announces a reschedule of an existing session
type SessionUpdatedEvent struct {
	SessionID string    `json:"session_id"`
	Topic     string    `json:"topic,omitempty"`
	StartTime time.Time `json:"start_time"`
	Duration  int       `json:"duration"` // minutes
}

// SessionCancelledEvent announces a cancelled session
type SessionCancelledEvent struct {
	SessionID string `json:"session_id"`
}

// MeetingLifecycleCompletedEvent arrives from the provider webhook when a
// meeting actually ends, carrying the real elapsed duration.
type MeetingLifecycleCompletedEvent struct {
	MeetingID       string    `json:"meeting_id"`
	DurationSeconds int       `json:"duration_seconds"`
	EndedAt         time.Time `json:"ended_at"`
}

// MeetingOperationResultEvent summarizes the outcome of one provisioning
// step. It decouples "did the side effect succeed" from "who needs to
// know": NotifyRoles is the audience policy for the reaction handler.
type MeetingOperationResultEvent struct {
	SessionID                 string           `json:"session_id"`
	Operation                 MeetingOperation `json:"operation"`
	Status                    OperationStatus  `json:"status"`
	MeetingID                 string           `json:"meeting_id,omitempty"`
	MeetingURL                string           `json:"meeting_url,omitempty"`
	ErrorMessage              string           `json:"error_message,omitempty"`
	NotifyRoles               []Role           `json:"notify_roles"`
	RequireManualIntervention bool             `json:"require_manual_intervention"`
}

// ServiceSessionCompletedEvent registers a billable service delivery for
// downstream consumption/earnings handlers. Hours is the actual elapsed
// duration, not the scheduled one.
type ServiceSessionCompletedEvent struct {
	SessionID   string          `json:"session_id"`
	StudentID   string          `json:"student_id"`
	MentorID    string          `json:"mentor_id"`
	ServiceType string          `json:"service_type"`
	Hours       decimal.Decimal `json:"hours"`
	CompletedAt time.Time       `json:"completed_at"`
}
