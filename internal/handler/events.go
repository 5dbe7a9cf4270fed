package handler

import (
	"net/http"
	"time"

	"github.com/forgo/mentora/api/internal/model"
	"github.com/forgo/mentora/api/internal/service"
)

// SessionEventsHandler is the intake for session lifecycle notifications
// from the booking command layer and the meeting provider webhook. Each
// accepted request becomes an event on the bus; provisioning happens
// asynchronously, so these endpoints return 202.
type SessionEventsHandler struct {
	bus service.Publisher
}

// NewSessionEventsHandler creates a new session events handler
func NewSessionEventsHandler(bus service.Publisher) *SessionEventsHandler {
	return &SessionEventsHandler{bus: bus}
}

type sessionUpdatedRequest struct {
	Topic     string    `json:"topic,omitempty"`
	StartTime time.Time `json:"start_time"`
	Duration  int       `json:"duration"`
}

// SessionCreated handles POST /v1/sessions/{sessionId}/events/created
func (h *SessionEventsHandler) SessionCreated(w http.ResponseWriter, r *http.Request) {
	err := h.bus.Publish(r.Context(), model.Event{
		Type: model.EventSessionCreated,
		Data: model.SessionCreatedEvent{SessionID: r.PathValue("sessionId")},
	})
	if err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// SessionUpdated handles POST /v1/sessions/{sessionId}/events/updated
func (h *SessionEventsHandler) SessionUpdated(w http.ResponseWriter, r *http.Request) {
	var req sessionUpdatedRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.StartTime.IsZero() || req.Duration <= 0 {
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "start_time", Message: "must be set"},
			{Field: "duration", Message: "must be positive"},
		}))
		return
	}

	err := h.bus.Publish(r.Context(), model.Event{
		Type: model.EventSessionUpdated,
		Data: model.SessionUpdatedEvent{
			SessionID: r.PathValue("sessionId"),
			Topic:     req.Topic,
			StartTime: req.StartTime,
			Duration:  req.Duration,
		},
	})
	if err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// SessionCancelled handles POST /v1/sessions/{sessionId}/events/cancelled
func (h *SessionEventsHandler) SessionCancelled(w http.ResponseWriter, r *http.Request) {
	err := h.bus.Publish(r.Context(), model.Event{
		Type: model.EventSessionCancelled,
		Data: model.SessionCancelledEvent{SessionID: r.PathValue("sessionId")},
	})
	if err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type meetingEndedWebhook struct {
	MeetingID       string    `json:"meeting_id"`
	DurationSeconds int       `json:"duration_seconds"`
	EndedAt         time.Time `json:"ended_at"`
}

// MeetingEnded handles POST /v1/webhooks/meetings/ended, the provider's
// lifecycle callback when a meeting finishes
func (h *SessionEventsHandler) MeetingEnded(w http.ResponseWriter, r *http.Request) {
	var req meetingEndedWebhook
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.MeetingID == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "meeting_id", Message: "must not be empty"}}))
		return
	}
	if req.EndedAt.IsZero() {
		req.EndedAt = time.Now()
	}

	err := h.bus.Publish(r.Context(), model.Event{
		Type: model.EventMeetingCompleted,
		Data: model.MeetingLifecycleCompletedEvent{
			MeetingID:       req.MeetingID,
			DurationSeconds: req.DurationSeconds,
			EndedAt:         req.EndedAt,
		},
	})
	if err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
