package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/forgo/mentora/api/internal/service"
)

// FeishuCalendarGateway manages calendar events and booking slots on the
// Feishu calendar API. Implements service.CalendarGateway.
type FeishuCalendarGateway struct {
	client     *FeishuClient
	calendarID string
}

// NewFeishuCalendarGateway creates a new calendar gateway
func NewFeishuCalendarGateway(client *FeishuClient, calendarID string) *FeishuCalendarGateway {
	return &FeishuCalendarGateway{client: client, calendarID: calendarID}
}

type calendarTime struct {
	Timestamp string `json:"timestamp"`
}

type calendarEventRequest struct {
	Summary     string       `json:"summary"`
	Description string       `json:"description,omitempty"`
	StartTime   calendarTime `json:"start_time"`
	EndTime     calendarTime `json:"end_time"`
}

type calendarEventData struct {
	Event struct {
		EventID string `json:"event_id"`
	} `json:"event"`
}

type attendeeRequest struct {
	Attendees []attendee `json:"attendees"`
}

type attendee struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id,omitempty"`
	ThirdParty struct {
		Email string `json:"email,omitempty"`
	} `json:"third_party_email,omitempty"`
	IsOptional bool `json:"is_optional"`
}

// CreateEvent creates a calendar event and invites the attendees
func (g *FeishuCalendarGateway) CreateEvent(ctx context.Context, req service.CreateEventRequest) (string, error) {
	base := fmt.Sprintf("/open-apis/calendar/v4/calendars/%s/events", url.PathEscape(g.calendarID))

	var data calendarEventData
	err := g.client.doJSON(ctx, http.MethodPost, base, calendarEventRequest{
		Summary:     req.Summary,
		Description: req.Description,
		StartTime:   calendarTime{Timestamp: fmt.Sprintf("%d", req.StartTime.Unix())},
		EndTime:     calendarTime{Timestamp: fmt.Sprintf("%d", req.EndTime.Unix())},
	}, &data)
	if err != nil {
		return "", err
	}
	eventID := data.Event.EventID

	if len(req.Attendees) > 0 {
		invite := attendeeRequest{}
		for _, a := range req.Attendees {
			att := attendee{Type: "third_party", IsOptional: a.IsOptional}
			att.ThirdParty.Email = a.Email
			invite.Attendees = append(invite.Attendees, att)
		}
		path := fmt.Sprintf("%s/%s/attendees", base, url.PathEscape(eventID))
		if err := g.client.doJSON(ctx, http.MethodPost, path, invite, nil); err != nil {
			return "", fmt.Errorf("inviting attendees to event %s: %w", eventID, err)
		}
	}

	return eventID, nil
}

// UpdateEvent moves an event to a new time window
func (g *FeishuCalendarGateway) UpdateEvent(ctx context.Context, eventID string, startTime, endTime time.Time) error {
	path := fmt.Sprintf("/open-apis/calendar/v4/calendars/%s/events/%s",
		url.PathEscape(g.calendarID), url.PathEscape(eventID))
	return g.client.doJSON(ctx, http.MethodPatch, path, calendarEventRequest{
		StartTime: calendarTime{Timestamp: fmt.Sprintf("%d", startTime.Unix())},
		EndTime:   calendarTime{Timestamp: fmt.Sprintf("%d", endTime.Unix())},
	}, nil)
}

// CancelEvent deletes an event
func (g *FeishuCalendarGateway) CancelEvent(ctx context.Context, eventID string) error {
	path := fmt.Sprintf("/open-apis/calendar/v4/calendars/%s/events/%s",
		url.PathEscape(g.calendarID), url.PathEscape(eventID))
	return g.client.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

type slotUpdateRequest struct {
	SessionID      string `json:"session_id"`
	MeetingID      string `json:"meeting_id"`
	MeetingURL     string `json:"meeting_url"`
	OtherPartyName string `json:"other_party_name"`
}

// UpdateSlotWithSessionAndMeeting annotates the booked slot with the
// provisioned meeting so participants see the join link in their calendar
func (g *FeishuCalendarGateway) UpdateSlotWithSessionAndMeeting(ctx context.Context, sessionID, meetingID, meetingURL, otherPartyName string) error {
	path := fmt.Sprintf("/open-apis/calendar/v4/calendars/%s/slots/%s",
		url.PathEscape(g.calendarID), url.PathEscape(sessionID))
	return g.client.doJSON(ctx, http.MethodPatch, path, slotUpdateRequest{
		SessionID:      sessionID,
		MeetingID:      meetingID,
		MeetingURL:     meetingURL,
		OtherPartyName: otherPartyName,
	}, nil)
}
