package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/forgo/mentora/api/internal/service"
)

// FeishuMeetingGateway provisions video meetings through the Feishu
// reservation API. Implements service.MeetingProviderGateway.
type FeishuMeetingGateway struct {
	client *FeishuClient
}

// NewFeishuMeetingGateway creates a new meeting gateway
func NewFeishuMeetingGateway(client *FeishuClient) *FeishuMeetingGateway {
	return &FeishuMeetingGateway{client: client}
}

type reserveRequest struct {
	EndTime         string          `json:"end_time"`
	MeetingSettings meetingSettings `json:"meeting_settings"`
}

type meetingSettings struct {
	Topic           string `json:"topic"`
	AutoRecord      bool   `json:"auto_record"`
	AllowEarlyEntry bool   `json:"allow_early_entry"`
	OwnerID         string `json:"owner_id,omitempty"`
}

type reserveData struct {
	Reserve struct {
		ID        string `json:"id"`
		MeetingNo string `json:"meeting_no"`
		URL       string `json:"url"`
	} `json:"reserve"`
}

// CreateMeeting reserves a meeting at the provider
func (g *FeishuMeetingGateway) CreateMeeting(ctx context.Context, req service.CreateMeetingRequest) (*service.CreatedMeeting, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: %w", req.StartTime, err)
	}
	end := start.Add(time.Duration(req.Duration) * time.Minute)

	var data reserveData
	err = g.client.doJSON(ctx, http.MethodPost, "/open-apis/vc/v1/reserves/apply?user_id_type=user_id", reserveRequest{
		EndTime: fmt.Sprintf("%d", end.Unix()),
		MeetingSettings: meetingSettings{
			Topic:           req.Topic,
			AutoRecord:      req.AutoRecord,
			AllowEarlyEntry: req.ParticipantJoinEarly,
			OwnerID:         req.HostUserID,
		},
	}, &data)
	if err != nil {
		return nil, err
	}

	return &service.CreatedMeeting{
		ID:         data.Reserve.ID,
		MeetingNo:  data.Reserve.MeetingNo,
		MeetingURL: data.Reserve.URL,
	}, nil
}

// UpdateMeeting reschedules an existing reservation
func (g *FeishuMeetingGateway) UpdateMeeting(ctx context.Context, meetingID string, req service.UpdateMeetingRequest) error {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start time %q: %w", req.StartTime, err)
	}
	end := start.Add(time.Duration(req.Duration) * time.Minute)

	path := fmt.Sprintf("/open-apis/vc/v1/reserves/%s", url.PathEscape(meetingID))
	return g.client.doJSON(ctx, http.MethodPut, path, reserveRequest{
		EndTime: fmt.Sprintf("%d", end.Unix()),
		MeetingSettings: meetingSettings{
			Topic: req.Topic,
		},
	}, nil)
}

// CancelMeeting deletes a reservation
func (g *FeishuMeetingGateway) CancelMeeting(ctx context.Context, meetingID string) error {
	path := fmt.Sprintf("/open-apis/vc/v1/reserves/%s", url.PathEscape(meetingID))
	return g.client.doJSON(ctx, http.MethodDelete, path, nil, nil)
}
