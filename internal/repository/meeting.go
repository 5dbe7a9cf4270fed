package repository

import (
	"context"
	"time"

	"github.com/forgo/mentora/api/internal/database"
	"github.com/forgo/mentora/api/internal/model"
)

// MeetingRepository is the narrow store the provisioning workflow uses to
// read and mutate local meeting records, keyed by the provider's meeting id.
type MeetingRepository struct {
	db database.Database
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db database.Database) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// GetStatus returns the persisted status for a provider meeting
func (r *MeetingRepository) GetStatus(ctx context.Context, meetingID string) (model.MeetingStatus, error) {
	query := `SELECT status FROM meeting WHERE provider_meeting_id = $meeting_id LIMIT 1`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"meeting_id": meetingID})
	if err != nil {
		return "", err
	}
	row := firstRow(result)
	if row == nil {
		return "", database.ErrNotFound
	}
	return model.MeetingStatus(getString(row, "status")), nil
}

// Find returns the full local meeting record
func (r *MeetingRepository) Find(ctx context.Context, meetingID string) (*model.Meeting, error) {
	query := `SELECT * FROM meeting WHERE provider_meeting_id = $meeting_id LIMIT 1`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"meeting_id": meetingID})
	if err != nil {
		return nil, err
	}
	row := firstRow(result)
	if row == nil {
		return nil, database.ErrNotFound
	}
	return rowToMeeting(row), nil
}

// UpdateSchedule writes a new topic and time window onto the meeting record
func (r *MeetingRepository) UpdateSchedule(ctx context.Context, meetingID, topic string, startTime time.Time, duration int) error {
	return r.db.Execute(ctx, `
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
}

// MarkCancelled moves the meeting record to cancelled
func (r *MeetingRepository) MarkCancelled(ctx context.Context, meetingID string) error {
	_, err := r.UpdateStatusByMeetingID(ctx, meetingID, model.MeetingStatusCancelled)
	return err
}

// UpdateStatusByMeetingID sets the status for a provider meeting and
// returns the number of records touched
func (r *MeetingRepository) UpdateStatusByMeetingID(ctx context.Context, meetingID string, status model.MeetingStatus) (int, error) {
	query := `
		UPDATE meeting SET
			status = $status,
			updated_at = time::now()
		WHERE provider_meeting_id = $meeting_id
		RETURN AFTER
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{
		"meeting_id": meetingID,
		"status":     string(status),
	})
	if err != nil {
		return 0, err
	}
	return len(extractQueryResults(result)), nil
}

func rowToMeeting(row map[string]interface{}) *model.Meeting {
	return &model.Meeting{
		ID:                convertSurrealID(row["id"]),
		ProviderMeetingID: getString(row, "provider_meeting_id"),
		MeetingNo:         getString(row, "meeting_no"),
		Status:            model.MeetingStatus(getString(row, "status")),
		Topic:             getString(row, "topic"),
		ScheduleStartTime: getTime(row, "schedule_start_time"),
		ScheduleDuration:  getInt(row, "schedule_duration"),
		JoinURL:           getString(row, "join_url"),
		UpdatedAt:         getTime(row, "updated_at"),
	}
}
