package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
)

// GormMeetingRepository implements MeetingRepository using GORM.
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository creates a new GORM meeting repository.
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

// Create creates a new meeting in upcoming status.
func (r *GormMeetingRepository) Create(ctx context.Context, userID string, req *domain.CreateMeetingRequest) (*domain.Meeting, error) {
	meeting := &domain.Meeting{
		UserID:  userID,
		AgentID: req.AgentID,
		Name:    req.Name,
		Status:  domain.MeetingStatusUpcoming,
	}

	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	return meeting, nil
}

// GetByID retrieves a meeting by ID.
func (r *GormMeetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	var meeting domain.Meeting
	if err := r.db.WithContext(ctx).First(&meeting, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("meeting", id)
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &meeting, nil
}

// GetByIDForUser retrieves a meeting by ID, scoped to its owner.
func (r *GormMeetingRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Meeting, error) {
	var meeting domain.Meeting
	if err := r.db.WithContext(ctx).First(&meeting, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("meeting", id)
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &meeting, nil
}

// GetWithAgent retrieves a meeting with its agent preloaded.
func (r *GormMeetingRepository) GetWithAgent(ctx context.Context, id string) (*domain.Meeting, error) {
	var meeting domain.Meeting
	if err := r.db.WithContext(ctx).Preload("Agent").First(&meeting, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("meeting", id)
		}
		return nil, fmt.Errorf("failed to get meeting with agent: %w", err)
	}
	return &meeting, nil
}

// GetByUserID retrieves all meetings owned by a user, newest first.
func (r *GormMeetingRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Meeting, error) {
	var meetings []*domain.Meeting
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("failed to get meetings by user: %w", err)
	}
	return meetings, nil
}

// Update applies the non-nil fields of req to a meeting owned by userID.
func (r *GormMeetingRepository) Update(ctx context.Context, id, userID string, req *domain.UpdateMeetingRequest) (*domain.Meeting, error) {
	var meeting domain.Meeting
	if err := r.db.WithContext(ctx).First(&meeting, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("meeting", id)
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.AgentID != nil {
		updates["agent_id"] = *req.AgentID
	}

	if len(updates) == 0 {
		return &meeting, nil
	}

	if err := r.db.WithContext(ctx).Model(&meeting).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}
	return &meeting, nil
}

// Delete deletes a meeting owned by userID.
func (r *GormMeetingRepository) Delete(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Meeting{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete meeting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError("meeting", id)
	}
	return nil
}

// Transition moves a meeting from one status to another with a single
// conditional UPDATE (WHERE id = ? AND status = ?). Returns false when
// zero rows were affected, meaning the meeting was not in the expected
// source status; callers treat that as an already-handled event.
func (r *GormMeetingRepository) Transition(ctx context.Context, id string, from, to domain.MeetingStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = make(map[string]interface{})
	}
	updates["status"] = to

	result := r.db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition meeting %s from %s to %s: %w", id, from, to, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetTranscriptURL records the transcript artifact URL regardless of the
// meeting's current status. Returns false when the meeting row is absent.
func (r *GormMeetingRepository) SetTranscriptURL(ctx context.Context, id, url string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ?", id).
		Update("transcript_url", url)
	if result.Error != nil {
		return false, fmt.Errorf("failed to set transcript url: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetRecordingURL records the recording URL regardless of the meeting's
// current status. Returns false when the meeting row is absent.
func (r *GormMeetingRepository) SetRecordingURL(ctx context.Context, id, url string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ?", id).
		Update("recording_url", url)
	if result.Error != nil {
		return false, fmt.Errorf("failed to set recording url: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SaveSummary writes the generated summary and finalizes the meeting as
// completed. Unconditional on status: the pipeline trigger already
// implies the meeting reached processing.
func (r *GormMeetingRepository) SaveSummary(ctx context.Context, id, summary string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"summary": summary,
			"status":  domain.MeetingStatusCompleted,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save summary: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError("meeting", id)
	}
	return nil
}
