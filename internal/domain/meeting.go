package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeetingStatus tracks a meeting through its lifecycle. Legal transitions:
// upcoming -> active -> processing -> completed, and upcoming -> cancelled.
type MeetingStatus string

const (
	MeetingStatusUpcoming   MeetingStatus = "upcoming"
	MeetingStatusActive     MeetingStatus = "active"
	MeetingStatusProcessing MeetingStatus = "processing"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusCancelled  MeetingStatus = "cancelled"
)

// Meeting represents a scheduled or held session between a user and an agent.
type Meeting struct {
	ID            string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        string        `json:"user_id" gorm:"type:varchar(255);not null;index"`
	AgentID       string        `json:"agent_id" gorm:"type:uuid;not null;index"`
	Agent         Agent         `json:"agent" gorm:"foreignKey:AgentID;constraint:OnDelete:CASCADE"`
	Name          string        `json:"name" gorm:"type:varchar(255);not null"`
	Status        MeetingStatus `json:"status" gorm:"type:varchar(32);not null;default:'upcoming'"`
	StartedAt     *time.Time    `json:"started_at"`
	EndedAt       *time.Time    `json:"ended_at"`
	TranscriptURL *string       `json:"transcript_url" gorm:"type:text"`
	RecordingURL  *string       `json:"recording_url" gorm:"type:text"`
	Summary       *string       `json:"summary" gorm:"type:text"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Meeting.
func (Meeting) TableName() string {
	return "meetings"
}

// BeforeCreate assigns an id when the caller left it empty.
func (m *Meeting) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// CreateMeetingRequest represents the request to create a new meeting.
type CreateMeetingRequest struct {
	Name    string `json:"name"`
	AgentID string `json:"agent_id"`
}

// Validate checks required fields on a create request.
func (r *CreateMeetingRequest) Validate() error {
	if r.Name == "" {
		return NewValidationError("name is required")
	}
	if r.AgentID == "" {
		return NewValidationError("agent_id is required")
	}
	return nil
}

// UpdateMeetingRequest represents the request to update a meeting.
// Nil fields are left unchanged.
type UpdateMeetingRequest struct {
	Name    *string `json:"name,omitempty"`
	AgentID *string `json:"agent_id,omitempty"`
}

// Validate checks the optional fields that carry constraints.
func (r *UpdateMeetingRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return NewValidationError("name cannot be empty")
	}
	if r.AgentID != nil && *r.AgentID == "" {
		return NewValidationError("agent_id cannot be empty")
	}
	return nil
}
