package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentVoice identifies the synthesized voice an agent uses on calls.
type AgentVoice string

const (
	VoiceAlloy   AgentVoice = "alloy"
	VoiceAsh     AgentVoice = "ash"
	VoiceBallad  AgentVoice = "ballad"
	VoiceCoral   AgentVoice = "coral"
	VoiceEcho    AgentVoice = "echo"
	VoiceSage    AgentVoice = "sage"
	VoiceShimmer AgentVoice = "shimmer"
	VoiceVerse   AgentVoice = "verse"
)

// AgentVoices lists every voice accepted for an agent.
var AgentVoices = []AgentVoice{
	VoiceAlloy, VoiceAsh, VoiceBallad, VoiceCoral,
	VoiceEcho, VoiceSage, VoiceShimmer, VoiceVerse,
}

// ValidVoice reports whether v is one of the enumerated agent voices.
func ValidVoice(v AgentVoice) bool {
	for _, voice := range AgentVoices {
		if voice == v {
			return true
		}
	}
	return false
}

// Agent represents an AI persona a user can invite to meetings.
type Agent struct {
	ID           string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       string     `json:"user_id" gorm:"type:varchar(255);not null;index"`
	Name         string     `json:"name" gorm:"type:varchar(255);not null"`
	Instructions string     `json:"instructions" gorm:"type:text;not null"`
	Voice        AgentVoice `json:"voice" gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Agent.
func (Agent) TableName() string {
	return "agents"
}

// BeforeCreate assigns an id when the caller left it empty.
func (a *Agent) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// CreateAgentRequest represents the request to create a new agent.
type CreateAgentRequest struct {
	Name         string     `json:"name"`
	Instructions string     `json:"instructions"`
	Voice        AgentVoice `json:"voice"`
}

// Validate checks required fields on a create request.
func (r *CreateAgentRequest) Validate() error {
	if r.Name == "" {
		return NewValidationError("name is required")
	}
	if r.Instructions == "" {
		return NewValidationError("instructions is required")
	}
	if !ValidVoice(r.Voice) {
		return NewValidationError(fmt.Sprintf("invalid voice: %s", r.Voice))
	}
	return nil
}

// UpdateAgentRequest represents the request to update an agent.
// Nil fields are left unchanged.
type UpdateAgentRequest struct {
	Name         *string     `json:"name,omitempty"`
	Instructions *string     `json:"instructions,omitempty"`
	Voice        *AgentVoice `json:"voice,omitempty"`
}

// Validate checks the optional fields that carry constraints.
func (r *UpdateAgentRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return NewValidationError("name cannot be empty")
	}
	if r.Instructions != nil && *r.Instructions == "" {
		return NewValidationError("instructions cannot be empty")
	}
	if r.Voice != nil && !ValidVoice(*r.Voice) {
		return NewValidationError(fmt.Sprintf("invalid voice: %s", *r.Voice))
	}
	return nil
}
