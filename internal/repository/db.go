package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
)

// UserRepository defines read access to users for ownership checks and
// transcript speaker resolution.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
}

// AgentRepository defines the interface for agent operations.
type AgentRepository interface {
	Create(ctx context.Context, userID string, req *domain.CreateAgentRequest) (*domain.Agent, error)
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Agent, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Agent, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Agent, error)
	Update(ctx context.Context, id, userID string, req *domain.UpdateAgentRequest) (*domain.Agent, error)
	Delete(ctx context.Context, id, userID string) error
}

// MeetingRepository defines the interface for meeting operations.
// Transition is the single write path for status changes: a conditional
// UPDATE that only applies when the row still holds the expected status.
type MeetingRepository interface {
	Create(ctx context.Context, userID string, req *domain.CreateMeetingRequest) (*domain.Meeting, error)
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Meeting, error)
	GetWithAgent(ctx context.Context, id string) (*domain.Meeting, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Meeting, error)
	Update(ctx context.Context, id, userID string, req *domain.UpdateMeetingRequest) (*domain.Meeting, error)
	Delete(ctx context.Context, id, userID string) error

	Transition(ctx context.Context, id string, from, to domain.MeetingStatus, updates map[string]interface{}) (bool, error)
	SetTranscriptURL(ctx context.Context, id, url string) (bool, error)
	SetRecordingURL(ctx context.Context, id, url string) (bool, error)
	SaveSummary(ctx context.Context, id, summary string) error
}

// Manager combines all repositories behind one constructor-injected handle.
type Manager interface {
	Users() UserRepository
	Agents() AgentRepository
	Meetings() MeetingRepository

	Ping(ctx context.Context) error
	Close() error
}

// GormManager implements Manager using GORM.
type GormManager struct {
	db          *gorm.DB
	userRepo    *GormUserRepository
	agentRepo   *GormAgentRepository
	meetingRepo *GormMeetingRepository
}

// NewGormManager creates a repository manager over an open GORM connection.
func NewGormManager(db *gorm.DB) *GormManager {
	return &GormManager{
		db:          db,
		userRepo:    NewGormUserRepository(db),
		agentRepo:   NewGormAgentRepository(db),
		meetingRepo: NewGormMeetingRepository(db),
	}
}

// Users returns the user repository.
func (m *GormManager) Users() UserRepository {
	return m.userRepo
}

// Agents returns the agent repository.
func (m *GormManager) Agents() AgentRepository {
	return m.agentRepo
}

// Meetings returns the meeting repository.
func (m *GormManager) Meetings() MeetingRepository {
	return m.meetingRepo
}

// Ping checks database connectivity.
func (m *GormManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

// Close closes the database connection.
func (m *GormManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
