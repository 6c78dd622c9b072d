// Package mocks provides testify mocks for the service's interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ClareAI/astra-meeting-service/internal/adapters/chat"
	"github.com/ClareAI/astra-meeting-service/internal/adapters/llm"
	"github.com/ClareAI/astra-meeting-service/internal/adapters/video"
	"github.com/ClareAI/astra-meeting-service/internal/core/task"
	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/repository"
)

// MockUserRepository implements repository.UserRepository for testing.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// MockAgentRepository implements repository.AgentRepository for testing.
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) Create(ctx context.Context, userID string, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Agent, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Agent, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Agent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) Update(ctx context.Context, id, userID string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	args := m.Called(ctx, id, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) Delete(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockMeetingRepository implements repository.MeetingRepository for testing.
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Create(ctx context.Context, userID string, req *domain.CreateMeetingRequest) (*domain.Meeting, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Meeting, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetWithAgent(ctx context.Context, id string) (*domain.Meeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Meeting, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) Update(ctx context.Context, id, userID string, req *domain.UpdateMeetingRequest) (*domain.Meeting, error) {
	args := m.Called(ctx, id, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) Delete(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockMeetingRepository) Transition(ctx context.Context, id string, from, to domain.MeetingStatus, updates map[string]interface{}) (bool, error) {
	args := m.Called(ctx, id, from, to, updates)
	return args.Bool(0), args.Error(1)
}

func (m *MockMeetingRepository) SetTranscriptURL(ctx context.Context, id, url string) (bool, error) {
	args := m.Called(ctx, id, url)
	return args.Bool(0), args.Error(1)
}

func (m *MockMeetingRepository) SetRecordingURL(ctx context.Context, id, url string) (bool, error) {
	args := m.Called(ctx, id, url)
	return args.Bool(0), args.Error(1)
}

func (m *MockMeetingRepository) SaveSummary(ctx context.Context, id, summary string) error {
	args := m.Called(ctx, id, summary)
	return args.Error(0)
}

// MockManager bundles the repository mocks behind repository.Manager.
type MockManager struct {
	UserRepo    *MockUserRepository
	AgentRepo   *MockAgentRepository
	MeetingRepo *MockMeetingRepository
}

// NewMockManager creates a manager with fresh repository mocks.
func NewMockManager() *MockManager {
	return &MockManager{
		UserRepo:    &MockUserRepository{},
		AgentRepo:   &MockAgentRepository{},
		MeetingRepo: &MockMeetingRepository{},
	}
}

func (m *MockManager) Users() repository.UserRepository       { return m.UserRepo }
func (m *MockManager) Agents() repository.AgentRepository     { return m.AgentRepo }
func (m *MockManager) Meetings() repository.MeetingRepository { return m.MeetingRepo }
func (m *MockManager) Ping(ctx context.Context) error         { return nil }
func (m *MockManager) Close() error                           { return nil }

// AssertExpectations asserts expectations on all repository mocks.
func (m *MockManager) AssertExpectations(t mock.TestingT) {
	m.UserRepo.AssertExpectations(t)
	m.AgentRepo.AssertExpectations(t)
	m.MeetingRepo.AssertExpectations(t)
}

// MockChatService implements chat.Service for testing.
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) RecentMessages(ctx context.Context, channelID string, limit int) ([]chat.Message, error) {
	args := m.Called(ctx, channelID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chat.Message), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, channelID string, message chat.Message) error {
	args := m.Called(ctx, channelID, message)
	return args.Error(0)
}

func (m *MockChatService) UpsertUser(ctx context.Context, user chat.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRoomService implements video.RoomService for testing.
type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) EndRoom(ctx context.Context, meetingID string) error {
	args := m.Called(ctx, meetingID)
	return args.Error(0)
}

func (m *MockRoomService) ConnectAgent(ctx context.Context, meetingID string, session video.AgentSession) error {
	args := m.Called(ctx, meetingID, session)
	return args.Error(0)
}

// MockLLMClient implements llm.Client for testing.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, model string, messages []llm.Message) (string, error) {
	args := m.Called(ctx, model, messages)
	return args.String(0), args.Error(1)
}

// MockTaskBus implements task.Bus for testing.
type MockTaskBus struct {
	mock.Mock
}

func (m *MockTaskBus) Publish(ctx context.Context, t task.ProcessingTask) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskBus) Subscribe(ctx context.Context, handler func(task.ProcessingTask)) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}
