package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/mocks"
)

func testAgent() *domain.Agent {
	return &domain.Agent{
		ID:           "a1",
		UserID:       "u1",
		Name:         "Tutor",
		Instructions: "Be helpful.",
		Voice:        domain.VoiceAlloy,
	}
}

func TestGetAgentCaching(t *testing.T) {
	repo := &mocks.MockAgentRepository{}
	repo.On("GetByID", mock.Anything, "a1").Return(testAgent(), nil).Once()

	c := NewAgentCache(repo, time.Minute)
	ctx := context.Background()

	first, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Tutor", first.Name)

	// Second lookup is served from cache; the repo mock only allows one call.
	second, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Tutor", second.Name)
	assert.Equal(t, 1, c.Len())
	repo.AssertExpectations(t)
}

func TestGetAgentReturnsCopies(t *testing.T) {
	repo := &mocks.MockAgentRepository{}
	repo.On("GetByID", mock.Anything, "a1").Return(testAgent(), nil).Once()

	c := NewAgentCache(repo, time.Minute)
	ctx := context.Background()

	first, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)
	first.Instructions = "mutated"

	second, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Be helpful.", second.Instructions)
}

func TestGetAgentExpiry(t *testing.T) {
	repo := &mocks.MockAgentRepository{}
	repo.On("GetByID", mock.Anything, "a1").Return(testAgent(), nil).Twice()

	c := NewAgentCache(repo, time.Millisecond)
	ctx := context.Background()

	_, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = c.GetAgent(ctx, "a1")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetAgentServesStaleOnDBError(t *testing.T) {
	repo := &mocks.MockAgentRepository{}
	repo.On("GetByID", mock.Anything, "a1").Return(testAgent(), nil).Once()
	repo.On("GetByID", mock.Anything, "a1").Return(nil, assert.AnError)

	c := NewAgentCache(repo, time.Millisecond)
	ctx := context.Background()

	_, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	agent, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Tutor", agent.Name)
}

func TestGetAgentDeletedAgentNotServedStale(t *testing.T) {
	repo := &mocks.MockAgentRepository{}
	repo.On("GetByID", mock.Anything, "a1").Return(testAgent(), nil).Once()
	repo.On("GetByID", mock.Anything, "a1").Return(nil, domain.NotFoundError("agent", "a1"))

	c := NewAgentCache(repo, time.Millisecond)
	ctx := context.Background()

	_, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = c.GetAgent(ctx, "a1")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 0, c.Len())
}

func TestInvalidate(t *testing.T) {
	repo := &mocks.MockAgentRepository{}
	repo.On("GetByID", mock.Anything, "a1").Return(testAgent(), nil).Twice()

	c := NewAgentCache(repo, time.Minute)
	ctx := context.Background()

	_, err := c.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	c.Invalidate("a1")
	assert.Equal(t, 0, c.Len())

	_, err = c.GetAgent(ctx, "a1")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetAgentMiss(t *testing.T) {
	repo := &mocks.MockAgentRepository{}
	repo.On("GetByID", mock.Anything, "missing").
		Return(nil, domain.NotFoundError("agent", "missing"))

	c := NewAgentCache(repo, time.Minute)
	_, err := c.GetAgent(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}
