package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ClareAI/astra-meeting-service/internal/cache"
	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/mocks"
)

func newAgentHandler(repos *mocks.MockManager) (*AgentHandler, *cache.AgentCache) {
	agents := cache.NewAgentCache(repos.AgentRepo, time.Minute)
	return NewAgentHandler(repos, agents), agents
}

func TestAgentCreate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		repos := mocks.NewMockManager()
		repos.AgentRepo.On("Create", mock.Anything, "u1",
			&domain.CreateAgentRequest{Name: "Tutor", Instructions: "Be helpful.", Voice: domain.VoiceAlloy}).
			Return(&domain.Agent{ID: "a1", Name: "Tutor", Voice: domain.VoiceAlloy}, nil)

		h, _ := newAgentHandler(repos)
		rec := httptest.NewRecorder()
		h.Create(rec, meetingRequest(http.MethodPost, "/api/agents",
			`{"name":"Tutor","instructions":"Be helpful.","voice":"alloy"}`, "u1"))

		assert.Equal(t, http.StatusCreated, rec.Code)
		repos.AssertExpectations(t)
	})

	t.Run("invalid voice", func(t *testing.T) {
		repos := mocks.NewMockManager()
		h, _ := newAgentHandler(repos)
		rec := httptest.NewRecorder()
		h.Create(rec, meetingRequest(http.MethodPost, "/api/agents",
			`{"name":"Tutor","instructions":"x","voice":"baritone"}`, "u1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid voice")
		repos.AgentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		repos := mocks.NewMockManager()
		h, _ := newAgentHandler(repos)
		rec := httptest.NewRecorder()
		h.Create(rec, meetingRequest(http.MethodPost, "/api/agents", `{broken`, "u1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAgentUpdateInvalidatesCache(t *testing.T) {
	repos := mocks.NewMockManager()
	agent := &domain.Agent{ID: "a1", UserID: "u1", Name: "Tutor", Instructions: "old", Voice: domain.VoiceAlloy}
	repos.AgentRepo.On("GetByID", mock.Anything, "a1").Return(agent, nil)

	h, agents := newAgentHandler(repos)

	// Prime the cache the way the call connector would.
	_, err := agents.GetAgent(meetingRequest(http.MethodGet, "/", "", "u1").Context(), "a1")
	require.NoError(t, err)
	require.Equal(t, 1, agents.Len())

	updated := &domain.Agent{ID: "a1", UserID: "u1", Name: "Tutor", Instructions: "new", Voice: domain.VoiceAlloy}
	repos.AgentRepo.On("Update", mock.Anything, "a1", "u1", mock.Anything).Return(updated, nil)

	req := meetingRequest(http.MethodPut, "/api/agents/a1", `{"instructions":"new"}`, "u1")
	req = mux.SetURLVars(req, map[string]string{"id": "a1"})
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, agents.Len())
}

func TestAgentDelete(t *testing.T) {
	t.Run("deletes and invalidates", func(t *testing.T) {
		repos := mocks.NewMockManager()
		repos.AgentRepo.On("Delete", mock.Anything, "a1", "u1").Return(nil)

		h, _ := newAgentHandler(repos)
		req := meetingRequest(http.MethodDelete, "/api/agents/a1", "", "u1")
		req = mux.SetURLVars(req, map[string]string{"id": "a1"})
		rec := httptest.NewRecorder()
		h.Delete(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		repos.AssertExpectations(t)
	})

	t.Run("unknown agent", func(t *testing.T) {
		repos := mocks.NewMockManager()
		repos.AgentRepo.On("Delete", mock.Anything, "a1", "u1").
			Return(domain.NotFoundError("agent", "a1"))

		h, _ := newAgentHandler(repos)
		req := meetingRequest(http.MethodDelete, "/api/agents/a1", "", "u1")
		req = mux.SetURLVars(req, map[string]string{"id": "a1"})
		rec := httptest.NewRecorder()
		h.Delete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
