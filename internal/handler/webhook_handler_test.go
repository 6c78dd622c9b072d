package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ClareAI/astra-meeting-service/internal/adapters/video"
	"github.com/ClareAI/astra-meeting-service/internal/cache"
	"github.com/ClareAI/astra-meeting-service/internal/core/task"
	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/mocks"
	"github.com/ClareAI/astra-meeting-service/internal/observability"
	"github.com/ClareAI/astra-meeting-service/internal/services/assistant"
	"github.com/ClareAI/astra-meeting-service/internal/services/connector"
	"github.com/ClareAI/astra-meeting-service/internal/webhook"
)

type webhookFixture struct {
	handler  *WebhookHandler
	verifier *webhook.Verifier
	repos    *mocks.MockManager
	rooms    *mocks.MockRoomService
	chatSvc  *mocks.MockChatService
	llm      *mocks.MockLLMClient
	taskBus  *mocks.MockTaskBus
}

func newWebhookFixture() *webhookFixture {
	verifier := webhook.NewVerifier("test-secret", "test-api-key")
	repos := mocks.NewMockManager()
	rooms := &mocks.MockRoomService{}
	chatSvc := &mocks.MockChatService{}
	llmClient := &mocks.MockLLMClient{}
	taskBus := &mocks.MockTaskBus{}

	agentCache := cache.NewAgentCache(repos.AgentRepo, time.Minute)
	conn := connector.New(agentCache, rooms)
	responder := assistant.New(repos, chatSvc, llmClient, "gpt-4o")
	metrics := observability.New(prometheus.NewRegistry())

	return &webhookFixture{
		handler:  NewWebhookHandler(verifier, repos, conn, rooms, responder, taskBus, metrics),
		verifier: verifier,
		repos:    repos,
		rooms:    rooms,
		chatSvc:  chatSvc,
		llm:      llmClient,
		taskBus:  taskBus,
	}
}

func (f *webhookFixture) post(t *testing.T, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set("x-signature", f.verifier.Sign([]byte(body)))
	req.Header.Set("x-api-key", "test-api-key")
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)
	return rec
}

func TestHandleWebhookAuth(t *testing.T) {
	t.Run("missing headers", func(t *testing.T) {
		f := newWebhookFixture()
		rec := f.post(t, `{"type":"call.session_started"}`, func(r *http.Request) {
			r.Header.Del("x-signature")
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.repos.AssertExpectations(t)
	})

	t.Run("invalid signature writes nothing", func(t *testing.T) {
		f := newWebhookFixture()
		body := `{"type":"call.session_started","call":{"custom":{"meetingId":"m1"}}}`
		rec := f.post(t, body, func(r *http.Request) {
			r.Header.Set("x-signature", "deadbeef")
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		f.repos.MeetingRepo.AssertNotCalled(t, "GetWithAgent", mock.Anything, mock.Anything)
		f.repos.MeetingRepo.AssertNotCalled(t, "Transition",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong api key", func(t *testing.T) {
		f := newWebhookFixture()
		rec := f.post(t, `{"type":"call.session_started"}`, func(r *http.Request) {
			r.Header.Set("x-api-key", "other-key")
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleWebhookUnknownEvent(t *testing.T) {
	f := newWebhookFixture()
	rec := f.post(t, `{"type":"call.ring","call_cid":"default:m1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestHandleSessionStarted(t *testing.T) {
	body := `{"type":"call.session_started","call":{"custom":{"meetingId":"m1"}}}`

	t.Run("upcoming meeting goes active and agent joins", func(t *testing.T) {
		f := newWebhookFixture()
		meeting := &domain.Meeting{ID: "m1", AgentID: "a1", Status: domain.MeetingStatusUpcoming}
		agent := &domain.Agent{ID: "a1", Name: "Tutor", Instructions: "Be helpful", Voice: domain.VoiceAlloy}

		f.repos.MeetingRepo.On("GetWithAgent", mock.Anything, "m1").Return(meeting, nil)
		f.repos.MeetingRepo.On("Transition", mock.Anything, "m1",
			domain.MeetingStatusUpcoming, domain.MeetingStatusActive, mock.Anything).Return(true, nil)
		f.repos.AgentRepo.On("GetByID", mock.Anything, "a1").Return(agent, nil)
		f.rooms.On("ConnectAgent", mock.Anything, "m1", video.AgentSession{
			AgentID:      "a1",
			Instructions: "Be helpful",
			Voice:        domain.VoiceAlloy,
		}).Return(nil)

		rec := f.post(t, body)
		require.Equal(t, http.StatusOK, rec.Code)
		f.repos.AssertExpectations(t)
		f.rooms.AssertExpectations(t)
	})

	t.Run("replayed event is a silent success", func(t *testing.T) {
		f := newWebhookFixture()
		meeting := &domain.Meeting{ID: "m1", AgentID: "a1", Status: domain.MeetingStatusActive}

		f.repos.MeetingRepo.On("GetWithAgent", mock.Anything, "m1").Return(meeting, nil)
		f.repos.MeetingRepo.On("Transition", mock.Anything, "m1",
			domain.MeetingStatusUpcoming, domain.MeetingStatusActive, mock.Anything).Return(false, nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.rooms.AssertNotCalled(t, "ConnectAgent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown meeting", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("GetWithAgent", mock.Anything, "m1").
			Return(nil, domain.NotFoundError("meeting", "m1"))

		rec := f.post(t, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("agent attach failure does not fail the webhook", func(t *testing.T) {
		f := newWebhookFixture()
		meeting := &domain.Meeting{ID: "m1", AgentID: "a1", Status: domain.MeetingStatusUpcoming}

		f.repos.MeetingRepo.On("GetWithAgent", mock.Anything, "m1").Return(meeting, nil)
		f.repos.MeetingRepo.On("Transition", mock.Anything, "m1",
			domain.MeetingStatusUpcoming, domain.MeetingStatusActive, mock.Anything).Return(true, nil)
		f.repos.AgentRepo.On("GetByID", mock.Anything, "a1").
			Return(nil, domain.NotFoundError("agent", "a1"))

		rec := f.post(t, body)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleParticipantLeft(t *testing.T) {
	f := newWebhookFixture()
	f.rooms.On("EndRoom", mock.Anything, "m1").Return(nil)

	rec := f.post(t, `{"type":"call.session_participant_left","call_cid":"default:m1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	f.rooms.AssertExpectations(t)
}

func TestHandleSessionEnded(t *testing.T) {
	body := `{"type":"call.session_ended","call":{"custom":{"meetingId":"m1"}}}`

	t.Run("active meeting moves to processing", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("Transition", mock.Anything, "m1",
			domain.MeetingStatusActive, domain.MeetingStatusProcessing, mock.Anything).Return(true, nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.repos.AssertExpectations(t)
	})

	t.Run("replay after processing is a silent success", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("Transition", mock.Anything, "m1",
			domain.MeetingStatusActive, domain.MeetingStatusProcessing, mock.Anything).Return(false, nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("database failure still answers 200", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("Transition", mock.Anything, "m1",
			domain.MeetingStatusActive, domain.MeetingStatusProcessing, mock.Anything).
			Return(false, errors.New("connection reset"))

		rec := f.post(t, body)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleTranscriptionReady(t *testing.T) {
	body := `{"type":"call.transcription_ready","call_cid":"default:m1","call_transcription":{"url":"https://files.example.com/t.jsonl"}}`

	t.Run("records url and enqueues pipeline", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("SetTranscriptURL", mock.Anything, "m1",
			"https://files.example.com/t.jsonl").Return(true, nil)
		f.taskBus.On("Publish", mock.Anything, task.ProcessingTask{
			MeetingID:     "m1",
			TranscriptURL: "https://files.example.com/t.jsonl",
		}).Return(nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.taskBus.AssertExpectations(t)
	})

	t.Run("unknown meeting", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("SetTranscriptURL", mock.Anything, "m1", mock.Anything).Return(false, nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		f.taskBus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("bus failure maps to upstream error", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("SetTranscriptURL", mock.Anything, "m1", mock.Anything).Return(true, nil)
		f.taskBus.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

		rec := f.post(t, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Upstream provider error")
	})
}

func TestHandleRecordingReady(t *testing.T) {
	body := `{"type":"call.recording_ready","call_cid":"default:m1","call_recording":{"url":"https://files.example.com/r.mp4"}}`

	t.Run("records url", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("SetRecordingURL", mock.Anything, "m1",
			"https://files.example.com/r.mp4").Return(true, nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.repos.AssertExpectations(t)
	})

	t.Run("unknown meeting", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("SetRecordingURL", mock.Anything, "m1", mock.Anything).Return(false, nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleNewMessage(t *testing.T) {
	body := `{"type":"message.new","user":{"id":"u1"},"channel_id":"m1","message":{"text":"what did we decide?"}}`

	t.Run("meeting not completed yet", func(t *testing.T) {
		f := newWebhookFixture()
		f.repos.MeetingRepo.On("GetByID", mock.Anything, "m1").
			Return(&domain.Meeting{ID: "m1", AgentID: "a1", Status: domain.MeetingStatusProcessing}, nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("completed meeting gets a reply", func(t *testing.T) {
		f := newWebhookFixture()
		summary := "### Overview\nWe met."
		meeting := &domain.Meeting{ID: "m1", AgentID: "a1", Status: domain.MeetingStatusCompleted, Summary: &summary}
		agent := &domain.Agent{ID: "a1", Name: "Tutor", Instructions: "Be helpful", Voice: domain.VoiceAlloy}

		f.repos.MeetingRepo.On("GetByID", mock.Anything, "m1").Return(meeting, nil)
		f.repos.AgentRepo.On("GetByID", mock.Anything, "a1").Return(agent, nil)
		f.chatSvc.On("RecentMessages", mock.Anything, "m1", 5).Return(nil, nil)
		f.llm.On("Complete", mock.Anything, "gpt-4o", mock.Anything).Return("We decided to ship.", nil)
		f.chatSvc.On("UpsertUser", mock.Anything, mock.Anything).Return(nil)
		f.chatSvc.On("SendMessage", mock.Anything, "m1", mock.Anything).Return(nil)

		rec := f.post(t, body)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.chatSvc.AssertExpectations(t)
	})
}
