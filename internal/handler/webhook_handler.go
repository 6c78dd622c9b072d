package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ClareAI/astra-meeting-service/internal/adapters/llm"
	"github.com/ClareAI/astra-meeting-service/internal/adapters/video"
	"github.com/ClareAI/astra-meeting-service/internal/core/task"
	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/observability"
	"github.com/ClareAI/astra-meeting-service/internal/repository"
	"github.com/ClareAI/astra-meeting-service/internal/services/assistant"
	"github.com/ClareAI/astra-meeting-service/internal/services/connector"
	"github.com/ClareAI/astra-meeting-service/internal/webhook"
	"github.com/ClareAI/astra-meeting-service/pkg/logger"
)

// WebhookHandler processes call/chat provider events. Requests are
// stateless and independent; the provider delivers at-least-once and out
// of order, so every status transition goes through the compare-and-set
// Transition and a stale event is a silent success.
type WebhookHandler struct {
	verifier  *webhook.Verifier
	repos     repository.Manager
	connector *connector.Connector
	rooms     video.RoomService
	responder *assistant.Responder
	taskBus   task.Bus
	metrics   *observability.Metrics
}

// NewWebhookHandler creates the webhook handler with all collaborators
// injected.
func NewWebhookHandler(
	verifier *webhook.Verifier,
	repos repository.Manager,
	conn *connector.Connector,
	rooms video.RoomService,
	responder *assistant.Responder,
	taskBus task.Bus,
	metrics *observability.Metrics,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:  verifier,
		repos:     repos,
		connector: conn,
		rooms:     rooms,
		responder: responder,
		taskBus:   taskBus,
		metrics:   metrics,
	}
}

// HandleWebhook is the single inbound entry point for provider events.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("x-signature")
	apiKey := r.Header.Get("x-api-key")
	if signature == "" || apiKey == "" {
		writeError(w, http.StatusBadRequest, "Missing signature or API key")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := h.verifier.Verify(body, signature, apiKey); err != nil {
		if domain.IsAuth(err) {
			writeError(w, http.StatusUnauthorized, "Invalid signature")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := domain.DecodeWebhookEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if event == nil {
		// Unknown event types are acknowledged as no-ops.
		writeOK(w)
		return
	}

	eventType := string(event.EventType())
	started := time.Now()
	err = h.dispatch(r.Context(), event)
	h.metrics.WebhookSeconds.WithLabelValues(eventType).Observe(time.Since(started).Seconds())

	if err == nil {
		h.metrics.WebhookEventsTotal.WithLabelValues(eventType, "ok").Inc()
		writeOK(w)
		return
	}

	switch {
	case domain.IsValidation(err):
		h.metrics.WebhookEventsTotal.WithLabelValues(eventType, "invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		h.metrics.WebhookEventsTotal.WithLabelValues(eventType, "not_found").Inc()
		writeError(w, http.StatusNotFound, "Not found")
	case isUpstream(err):
		h.metrics.WebhookEventsTotal.WithLabelValues(eventType, "upstream_error").Inc()
		writeError(w, http.StatusBadRequest, "Upstream provider error")
	default:
		// Non-retryable internal failures still answer 200 so the
		// provider does not build a retry storm around them.
		logger.Base().Error("webhook handler error",
			zap.String("event_type", eventType), zap.Error(err))
		h.metrics.WebhookEventsTotal.WithLabelValues(eventType, "internal_error").Inc()
		writeOK(w)
	}
}

func (h *WebhookHandler) dispatch(ctx context.Context, event domain.WebhookEvent) error {
	switch e := event.(type) {
	case *domain.CallSessionStartedEvent:
		return h.handleSessionStarted(ctx, e)
	case *domain.CallParticipantLeftEvent:
		return h.handleParticipantLeft(ctx, e)
	case *domain.CallSessionEndedEvent:
		return h.handleSessionEnded(ctx, e)
	case *domain.CallTranscriptionReadyEvent:
		return h.handleTranscriptionReady(ctx, e)
	case *domain.CallRecordingReadyEvent:
		return h.handleRecordingReady(ctx, e)
	case *domain.MessageNewEvent:
		return h.responder.Respond(ctx, e)
	}
	return nil
}

// handleSessionStarted moves the meeting to active and attaches the AI
// participant. A meeting already past upcoming means a duplicate or late
// delivery; the event is ignored.
func (h *WebhookHandler) handleSessionStarted(ctx context.Context, event *domain.CallSessionStartedEvent) error {
	meetingID := event.Call.Custom.MeetingID

	meeting, err := h.repos.Meetings().GetWithAgent(ctx, meetingID)
	if err != nil {
		return err
	}

	applied, err := h.repos.Meetings().Transition(ctx, meetingID,
		domain.MeetingStatusUpcoming, domain.MeetingStatusActive,
		map[string]interface{}{"started_at": time.Now()})
	if err != nil {
		return err
	}
	if !applied {
		logger.Base().Info("stale session_started event, ignoring",
			zap.String("meeting_id", meetingID),
			zap.String("status", string(meeting.Status)))
		return nil
	}

	// The call proceeds without an AI participant if the agent cannot be
	// attached; the transition above already succeeded.
	if err := h.connector.AttachAgent(ctx, meetingID, meeting.AgentID); err != nil {
		logger.Base().Error("failed to attach AI participant",
			zap.String("meeting_id", meetingID),
			zap.String("agent_id", meeting.AgentID),
			zap.Error(err))
	}
	return nil
}

// handleParticipantLeft ends the call room. The meeting status itself
// only changes on session_ended.
func (h *WebhookHandler) handleParticipantLeft(ctx context.Context, event *domain.CallParticipantLeftEvent) error {
	meetingID := domain.MeetingIDFromCID(event.CallCID)
	return h.rooms.EndRoom(ctx, meetingID)
}

func (h *WebhookHandler) handleSessionEnded(ctx context.Context, event *domain.CallSessionEndedEvent) error {
	meetingID := event.Call.Custom.MeetingID

	applied, err := h.repos.Meetings().Transition(ctx, meetingID,
		domain.MeetingStatusActive, domain.MeetingStatusProcessing,
		map[string]interface{}{"ended_at": time.Now()})
	if err != nil {
		return err
	}
	if !applied {
		logger.Base().Info("stale session_ended event, ignoring",
			zap.String("meeting_id", meetingID))
	}
	return nil
}

// handleTranscriptionReady records the transcript URL and enqueues the
// processing pipeline. Publishing is fire-and-forget; the HTTP response
// never waits on the pipeline.
func (h *WebhookHandler) handleTranscriptionReady(ctx context.Context, event *domain.CallTranscriptionReadyEvent) error {
	meetingID := domain.MeetingIDFromCID(event.CallCID)
	url := event.CallTranscription.URL

	found, err := h.repos.Meetings().SetTranscriptURL(ctx, meetingID, url)
	if err != nil {
		return err
	}
	if !found {
		return domain.NotFoundError("meeting", meetingID)
	}

	if err := h.taskBus.Publish(ctx, task.ProcessingTask{
		MeetingID:     meetingID,
		TranscriptURL: url,
	}); err != nil {
		return domain.NewUpstreamError("task bus", err)
	}
	return nil
}

func (h *WebhookHandler) handleRecordingReady(ctx context.Context, event *domain.CallRecordingReadyEvent) error {
	meetingID := domain.MeetingIDFromCID(event.CallCID)

	found, err := h.repos.Meetings().SetRecordingURL(ctx, meetingID, event.CallRecording.URL)
	if err != nil {
		return err
	}
	if !found {
		return domain.NotFoundError("meeting", meetingID)
	}
	return nil
}

func isUpstream(err error) bool {
	var ue *domain.UpstreamError
	return errors.As(err, &ue) || errors.Is(err, llm.ErrEmptyCompletion)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
