// Package video wraps the call provider's room API. Rooms are keyed by
// meeting id; the provider hosts the actual media session.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
)

// AgentSession configures the AI participant attached to a live call.
type AgentSession struct {
	AgentID      string            `json:"agent_id"`
	Instructions string            `json:"instructions"`
	Voice        domain.AgentVoice `json:"voice"`
}

// RoomService is the call provider surface the webhook handlers need.
type RoomService interface {
	EndRoom(ctx context.Context, meetingID string) error
	ConnectAgent(ctx context.Context, meetingID string, session AgentSession) error
}

// HTTPService talks to the call provider over its REST API.
type HTTPService struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewHTTPService creates a call room service client.
func NewHTTPService(baseURL, apiKey string) *HTTPService {
	return &HTTPService{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// EndRoom terminates the call room for a meeting. Ending a room that is
// already closed is not an error on the provider side.
func (s *HTTPService) EndRoom(ctx context.Context, meetingID string) error {
	endpoint := fmt.Sprintf("%s/calls/default/%s/end", s.BaseURL, url.PathEscape(meetingID))
	return s.do(ctx, endpoint, nil)
}

// ConnectAgent opens an AI participant on the meeting's room and
// configures it with the agent's instructions and voice.
func (s *HTTPService) ConnectAgent(ctx context.Context, meetingID string, session AgentSession) error {
	endpoint := fmt.Sprintf("%s/calls/default/%s/agents", s.BaseURL, url.PathEscape(meetingID))
	return s.do(ctx, endpoint, session)
}

func (s *HTTPService) do(ctx context.Context, endpoint string, payload interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal call request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build call request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return domain.NewUpstreamError("call", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUpstreamError("call", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NewUpstreamError("call",
			fmt.Errorf("POST %s: status %d: %s", endpoint, resp.StatusCode, string(data)))
	}
	return nil
}
