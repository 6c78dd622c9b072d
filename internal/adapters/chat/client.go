// Package chat wraps the chat provider's channel API. Each meeting has a
// channel keyed by its meeting id; the post-call assistant reads and
// writes messages through this adapter.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
)

// User is a chat identity. Agents are upserted under their agent id so
// replies render with the agent's name and avatar.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Message is one chat message on a meeting channel.
type Message struct {
	Text string `json:"text"`
	User User   `json:"user"`
}

// Service is the chat provider surface the assistant responder needs.
type Service interface {
	RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	SendMessage(ctx context.Context, channelID string, message Message) error
	UpsertUser(ctx context.Context, user User) error
}

// HTTPService talks to the chat provider over its REST API.
type HTTPService struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewHTTPService creates a chat service client.
func NewHTTPService(baseURL, apiKey string) *HTTPService {
	return &HTTPService{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// RecentMessages returns up to limit most recent messages on a channel,
// oldest first.
func (s *HTTPService) RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	endpoint := fmt.Sprintf("%s/channels/messaging/%s/messages?limit=%s",
		s.BaseURL, url.PathEscape(channelID), strconv.Itoa(limit))

	var parsed struct {
		Messages []Message `json:"messages"`
	}
	if err := s.do(ctx, http.MethodGet, endpoint, nil, &parsed); err != nil {
		return nil, err
	}
	return parsed.Messages, nil
}

// SendMessage posts a message to a channel under the message's user identity.
func (s *HTTPService) SendMessage(ctx context.Context, channelID string, message Message) error {
	endpoint := fmt.Sprintf("%s/channels/messaging/%s/messages", s.BaseURL, url.PathEscape(channelID))
	payload := map[string]interface{}{"message": message}
	return s.do(ctx, http.MethodPost, endpoint, payload, nil)
}

// UpsertUser registers or updates a chat identity.
func (s *HTTPService) UpsertUser(ctx context.Context, user User) error {
	endpoint := s.BaseURL + "/users"
	payload := map[string]interface{}{"users": []User{user}}
	return s.do(ctx, http.MethodPost, endpoint, payload, nil)
}

func (s *HTTPService) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal chat request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return domain.NewUpstreamError("chat", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUpstreamError("chat", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NewUpstreamError("chat",
			fmt.Errorf("%s %s: status %d: %s", method, endpoint, resp.StatusCode, string(data)))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return domain.NewUpstreamError("chat", fmt.Errorf("failed to parse chat response: %w", err))
		}
	}
	return nil
}
