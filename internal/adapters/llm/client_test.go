package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
)

func TestComplete(t *testing.T) {
	t.Run("returns the first choice's text", func(t *testing.T) {
		var captured completionRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello back"}}]}`))
		}))
		defer server.Close()

		c := NewOpenAIClient(server.URL, "test-key")
		out, err := c.Complete(context.Background(), "gpt-4o", []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hello"},
		})
		require.NoError(t, err)
		assert.Equal(t, "hello back", out)
		assert.Equal(t, "gpt-4o", captured.Model)
		require.Len(t, captured.Messages, 2)
		assert.Equal(t, RoleSystem, captured.Messages[0].Role)
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		c := NewOpenAIClient(server.URL, "test-key")
		_, err := c.Complete(context.Background(), "gpt-4o", []Message{{Role: RoleUser, Content: "hi"}})
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("empty content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
		}))
		defer server.Close()

		c := NewOpenAIClient(server.URL, "test-key")
		_, err := c.Complete(context.Background(), "gpt-4o", []Message{{Role: RoleUser, Content: "hi"}})
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewOpenAIClient(server.URL, "test-key")
		_, err := c.Complete(context.Background(), "gpt-4o", []Message{{Role: RoleUser, Content: "hi"}})
		require.Error(t, err)
		var ue *domain.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "model", ue.Provider)
	})

	t.Run("connection failure", func(t *testing.T) {
		c := NewOpenAIClient("http://127.0.0.1:1", "test-key")
		_, err := c.Complete(context.Background(), "gpt-4o", []Message{{Role: RoleUser, Content: "hi"}})
		require.Error(t, err)
		var ue *domain.UpstreamError
		assert.True(t, errors.As(err, &ue))
	})
}
