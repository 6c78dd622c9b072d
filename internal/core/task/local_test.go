package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to subscribers", func(t *testing.T) {
		bus := NewLocalBus()
		var received []ProcessingTask
		require.NoError(t, bus.Subscribe(ctx, func(task ProcessingTask) {
			received = append(received, task)
		}))

		sent := ProcessingTask{MeetingID: "m1", TranscriptURL: "https://files.example.com/t.jsonl"}
		require.NoError(t, bus.Publish(ctx, sent))

		require.Len(t, received, 1)
		assert.Equal(t, sent, received[0])
	})

	t.Run("publish without subscribers is not an error", func(t *testing.T) {
		bus := NewLocalBus()
		assert.NoError(t, bus.Publish(ctx, ProcessingTask{MeetingID: "m1"}))
	})

	t.Run("multiple subscribers all receive", func(t *testing.T) {
		bus := NewLocalBus()
		var a, b int
		require.NoError(t, bus.Subscribe(ctx, func(ProcessingTask) { a++ }))
		require.NoError(t, bus.Subscribe(ctx, func(ProcessingTask) { b++ }))

		require.NoError(t, bus.Publish(ctx, ProcessingTask{MeetingID: "m1"}))
		assert.Equal(t, 1, a)
		assert.Equal(t, 1, b)
	})
}
