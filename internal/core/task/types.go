package task

import (
	"context"
)

// ProcessingTask is the durable trigger for the post-call summarization
// pipeline, emitted when a transcript becomes available.
type ProcessingTask struct {
	MeetingID     string `json:"meeting_id"`
	TranscriptURL string `json:"transcript_url"`
}

// Bus defines the interface for the asynchronous task bus. Publishing
// must return without waiting for any consumer to run the task.
type Bus interface {
	Publish(ctx context.Context, task ProcessingTask) error
	Subscribe(ctx context.Context, handler func(ProcessingTask)) error
}
