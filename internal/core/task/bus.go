package task

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ClareAI/astra-meeting-service/pkg/logger"
	"github.com/ClareAI/astra-meeting-service/pkg/redis"
)

const (
	// TaskChannel is the Redis Pub/Sub channel carrying pipeline triggers.
	TaskChannel = "astra:meeting:processing:tasks"
)

// RedisBus implements the Bus interface using Redis Pub/Sub.
type RedisBus struct {
	redisSvc redis.ServiceInterface
}

// NewRedisBus creates a new Redis-based task bus.
func NewRedisBus(redisSvc redis.ServiceInterface) *RedisBus {
	return &RedisBus{redisSvc: redisSvc}
}

// Publish sends a processing task to the bus.
func (b *RedisBus) Publish(ctx context.Context, task ProcessingTask) error {
	logger.Base().Debug("Publishing processing task",
		zap.String("meeting_id", task.MeetingID),
		zap.String("transcript_url", task.TranscriptURL))
	return b.redisSvc.Publish(ctx, TaskChannel, task)
}

// Subscribe listens for processing tasks on the bus.
func (b *RedisBus) Subscribe(ctx context.Context, handler func(ProcessingTask)) error {
	logger.Base().Info("Subscribing to processing tasks", zap.String("channel", TaskChannel))
	return b.redisSvc.Subscribe(ctx, TaskChannel, func(payload string) {
		var task ProcessingTask
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			logger.Base().Error("Failed to unmarshal task payload", zap.Error(err))
			return
		}
		handler(task)
	})
}
