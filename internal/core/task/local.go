package task

import (
	"context"
	"sync"

	"github.com/ClareAI/astra-meeting-service/pkg/logger"
)

// LocalBus is an in-process Bus used when Redis is unavailable. Tasks
// only reach subscribers in the same process, so it is suitable for a
// single-instance deployment or local development.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []func(ProcessingTask)
}

// NewLocalBus creates an in-process task bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

// Publish delivers a task to every registered handler.
func (b *LocalBus) Publish(ctx context.Context, task ProcessingTask) error {
	b.mu.RLock()
	handlers := make([]func(ProcessingTask), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		logger.Base().Warn("no subscribers on local task bus, task dropped")
		return nil
	}
	for _, h := range handlers {
		h(task)
	}
	return nil
}

// Subscribe registers a handler. The handler stays registered until the
// process exits; ctx is accepted for interface symmetry.
func (b *LocalBus) Subscribe(ctx context.Context, handler func(ProcessingTask)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	return nil
}
