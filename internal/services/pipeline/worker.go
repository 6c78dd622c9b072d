package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/ClareAI/astra-meeting-service/internal/core/task"
	"github.com/ClareAI/astra-meeting-service/pkg/logger"
)

// Worker consumes pipeline triggers from the task bus and runs jobs
// outside any webhook request's lifetime.
type Worker struct {
	pipeline *Pipeline
	bus      task.Bus
}

// NewWorker creates a pipeline worker.
func NewWorker(pipeline *Pipeline, bus task.Bus) *Worker {
	return &Worker{
		pipeline: pipeline,
		bus:      bus,
	}
}

// Start subscribes to the task bus. Each trigger runs in its own
// goroutine; jobs for different meetings never contend with each other,
// and duplicates for the same meeting are dropped by the job lock.
func (w *Worker) Start(ctx context.Context) error {
	return w.bus.Subscribe(ctx, func(t task.ProcessingTask) {
		go func() {
			if err := w.pipeline.Run(ctx, t); err != nil {
				logger.Base().Error("pipeline job failed",
					zap.String("meeting_id", t.MeetingID),
					zap.Error(err))
			}
		}()
	})
}
