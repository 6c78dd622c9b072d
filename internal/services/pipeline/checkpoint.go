package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ClareAI/astra-meeting-service/pkg/redis"
)

// CheckpointStore durably records each pipeline step's output before the
// next step runs, and holds the one-in-flight-job-per-meeting lock. A
// resumed run skips steps whose output is already present.
type CheckpointStore interface {
	Get(ctx context.Context, meetingID, step string) (string, bool, error)
	Put(ctx context.Context, meetingID, step, output string) error
	Clear(ctx context.Context, meetingID string) error

	AcquireLock(ctx context.Context, meetingID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, meetingID string) error
}

// RedisCheckpointStore keeps checkpoints and locks in Redis so a worker
// restart resumes jobs instead of rerunning finished steps.
type RedisCheckpointStore struct {
	redisSvc redis.ServiceInterface
	ttl      time.Duration
}

// NewRedisCheckpointStore creates a checkpoint store. ttl bounds how long
// step outputs outlive a crashed run.
func NewRedisCheckpointStore(redisSvc redis.ServiceInterface, ttl time.Duration) *RedisCheckpointStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCheckpointStore{redisSvc: redisSvc, ttl: ttl}
}

// Get returns a step's recorded output and whether one exists.
func (s *RedisCheckpointStore) Get(ctx context.Context, meetingID, step string) (string, bool, error) {
	key := s.redisSvc.GenerateKey(redis.PIPELINE_CHECKPOINT, meetingID, step)
	value, err := s.redisSvc.GetValue(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Put records a step's output.
func (s *RedisCheckpointStore) Put(ctx context.Context, meetingID, step, output string) error {
	key := s.redisSvc.GenerateKey(redis.PIPELINE_CHECKPOINT, meetingID, step)
	return s.redisSvc.SetValue(ctx, key, output, s.ttl)
}

// Clear drops all step outputs for a finished job.
func (s *RedisCheckpointStore) Clear(ctx context.Context, meetingID string) error {
	var firstErr error
	for _, step := range StepNames {
		key := s.redisSvc.GenerateKey(redis.PIPELINE_CHECKPOINT, meetingID, step)
		if err := s.redisSvc.DelValue(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AcquireLock claims the in-flight slot for a meeting. Returns false when
// another run already holds it; the duplicate trigger is then dropped.
func (s *RedisCheckpointStore) AcquireLock(ctx context.Context, meetingID string, ttl time.Duration) (bool, error) {
	key := s.redisSvc.GenerateKey(redis.PIPELINE_LOCK, meetingID)
	return s.redisSvc.SetValueNX(ctx, key, "1", ttl)
}

// ReleaseLock frees the in-flight slot for a meeting.
func (s *RedisCheckpointStore) ReleaseLock(ctx context.Context, meetingID string) error {
	key := s.redisSvc.GenerateKey(redis.PIPELINE_LOCK, meetingID)
	return s.redisSvc.DelValue(ctx, key)
}

// MemoryCheckpointStore is an in-process CheckpointStore for local runs
// without Redis. Checkpoints do not survive a restart.
type MemoryCheckpointStore struct {
	mu    sync.Mutex
	steps map[string]string
	locks map[string]time.Time
}

// NewMemoryCheckpointStore creates an in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		steps: make(map[string]string),
		locks: make(map[string]time.Time),
	}
}

func (s *MemoryCheckpointStore) key(meetingID, step string) string {
	return meetingID + ":" + step
}

// Get returns a step's recorded output and whether one exists.
func (s *MemoryCheckpointStore) Get(_ context.Context, meetingID, step string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.steps[s.key(meetingID, step)]
	return value, ok, nil
}

// Put records a step's output.
func (s *MemoryCheckpointStore) Put(_ context.Context, meetingID, step, output string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[s.key(meetingID, step)] = output
	return nil
}

// Clear drops all step outputs for a finished job.
func (s *MemoryCheckpointStore) Clear(_ context.Context, meetingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, step := range StepNames {
		delete(s.steps, s.key(meetingID, step))
	}
	return nil
}

// AcquireLock claims the in-flight slot for a meeting.
func (s *MemoryCheckpointStore) AcquireLock(_ context.Context, meetingID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expiry, held := s.locks[meetingID]; held && time.Now().Before(expiry) {
		return false, nil
	}
	s.locks[meetingID] = time.Now().Add(ttl)
	return true, nil
}

// ReleaseLock frees the in-flight slot for a meeting.
func (s *MemoryCheckpointStore) ReleaseLock(_ context.Context, meetingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, meetingID)
	return nil
}
