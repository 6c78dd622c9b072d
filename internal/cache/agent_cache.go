package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/repository"
	"github.com/ClareAI/astra-meeting-service/pkg/logger"
)

// AgentCache provides thread-safe, database-backed caching of agents.
// The AI call connector hits it on every session start, so lookups must
// not always pay a DB round trip.
type AgentCache struct {
	repo   repository.AgentRepository
	agents map[string]cachedAgent
	mutex  sync.RWMutex
	ttl    time.Duration
}

type cachedAgent struct {
	agent    *domain.Agent
	loadedAt time.Time
}

// NewAgentCache creates an agent cache over the given repository.
func NewAgentCache(repo repository.AgentRepository, ttl time.Duration) *AgentCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AgentCache{
		repo:   repo,
		agents: make(map[string]cachedAgent),
		ttl:    ttl,
	}
}

// GetAgent returns the agent with the given id, serving from cache when
// fresh and falling back to the repository otherwise. Callers receive a
// deep copy and may mutate it freely.
func (c *AgentCache) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	c.mutex.RLock()
	entry, ok := c.agents[id]
	c.mutex.RUnlock()

	if ok && time.Since(entry.loadedAt) < c.ttl {
		return copyAgent(entry.agent)
	}

	agent, err := c.repo.GetByID(ctx, id)
	if err != nil {
		// A stale entry is better than nothing if the DB is briefly away,
		// but a deleted agent must not be served from cache.
		if ok && !domain.IsNotFound(err) {
			logger.Base().Warn("agent cache refresh failed, serving stale entry",
				zap.String("agent_id", id), zap.Error(err))
			return copyAgent(entry.agent)
		}
		c.Invalidate(id)
		return nil, err
	}

	c.mutex.Lock()
	c.agents[id] = cachedAgent{agent: agent, loadedAt: time.Now()}
	c.mutex.Unlock()

	return copyAgent(agent)
}

// Invalidate drops the cached entry for an agent, if present. Called on
// agent update and delete so stale instructions never reach a live call.
func (c *AgentCache) Invalidate(id string) {
	c.mutex.Lock()
	delete(c.agents, id)
	c.mutex.Unlock()
}

// Len returns the number of cached entries.
func (c *AgentCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.agents)
}

func copyAgent(agent *domain.Agent) (*domain.Agent, error) {
	var out domain.Agent
	if err := copier.CopyWithOption(&out, agent, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return &out, nil
}
