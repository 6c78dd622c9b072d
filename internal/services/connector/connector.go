// Package connector attaches an AI participant to a live call when a
// meeting session starts.
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ClareAI/astra-meeting-service/internal/adapters/video"
	"github.com/ClareAI/astra-meeting-service/internal/cache"
	"github.com/ClareAI/astra-meeting-service/pkg/logger"
)

// Connector resolves a meeting's agent and opens an AI participant on
// the call room, configured with the agent's instructions and voice.
type Connector struct {
	agents *cache.AgentCache
	rooms  video.RoomService
}

// New creates an AI call connector.
func New(agents *cache.AgentCache, rooms video.RoomService) *Connector {
	return &Connector{
		agents: agents,
		rooms:  rooms,
	}
}

// AttachAgent joins the agent to the meeting's live call room. A failure
// here must not fail the webhook that started the session; callers log
// the returned error and let the call proceed without an AI participant.
func (c *Connector) AttachAgent(ctx context.Context, meetingID, agentID string) error {
	agent, err := c.agents.GetAgent(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to resolve agent %s: %w", agentID, err)
	}

	session := video.AgentSession{
		AgentID:      agent.ID,
		Instructions: agent.Instructions,
		Voice:        agent.Voice,
	}
	if err := c.rooms.ConnectAgent(ctx, meetingID, session); err != nil {
		return fmt.Errorf("failed to connect agent to call: %w", err)
	}

	logger.Base().Info("AI participant attached",
		zap.String("meeting_id", meetingID),
		zap.String("agent_id", agent.ID),
		zap.String("voice", string(agent.Voice)))
	return nil
}
