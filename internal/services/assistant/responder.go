// Package assistant answers chat messages on a completed meeting's
// channel as the meeting's agent, grounded in the generated summary.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ClareAI/astra-meeting-service/internal/adapters/chat"
	"github.com/ClareAI/astra-meeting-service/internal/adapters/llm"
	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/prompts"
	"github.com/ClareAI/astra-meeting-service/internal/repository"
	"github.com/ClareAI/astra-meeting-service/pkg/avatar"
	"github.com/ClareAI/astra-meeting-service/pkg/logger"
)

// historyLimit caps how many prior messages ground the reply.
const historyLimit = 5

// Responder handles message.new events for completed meetings.
type Responder struct {
	repos       repository.Manager
	chatSvc     chat.Service
	completions llm.Client
	model       string
}

// New creates a post-call assistant responder.
func New(repos repository.Manager, chatSvc chat.Service, completions llm.Client, model string) *Responder {
	return &Responder{
		repos:       repos,
		chatSvc:     chatSvc,
		completions: completions,
		model:       model,
	}
}

// Respond builds a grounded prompt for the new message and posts the
// model's reply to the channel as the agent. The meeting must exist and
// be completed (NotFound otherwise). A message authored by the agent
// itself is a silent no-op so the agent never answers its own replies.
// An empty completion is surfaced as an error and nothing is sent.
func (r *Responder) Respond(ctx context.Context, event *domain.MessageNewEvent) error {
	meetingID := event.ChannelID

	meeting, err := r.repos.Meetings().GetByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if meeting.Status != domain.MeetingStatusCompleted {
		return domain.NotFoundError("completed meeting", meetingID)
	}

	agent, err := r.repos.Agents().GetByID(ctx, meeting.AgentID)
	if err != nil {
		return err
	}

	if event.User.ID == agent.ID {
		logger.Base().Debug("ignoring agent's own message",
			zap.String("meeting_id", meetingID), zap.String("agent_id", agent.ID))
		return nil
	}

	summary := ""
	if meeting.Summary != nil {
		summary = *meeting.Summary
	}
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.PostCallSystemPrompt(summary, agent.Instructions)},
	}
	history, err := r.history(ctx, meetingID, agent.ID)
	if err != nil {
		// History is an enrichment; a chat provider hiccup should not
		// block answering the message we already hold.
		logger.Base().Warn("failed to load channel history",
			zap.String("meeting_id", meetingID), zap.Error(err))
	}
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: event.Message.Text})

	reply, err := r.completions.Complete(ctx, r.model, messages)
	if err != nil {
		return fmt.Errorf("assistant completion failed: %w", err)
	}

	identity := chat.User{
		ID:    agent.ID,
		Name:  agent.Name,
		Image: avatar.URI(avatar.VariantGlass, agent.Name),
	}
	if err := r.chatSvc.UpsertUser(ctx, identity); err != nil {
		return fmt.Errorf("failed to upsert agent chat identity: %w", err)
	}
	if err := r.chatSvc.SendMessage(ctx, meetingID, chat.Message{Text: reply, User: identity}); err != nil {
		return fmt.Errorf("failed to send agent reply: %w", err)
	}

	logger.Base().Info("assistant reply sent",
		zap.String("meeting_id", meetingID), zap.String("agent_id", agent.ID))
	return nil
}

// history maps the last non-empty channel messages to completion turns:
// messages authored by the agent become assistant turns, all others user
// turns.
func (r *Responder) history(ctx context.Context, channelID, agentID string) ([]llm.Message, error) {
	recent, err := r.chatSvc.RecentMessages(ctx, channelID, historyLimit)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(recent))
	for _, msg := range recent {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		role := llm.RoleUser
		if msg.User.ID == agentID {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Text})
	}
	return messages, nil
}
