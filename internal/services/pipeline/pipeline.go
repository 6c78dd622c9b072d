// Package pipeline turns a finished call's transcript into a meeting
// summary through a resumable, step-checkpointed background job.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ClareAI/astra-meeting-service/internal/adapters/llm"
	"github.com/ClareAI/astra-meeting-service/internal/core/task"
	"github.com/ClareAI/astra-meeting-service/internal/domain"
	"github.com/ClareAI/astra-meeting-service/internal/observability"
	"github.com/ClareAI/astra-meeting-service/internal/prompts"
	"github.com/ClareAI/astra-meeting-service/internal/repository"
	"github.com/ClareAI/astra-meeting-service/pkg/avatar"
	"github.com/ClareAI/astra-meeting-service/pkg/logger"
)

// Step names, in execution order. Also the checkpoint keys.
const (
	StepFetch           = "fetch"
	StepParse           = "parse"
	StepResolveSpeakers = "resolve_speakers"
	StepSummarize       = "summarize"
	StepPersist         = "persist"
)

// StepNames lists every pipeline step in order.
var StepNames = []string{StepFetch, StepParse, StepResolveSpeakers, StepSummarize, StepPersist}

// Options tunes retry and locking behavior.
type Options struct {
	StepRetries  int
	RetryBackoff time.Duration
	LockTTL      time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.StepRetries <= 0 {
		out.StepRetries = 3
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = 5 * time.Second
	}
	if out.LockTTL <= 0 {
		out.LockTTL = 15 * time.Minute
	}
	return out
}

// Pipeline runs the five-step post-call processing job: fetch transcript,
// parse JSONL, resolve speakers, summarize, persist. Each step's output
// is checkpointed before the next step runs, so a resumed run skips
// already-finished work.
type Pipeline struct {
	repos       repository.Manager
	completions llm.Client
	model       string
	checkpoints CheckpointStore
	httpClient  *http.Client
	metrics     *observability.Metrics
	opts        Options
}

// New creates a pipeline. httpClient fetches transcript artifacts; pass
// nil to use a default with a generous timeout.
func New(repos repository.Manager, completions llm.Client, model string, checkpoints CheckpointStore, httpClient *http.Client, metrics *observability.Metrics, opts Options) *Pipeline {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Pipeline{
		repos:       repos,
		completions: completions,
		model:       model,
		checkpoints: checkpoints,
		httpClient:  httpClient,
		metrics:     metrics,
		opts:        opts.withDefaults(),
	}
}

// Run executes the job for one trigger. Duplicate triggers for a meeting
// that already has a run in flight are dropped. A failed run leaves the
// meeting in processing and its checkpoints in place for the next trigger.
func (p *Pipeline) Run(ctx context.Context, t task.ProcessingTask) error {
	log := logger.Base().With(zap.String("meeting_id", t.MeetingID))

	acquired, err := p.checkpoints.AcquireLock(ctx, t.MeetingID, p.opts.LockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !acquired {
		log.Warn("pipeline run already in flight, dropping duplicate trigger")
		p.metrics.PipelineRunsTotal.WithLabelValues("duplicate").Inc()
		return nil
	}
	defer func() {
		if err := p.checkpoints.ReleaseLock(ctx, t.MeetingID); err != nil {
			log.Warn("failed to release job lock", zap.Error(err))
		}
	}()

	if err := p.run(ctx, t); err != nil {
		log.Error("pipeline run failed, meeting stays in processing", zap.Error(err))
		p.metrics.PipelineRunsTotal.WithLabelValues("failure").Inc()
		return err
	}

	if err := p.checkpoints.Clear(ctx, t.MeetingID); err != nil {
		log.Warn("failed to clear checkpoints after completed run", zap.Error(err))
	}
	p.metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	log.Info("pipeline run completed")
	return nil
}

func (p *Pipeline) run(ctx context.Context, t task.ProcessingTask) error {
	rawText, err := p.step(ctx, t.MeetingID, StepFetch, func() (string, error) {
		return p.fetchTranscript(ctx, t.TranscriptURL)
	})
	if err != nil {
		return err
	}

	parsedJSON, err := p.step(ctx, t.MeetingID, StepParse, func() (string, error) {
		entries, err := ParseTranscript(rawText)
		if err != nil {
			return "", err
		}
		return marshalStep(entries)
	})
	if err != nil {
		return err
	}
	var entries []domain.TranscriptEntry
	if err := json.Unmarshal([]byte(parsedJSON), &entries); err != nil {
		return fmt.Errorf("corrupt parse checkpoint: %w", err)
	}

	annotatedJSON, err := p.step(ctx, t.MeetingID, StepResolveSpeakers, func() (string, error) {
		annotated, err := p.resolveSpeakers(ctx, entries)
		if err != nil {
			return "", err
		}
		return marshalStep(annotated)
	})
	if err != nil {
		return err
	}

	summary, err := p.step(ctx, t.MeetingID, StepSummarize, func() (string, error) {
		return p.summarize(ctx, annotatedJSON)
	})
	if err != nil {
		return err
	}

	_, err = p.step(ctx, t.MeetingID, StepPersist, func() (string, error) {
		if err := p.repos.Meetings().SaveSummary(ctx, t.MeetingID, summary); err != nil {
			return "", err
		}
		return "done", nil
	})
	return err
}

// step runs one checkpointed unit of work: a recorded output short-circuits
// the step entirely; otherwise fn is retried with backoff and its output
// recorded before the next step may run.
func (p *Pipeline) step(ctx context.Context, meetingID, name string, fn func() (string, error)) (string, error) {
	if output, ok, err := p.checkpoints.Get(ctx, meetingID, name); err != nil {
		return "", fmt.Errorf("failed to read %s checkpoint: %w", name, err)
	} else if ok {
		logger.Base().Debug("skipping checkpointed step",
			zap.String("meeting_id", meetingID), zap.String("step", name))
		return output, nil
	}

	started := time.Now()
	var output string
	var err error
	for attempt := 1; attempt <= p.opts.StepRetries; attempt++ {
		output, err = fn()
		if err == nil {
			break
		}
		logger.Base().Warn("pipeline step failed",
			zap.String("meeting_id", meetingID),
			zap.String("step", name),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < p.opts.StepRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(p.opts.RetryBackoff * time.Duration(attempt)):
			}
		}
	}
	p.metrics.PipelineStepSeconds.WithLabelValues(name).Observe(time.Since(started).Seconds())
	if err != nil {
		return "", fmt.Errorf("step %s exhausted retries: %w", name, err)
	}

	if err := p.checkpoints.Put(ctx, meetingID, name, output); err != nil {
		return "", fmt.Errorf("failed to record %s checkpoint: %w", name, err)
	}
	return output, nil
}

func (p *Pipeline) fetchTranscript(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build transcript request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", domain.NewUpstreamError("transcript", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.NewUpstreamError("transcript",
			fmt.Errorf("fetch %s: status %d", url, resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewUpstreamError("transcript", err)
	}
	return string(data), nil
}

// ParseTranscript decodes newline-delimited JSON transcript records.
// Any malformed line fails the whole parse; partial transcripts would
// produce misleading summaries.
func ParseTranscript(text string) ([]domain.TranscriptEntry, error) {
	var entries []domain.TranscriptEntry
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var entry domain.TranscriptEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("malformed transcript record on line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan transcript: %w", err)
	}
	return entries, nil
}

// resolveSpeakers attaches a display name and avatar to every transcript
// entry. Speaker ids are looked up against both users and agents; an id
// matching neither resolves to "Unknown" with a fallback avatar. This
// step never fails the pipeline on an unknown speaker.
func (p *Pipeline) resolveSpeakers(ctx context.Context, entries []domain.TranscriptEntry) ([]domain.AnnotatedTranscriptEntry, error) {
	idSet := make(map[string]struct{})
	for _, entry := range entries {
		idSet[entry.SpeakerID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := p.repos.Users().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	agents, err := p.repos.Agents().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	speakers := make(map[string]domain.SpeakerInfo, len(users)+len(agents))
	for _, user := range users {
		info := domain.SpeakerInfo{Name: user.Name}
		if user.Image != nil && *user.Image != "" {
			info.Image = *user.Image
		} else {
			info.Image = avatar.URI(avatar.VariantInitials, user.Name)
		}
		speakers[user.ID] = info
	}
	for _, agent := range agents {
		speakers[agent.ID] = domain.SpeakerInfo{
			Name:  agent.Name,
			Image: avatar.URI(avatar.VariantGlass, agent.Name),
		}
	}

	annotated := make([]domain.AnnotatedTranscriptEntry, 0, len(entries))
	for _, entry := range entries {
		info, ok := speakers[entry.SpeakerID]
		if !ok {
			info = domain.SpeakerInfo{
				Name:  "Unknown",
				Image: avatar.URI(avatar.VariantInitials, "Unknown"),
			}
		}
		annotated = append(annotated, domain.AnnotatedTranscriptEntry{
			TranscriptEntry: entry,
			User:            info,
		})
	}
	return annotated, nil
}

func (p *Pipeline) summarize(ctx context.Context, annotatedJSON string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.SummarizerSystemPrompt},
		{Role: llm.RoleUser, Content: prompts.SummarizeUserPrompt(annotatedJSON)},
	}
	return p.completions.Complete(ctx, p.model, messages)
}

func marshalStep(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal step output: %w", err)
	}
	return string(data), nil
}
