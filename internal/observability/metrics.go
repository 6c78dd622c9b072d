package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the webhook path and the
// processing pipeline.
type Metrics struct {
	WebhookEventsTotal *prometheus.CounterVec
	WebhookSeconds     *prometheus.HistogramVec

	PipelineRunsTotal   *prometheus.CounterVec
	PipelineStepSeconds *prometheus.HistogramVec

	AssistantRepliesTotal *prometheus.CounterVec
}

// Default creates metrics on the default registerer.
func Default() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// New creates a metrics set registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_webhook_events_total",
				Help: "Webhook events received, by event type and outcome",
			},
			[]string{"event_type", "outcome"},
		),
		WebhookSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meeting_webhook_seconds",
				Help:    "Webhook handling latency",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"event_type"},
		),
		PipelineRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_pipeline_runs_total",
				Help: "Pipeline runs, by outcome",
			},
			[]string{"outcome"},
		),
		PipelineStepSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meeting_pipeline_step_seconds",
				Help:    "Pipeline step durations",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"step"},
		),
		AssistantRepliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_assistant_replies_total",
				Help: "Post-call assistant replies, by outcome",
			},
			[]string{"outcome"},
		),
	}
}
