package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the interview collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	sessions   prometheus.Counter
	answers    *prometheus.CounterVec
	sections   *prometheus.CounterVec
	narratives *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boletim_sessions_started_total",
			Help: "Total number of interview sessions started",
		}),
		answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boletim_answers_total",
				Help: "Total number of submitted answers by outcome",
			},
			[]string{"section_id", "outcome"},
		),
		sections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boletim_sections_completed_total",
				Help: "Total number of sections left behind, by whether they were skipped",
			},
			[]string{"section_id", "skipped"},
		),
		narratives: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boletim_narrative_duration_seconds",
				Help:    "Duration of narrative generation calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"section_id", "outcome"},
		),
	}
	m.registry.MustRegister(m.sessions, m.answers, m.sections, m.narratives)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStarted: func(ctx context.Context, e *domain.EventBase) {
			m.sessions.Inc()
		},
		OnAnswerAccepted: func(ctx context.Context, e *domain.AnswerEvent) {
			m.answers.WithLabelValues(e.SectionID, "accepted").Inc()
		},
		OnAnswerRejected: func(ctx context.Context, e *domain.AnswerEvent) {
			m.answers.WithLabelValues(e.SectionID, "rejected").Inc()
		},
		OnSectionCompleted: func(ctx context.Context, e *domain.SectionCompletedEvent) {
			m.sections.WithLabelValues(e.SectionID, boolLabel(e.Skipped)).Inc()
		},
		OnNarrative: func(ctx context.Context, e *domain.NarrativeEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.narratives.WithLabelValues(e.SectionID, outcome).Observe(e.Duration.Seconds())
		},
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
