// Package metrics exposes interview activity as Prometheus collectors fed by
// engine lifecycle hooks.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "screener"

const (
	defaultMaxIdle    = time.Hour
	defaultMaxTracked = 10000
)

// Metrics owns a private registry so several engines can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	stageVisits        *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	extractionFailures *prometheus.CounterVec
	outcomes           *prometheus.CounterVec
	inProgress         prometheus.Gauge

	maxIdle    time.Duration
	maxTracked int

	// open maps each interview in progress to the time its current stage was entered.
	mu        sync.Mutex
	open      map[string]time.Time
	lastSweep time.Time
}

// Option configures Metrics.
type Option func(*Metrics)

// WithMaxIdle sets how long an interview may sit on one stage before it is
// counted as abandoned.
func WithMaxIdle(d time.Duration) Option {
	return func(m *Metrics) {
		if d > 0 {
			m.maxIdle = d
		}
	}
}

// WithMaxTracked caps the number of interviews timed at once. When full, the
// longest idle one is dropped.
func WithMaxTracked(n int) Option {
	return func(m *Metrics) {
		if n > 0 {
			m.maxTracked = n
		}
	}
}

// New registers the interview collectors plus the Go runtime collectors.
func New(opts ...Option) *Metrics {
	m := &Metrics{
		maxIdle:    defaultMaxIdle,
		maxTracked: defaultMaxTracked,
		registry:   prometheus.NewRegistry(),
		stageVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_visits_total",
				Help:      "Total number of stage entries",
			},
			[]string{"stage"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent on a stage before completing it",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		extractionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_failures_total",
				Help:      "Completions rejected because the data did not fit the stage",
			},
			[]string{"stage", "field"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outcomes_total",
				Help:      "Screening decisions by outcome",
			},
			[]string{"outcome"},
		),
		inProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interviews_in_progress",
			Help:      "Interviews started but not yet at the closing stage",
		}),
		open: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry.MustRegister(
		m.stageVisits,
		m.stageDuration,
		m.extractionFailures,
		m.outcomes,
		m.inProgress,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing Handler.
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
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			m.stageVisits.WithLabelValues(string(e.StageID)).Inc()
			m.enter(e)
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			m.mu.Lock()
			start, ok := m.open[e.SessionID]
			m.mu.Unlock()
			if ok {
				m.stageDuration.WithLabelValues(string(e.StageID)).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
		OnExtractionFailure: func(_ context.Context, e *domain.ExtractionEvent) {
			m.extractionFailures.WithLabelValues(string(e.StageID), e.Field).Inc()
		},
		OnOutcome: func(_ context.Context, e *domain.OutcomeEvent) {
			m.outcomes.WithLabelValues(string(e.Outcome)).Inc()
		},
	}
}

// Tracked reports how many interviews are currently counted as in progress.
func (m *Metrics) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// enter keeps the in-progress gauge equal to len(m.open). Only greeting opens
// an interview and only the first closing for it ends one, so replayed turns
// from stateless clients never move the gauge twice.
func (m *Metrics) enter(e *domain.StageEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(e.Timestamp)

	_, open := m.open[e.SessionID]
	switch {
	case e.StageID == domain.StageClosing:
		if open {
			m.drop(e.SessionID)
		}
	case e.StageID == domain.StageGreeting && !open:
		if len(m.open) >= m.maxTracked {
			m.drop(m.oldest())
		}
		m.open[e.SessionID] = e.Timestamp
		m.inProgress.Inc()
	case open:
		m.open[e.SessionID] = e.Timestamp
	}
}

// sweep drops interviews idle for longer than maxIdle. It runs at most once
// per tenth of maxIdle.
func (m *Metrics) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.maxIdle/10 {
		return
	}
	m.lastSweep = now
	for id, since := range m.open {
		if now.Sub(since) > m.maxIdle {
			m.drop(id)
		}
	}
}

func (m *Metrics) oldest() string {
	var (
		id    string
		at    time.Time
		found bool
	)
	for k, since := range m.open {
		if !found || since.Before(at) {
			id, at, found = k, since, true
		}
	}
	return id
}

func (m *Metrics) drop(id string) {
	if _, ok := m.open[id]; !ok {
		return
	}
	delete(m.open, id)
	m.inProgress.Dec()
}
