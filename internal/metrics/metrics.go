// Package metrics exports pipeline counters in the Prometheus format.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/revise"
)

const namespace = "kickoff"

// Run outcomes used as the "result" label.
const (
	ResultSuccess = "success"
	ResultWarning = "warning"
	ResultFailure = "failure"
)

// Metrics is a pipeline observer backed by its own registry. It is safe for
// concurrent runs.
type Metrics struct {
	pipeline.NopObserver

	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	attempts *prometheus.CounterVec
	issues   *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// New creates the collectors and registers them with a fresh registry along
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by result.",
		}, []string{"result"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Validated stage attempts by stage and resulting state.",
		}, []string{"stage", "state"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_issues_total",
			Help:      "Validation issues reported per stage, across all attempts.",
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Fatal failures by stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of successful pipeline runs.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		}),
	}
	m.registry.MustRegister(
		m.runs, m.attempts, m.issues, m.failures, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnAttempt counts the attempt and its issues.
func (m *Metrics) OnAttempt(_ context.Context, _ string, ev revise.AttemptEvent) {
	m.attempts.WithLabelValues(ev.Stage, ev.State.String()).Inc()
	if len(ev.Issues) > 0 {
		m.issues.WithLabelValues(ev.Stage).Add(float64(len(ev.Issues)))
	}
}

// OnComplete counts the run and records its duration.
func (m *Metrics) OnComplete(_ context.Context, res *pipeline.Result) {
	result := ResultSuccess
	if res.HasWarnings() {
		result = ResultWarning
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(res.DurationSeconds())
}

// OnFailure counts the failed run and the stage that failed.
func (m *Metrics) OnFailure(_ context.Context, _ string, err error) {
	m.runs.WithLabelValues(ResultFailure).Inc()
	stage := pipeline.FailedStage(err)
	if stage == "" {
		stage = "unknown"
	}
	m.failures.WithLabelValues(stage).Inc()
}
