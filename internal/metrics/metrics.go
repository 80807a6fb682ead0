// Package metrics exposes Prometheus collectors for pipeline runs.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonathan/idea-prioritizer/internal/evaluation"
)

// Ranking outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
)

// Metrics holds the collectors registered for one registry.
type Metrics struct {
	IdeasEvaluated   *prometheus.CounterVec
	ParseFallbacks   *prometheus.CounterVec
	EvaluationTime   prometheus.Histogram
	RankingRuns      *prometheus.CounterVec
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	RunsInFlight     prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		IdeasEvaluated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ideas_evaluated_total",
				Help: "Total number of ideas evaluated, by whether retrieval was requested",
			},
			[]string{"retrieval"},
		),
		ParseFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_parse_fallbacks_total",
				Help: "Final answers missing a field, by field",
			},
			[]string{"field"},
		),
		EvaluationTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "evaluation_duration_seconds",
				Help:    "Duration of a single two-phase evaluation in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		RankingRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ranking_runs_total",
				Help: "Final ranking calls, by outcome",
			},
			[]string{"outcome"},
		),
		PipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Pipeline runs, by whether they completed",
			},
			[]string{"success"},
		),
		PipelineDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeline_duration_seconds",
				Help:    "Duration of a full pipeline run in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		RunsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pipeline_runs_in_flight",
				Help: "Pipeline runs currently executing",
			},
		),
	}
}

// Observe records one evaluation trace. It never fails.
func (m *Metrics) Observe(_ context.Context, trace *evaluation.Trace) error {
	if trace == nil {
		return nil
	}
	m.IdeasEvaluated.WithLabelValues(strconv.FormatBool(trace.Retrieved)).Inc()
	if !trace.Parsed.ScoreFound {
		m.ParseFallbacks.WithLabelValues("score").Inc()
	}
	if !trace.Parsed.JustificationFound {
		m.ParseFallbacks.WithLabelValues("justification").Inc()
	}
	m.EvaluationTime.Observe(trace.Duration.Seconds())
	return nil
}

// ObserveRanking records a ranking call outcome.
func (m *Metrics) ObserveRanking(degraded bool) {
	outcome := OutcomeOK
	if degraded {
		outcome = OutcomeDegraded
	}
	m.RankingRuns.WithLabelValues(outcome).Inc()
}

// TrackRun marks a run as started and returns a func that records its end.
func (m *Metrics) TrackRun() func(err error) {
	start := time.Now()
	m.RunsInFlight.Inc()
	return func(err error) {
		m.RunsInFlight.Dec()
		m.PipelineDuration.Observe(time.Since(start).Seconds())
		m.PipelineRuns.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
	}
}
