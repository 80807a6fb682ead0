package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/idea-prioritizer/internal/evaluation"
)

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	require.NoError(t, m.Observe(context.Background(), &evaluation.Trace{
		Retrieved: true,
		Parsed:    evaluation.ParsedResponse{ScoreFound: true, JustificationFound: true},
		Duration:  2 * time.Second,
	}))
	require.NoError(t, m.Observe(context.Background(), &evaluation.Trace{
		Parsed: evaluation.ParsedResponse{JustificationFound: true},
	}))
	require.NoError(t, m.Observe(context.Background(), nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdeasEvaluated.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdeasEvaluated.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseFallbacks.WithLabelValues("score")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ParseFallbacks.WithLabelValues("justification")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EvaluationTime))
}

func TestObserveRanking(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRanking(false)
	m.ObserveRanking(true)
	m.ObserveRanking(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RankingRuns.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RankingRuns.WithLabelValues(OutcomeDegraded)))
}

func TestTrackRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	done := m.TrackRun()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsInFlight))
	done(nil)
	m.TrackRun()(errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRuns.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRuns.WithLabelValues("false")))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
