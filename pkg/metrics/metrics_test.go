package metrics

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func resetRegistry() {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
}

func TestNewBusinessMetrics(t *testing.T) {
	resetRegistry()

	m := NewBusinessMetrics("veracity")
	require.NotNil(t, m)

	m.AnalysesTotal.WithLabelValues("success").Inc()
	m.AnalysesTotal.WithLabelValues("success").Inc()
	m.AnalysesTotal.WithLabelValues("degraded").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("degraded")))

	m.ClassificationsTotal.WithLabelValues("True").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClassificationsTotal.WithLabelValues("True")))
}

func TestTruthfulnessScoreHistogram(t *testing.T) {
	resetRegistry()

	m := NewBusinessMetrics("veracity")
	m.TruthfulnessScore.Observe(75.0)
	m.TruthfulnessScore.Observe(0.0)
	m.TruthfulnessScore.Observe(100.0)

	count := testutil.CollectAndCount(m.TruthfulnessScore)
	assert.Equal(t, 1, count, "Expected one histogram series")
}

func TestObserveDurationWithExemplarNoSpan(t *testing.T) {
	resetRegistry()

	m := NewBusinessMetrics("veracity")

	// Without a sampled span the observation falls back to a plain Observe
	m.ObserveDurationWithExemplar(context.Background(), m.AnalysisDuration, 0.25, "success")

	count := testutil.CollectAndCount(m.AnalysisDuration)
	assert.Equal(t, 1, count, "Expected one histogram series after observing")
}

func TestDatabaseMetrics(t *testing.T) {
	resetRegistry()

	m := NewDatabaseMetrics("veracity")
	require.NotNil(t, m)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	m.UpdateDBStats(db)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.maxOpenConnections))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.openConnections), 0.0)
}
