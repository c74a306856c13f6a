// Package metrics defines the Prometheus instrumentation for the service:
// business metrics around analyses and gauges mirroring sql.DBStats.
package metrics

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics tracks analysis throughput and outcomes.
type BusinessMetrics struct {
	AnalysesTotal        *prometheus.CounterVec
	ClassificationsTotal *prometheus.CounterVec
	AnalysisDuration     *prometheus.HistogramVec
	TruthfulnessScore    prometheus.Histogram
}

// NewBusinessMetrics creates and registers the business metric set under the
// given namespace.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return &BusinessMetrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of truthfulness analyses by status.",
		}, []string{"status"}),
		ClassificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of analyses by resulting classification.",
		}, []string{"classification"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of truthfulness analyses by status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		TruthfulnessScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "truthfulness_score",
			Help:      "Distribution of truthfulness scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}

// ObserveDurationWithExemplar records a duration observation, attaching the
// current trace ID as an exemplar when the surrounding span is sampled.
func (m *BusinessMetrics) ObserveDurationWithExemplar(ctx context.Context, hv *prometheus.HistogramVec, seconds float64, status string) {
	obs := hv.WithLabelValues(status)
	if eo, ok := obs.(prometheus.ExemplarObserver); ok {
		if sc := trace.SpanContextFromContext(ctx); sc.IsSampled() {
			eo.ObserveWithExemplar(seconds, prometheus.Labels{"trace_id": sc.TraceID().String()})
			return
		}
	}
	obs.Observe(seconds)
}

// DatabaseMetrics exposes sql.DBStats as gauges.
type DatabaseMetrics struct {
	openConnections    prometheus.Gauge
	inUseConnections   prometheus.Gauge
	idleConnections    prometheus.Gauge
	maxOpenConnections prometheus.Gauge
	waitCount          prometheus.Gauge
	waitDuration       prometheus.Gauge
}

// NewDatabaseMetrics creates and registers the database gauge set under the
// given namespace.
func NewDatabaseMetrics(namespace string) *DatabaseMetrics {
	return &DatabaseMetrics{
		openConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_open_connections",
			Help:      "Number of established database connections.",
		}),
		inUseConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_in_use_connections",
			Help:      "Number of database connections currently in use.",
		}),
		idleConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_idle_connections",
			Help:      "Number of idle database connections.",
		}),
		maxOpenConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_max_open_connections",
			Help:      "Maximum number of open database connections.",
		}),
		waitCount: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_wait_count",
			Help:      "Total number of connections waited for.",
		}),
		waitDuration: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_wait_duration_seconds",
			Help:      "Total time blocked waiting for a new connection.",
		}),
	}
}

// UpdateDBStats refreshes the gauges from the current pool statistics.
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.openConnections.Set(float64(stats.OpenConnections))
	m.inUseConnections.Set(float64(stats.InUse))
	m.idleConnections.Set(float64(stats.Idle))
	m.maxOpenConnections.Set(float64(stats.MaxOpenConnections))
	m.waitCount.Set(float64(stats.WaitCount))
	m.waitDuration.Set(stats.WaitDuration.Seconds())
}
