package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the optional Prometheus instrumentation for an index
// (spec 6, "track_stats" promoted to a process-wide surface). A nil
// *Metrics is valid everywhere it's accepted; callers that never
// configure metrics pay nothing beyond a nil check.
type Metrics struct {
	BuildsTotal      prometheus.Counter
	BuildDuration    prometheus.Histogram
	BuildDegenerate  prometheus.Counter
	QueriesTotal     *prometheus.CounterVec
	QueryDuration    *prometheus.HistogramVec
	DistanceEvalFrac prometheus.Histogram
}

// NewMetrics registers and returns a fresh Metrics instance against the
// default Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		BuildsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atria_builds_total",
			Help: "Total number of cluster tree builds completed",
		}),
		BuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "atria_build_duration_seconds",
			Help: "Wall time to construct a cluster tree",
		}),
		BuildDegenerate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atria_build_degenerate_leaves_total",
			Help: "Leaves created by a failed split rather than the min_points rule",
		}),
		QueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atria_queries_total",
			Help: "Total queries served, by kind",
		}, []string{"kind"}),
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "atria_query_duration_seconds",
			Help: "Query latency, by kind",
		}, []string{"kind"}),
		DistanceEvalFrac: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "atria_query_distance_eval_fraction",
			Help:    "distance_calcs / N for a single query, the principal pruning-effectiveness metric",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveBuild records a completed construction.
func (m *Metrics) ObserveBuild(seconds float64, degenerateLeaves int) {
	if m == nil {
		return
	}
	m.BuildsTotal.Inc()
	m.BuildDuration.Observe(seconds)
	if degenerateLeaves > 0 {
		m.BuildDegenerate.Add(float64(degenerateLeaves))
	}
}

// ObserveQuery records a completed query of the given kind ("knn",
// "range", "count_range").
func (m *Metrics) ObserveQuery(kind string, seconds, fk float64) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(kind).Inc()
	m.QueryDuration.WithLabelValues(kind).Observe(seconds)
	m.DistanceEvalFrac.Observe(fk)
}
