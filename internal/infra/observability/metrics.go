package observability

import (
	"time"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the advisor.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	stageDuration        *prometheus.HistogramVec
	runsTotal            *prometheus.CounterVec
	externalErrors       *prometheus.CounterVec
	explanationsTotal    *prometheus.CounterVec
	cacheHits            *prometheus.CounterVec
	cacheMisses          *prometheus.CounterVec
	snapshotWriteFailure prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_stage_duration_seconds",
				Help:    "Duration of pipeline stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_runs_total",
				Help: "Total analysis runs by terminal status.",
			},
			[]string{"status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_external_errors_total",
				Help: "Total errors from external collaborator calls.",
			},
			[]string{"service"},
		),
		explanationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_explanations_total",
				Help: "Explanation generations by outcome (generated or fallback).",
			},
			[]string{"outcome"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		snapshotWriteFailure: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_snapshot_write_failures_total",
				Help: "Session snapshot writes that were dropped.",
			},
		),
	}
}

// RecordStageDuration records the duration of one pipeline stage.
func (m *Metrics) RecordStageDuration(stage domain.Stage, d time.Duration) {
	m.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// IncrRun increments the run counter with a terminal status label.
func (m *Metrics) IncrRun(status string) {
	m.runsTotal.WithLabelValues(status).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrExplanation counts one explanation generation by outcome.
func (m *Metrics) IncrExplanation(outcome string) {
	m.explanationsTotal.WithLabelValues(outcome).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSnapshotWriteFailure counts a dropped session snapshot write.
func (m *Metrics) IncrSnapshotWriteFailure() {
	m.snapshotWriteFailure.Inc()
}

// GetPipelineSnapshot returns a snapshot of pipeline metrics suitable
// for the GET /v1/metrics/pipeline endpoint.
func (m *Metrics) GetPipelineSnapshot() *domain.PipelineMetrics {
	success := getCounterValue(m.runsTotal, "success")
	failed := getCounterValue(m.runsTotal, "failed")
	cancelled := getCounterValue(m.runsTotal, "cancelled")
	total := success + failed + cancelled

	generated := getCounterValue(m.explanationsTotal, "generated")
	fallback := getCounterValue(m.explanationsTotal, "fallback")
	explanations := generated + fallback

	hits := getCounterValue(m.cacheHits, "product_gen")
	misses := getCounterValue(m.cacheMisses, "product_gen")

	failureRate := float64(0)
	if total > 0 {
		failureRate = failed / total
	}
	fallbackRate := float64(0)
	if explanations > 0 {
		fallbackRate = fallback / explanations
	}
	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.PipelineMetrics{
		TotalRuns:        int64(total),
		SuccessfulRuns:   int64(success),
		FailedRuns:       int64(failed),
		CancelledRuns:    int64(cancelled),
		FailureRate:      failureRate,
		ExplanationCalls: int64(explanations),
		FallbackRate:     fallbackRate,
		CacheHitRate:     cacheHitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
