package domain

// PipelineMetrics is the snapshot served by GET /v1/metrics/pipeline.
// Values are read back from the Prometheus counters, so they are
// cumulative over the process lifetime.
type PipelineMetrics struct {
	TotalRuns        int64   `json:"total_runs"`
	SuccessfulRuns   int64   `json:"successful_runs"`
	FailedRuns       int64   `json:"failed_runs"`
	CancelledRuns    int64   `json:"cancelled_runs"`
	FailureRate      float64 `json:"failure_rate"`
	ExplanationCalls int64   `json:"explanation_calls"`
	FallbackRate     float64 `json:"fallback_rate"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
}
