// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Ranking engine metrics. The dataset label is "rankings" or "reviews".
var (
	RankingComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_compute_duration_seconds",
			Help:    "Time spent loading snapshots and building a ranking dataset",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"dataset"},
	)

	RankingCompaniesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_companies_scored_total",
			Help: "Companies aggregated and scored",
		},
		[]string{"dataset"},
	)

	RankingHistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_history_writes_total",
			Help: "History row writes by outcome (inserted, updated, failed)",
		},
		[]string{"outcome"},
	)

	RankingCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_cache_requests_total",
			Help: "Cache lookups by kind and result (hit, miss, error)",
		},
		[]string{"kind", "result"},
	)

	RankingDegradedResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_degraded_responses_total",
			Help: "Empty datasets returned because the database was unavailable",
		},
		[]string{"dataset"},
	)

	RankingIndexedDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_indexed_documents_total",
			Help: "Ranking documents sent to the search index by result",
		},
		[]string{"result"},
	)

	RankingAlertsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_alerts_published_total",
			Help: "Score movement alerts by channel",
		},
		[]string{"channel"},
	)
)
