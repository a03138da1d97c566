package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	jobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "status"},
	)
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduled_job_duration_seconds",
			Help:    "Duration of scheduled job runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
	purgedRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purged_requests_total",
			Help: "Total number of requests deleted by the retention purge",
		},
	)
	rolloverStragglers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rollover_straggler_users_total",
			Help: "Users whose drink counters missed the previous rollover reset (double-count hazard)",
		},
	)
)

// InitMetrics registers the job metrics. Call once from main.
func InitMetrics() {
	prometheus.MustRegister(jobRunsTotal)
	prometheus.MustRegister(jobDuration)
	prometheus.MustRegister(purgedRequestsTotal)
	prometheus.MustRegister(rolloverStragglers)
}
