package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled API requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genoportal_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "path", "status"})

	// HTTPDuration tracks request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genoportal_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// GalaxyRequests counts outbound compute-service API calls by operation.
	GalaxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genoportal_galaxy_requests_total",
		Help: "Total number of Galaxy API calls",
	}, []string{"operation", "outcome"})

	// JobsAwaited counts jobs that reached a terminal state while being waited on.
	JobsAwaited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genoportal_jobs_awaited_total",
		Help: "Total number of remote jobs awaited to a terminal state",
	}, []string{"state"})

	// JobPolls counts individual show-job polls issued by the waiter.
	JobPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genoportal_job_polls_total",
		Help: "Total number of job status polls",
	})

	// AnalysesRecorded counts ledger writes by tool and final status.
	AnalysesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genoportal_analyses_recorded_total",
		Help: "Total number of analysis rows recorded",
	}, []string{"tool", "status"})
)
