package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_submissions_total",
			Help: "Total number of send-pdf submissions by outcome (count)",
		},
		[]string{"outcome"},
	)

	SubmissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdf_submission_duration_ms",
			Help:    "End-to-end send-pdf handling duration in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"outcome"},
	)

	DedupChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_checks_total",
			Help: "Total number of deduplication checks (count)",
		},
		[]string{"status"},
	)

	DedupCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_cache_size",
			Help: "Number of live deduplication keys (count)",
		},
	)

	RequestLogWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "request_log_writes_total",
			Help: "Total number of request log appends (count)",
		},
		[]string{"status"},
	)

	RecordSinkRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_sink_requests_total",
			Help: "Total number of record sink mirror attempts (count)",
		},
		[]string{"status"},
	)

	RecordSinkDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "record_sink_duration_ms",
			Help:    "Duration of record sink requests in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	EmailDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_dispatch_total",
			Help: "Total number of document email dispatches (count)",
		},
		[]string{"provider", "status"},
	)

	EmailDispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "email_dispatch_duration_ms",
			Help:    "Duration of email provider calls in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SubmissionsTotal,
			SubmissionDuration,
			DedupChecksTotal,
			DedupCacheSize,
			RequestLogWritesTotal,
			RecordSinkRequestsTotal,
			RecordSinkDuration,
			EmailDispatchTotal,
			EmailDispatchDuration,
			CircuitBreakerState,
			CircuitBreakerRequests,
			CircuitBreakerFailures,
			RateLimitRequestsTotal,
		)
	})
}

func ObserveSubmission(outcome string, duration time.Duration) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
	SubmissionDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

func IncDedupCheck(status string) {
	DedupChecksTotal.WithLabelValues(status).Inc()
}

func SetDedupCacheSize(size int) {
	DedupCacheSize.Set(float64(size))
}

func IncRequestLogWrite(status string) {
	RequestLogWritesTotal.WithLabelValues(status).Inc()
}

func ObserveRecordSink(status string, duration time.Duration) {
	RecordSinkRequestsTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		RecordSinkDuration.Observe(float64(duration.Milliseconds()))
	}
}

func ObserveEmailDispatch(provider, status string, duration time.Duration) {
	EmailDispatchTotal.WithLabelValues(provider, status).Inc()
	EmailDispatchDuration.WithLabelValues(provider).Observe(float64(duration.Milliseconds()))
}
