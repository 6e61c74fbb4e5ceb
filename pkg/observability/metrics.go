// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the tokengate server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// StoreBuckets covers user-store lookups, from sub-millisecond cache hits to
// slow database round trips.
var StoreBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokengate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// AuthOutcomesTotal counts pipeline outcomes by stage (login, token,
	// access) and reason ("Success" for successful outcomes).
	AuthOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengate_auth_outcomes_total",
			Help: "Authentication and authorization outcomes",
		},
		[]string{"stage", "reason"},
	)

	// TokensIssuedTotal counts bearer tokens handed out on login.
	TokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tokengate_tokens_issued_total",
			Help: "Tokens issued",
		},
	)

	// StoreLookupDuration records user-store lookup latency by result
	// (found, not_found, error).
	StoreLookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokengate_store_lookup_duration_seconds",
			Help:    "User store lookup latency",
			Buckets: StoreBuckets,
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthOutcomesTotal,
		TokensIssuedTotal,
		StoreLookupDuration,
	)
}
