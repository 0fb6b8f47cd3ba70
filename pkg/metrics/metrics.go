package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "objectdms_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AccessChecks counts access decisions and their outcome (allowed|denied|error).
	AccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "objectdms_access_checks_total",
			Help: "Total number of access control decisions",
		},
		[]string{"resource", "action", "result"},
	)

	// DocumentShares counts share mutations by operation (share|unshare).
	DocumentShares = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "objectdms_document_shares_total",
			Help: "Total number of document share mutations",
		},
		[]string{"operation"},
	)

	// HTTPRequests counts served HTTP requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "objectdms_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "objectdms_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
