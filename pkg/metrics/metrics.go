package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "laser"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Number of handled HTTP requests by route and status code."},
		[]string{"route", "code"},
	)
	DocumentQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "document_queries_total", Help: "Number of user document lookups by outcome (found, empty, error)."},
		[]string{"outcome"},
	)
	DocumentQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "document_query_duration_seconds", Help: "Latency of user document lookups.", Buckets: prometheus.DefBuckets},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(DocumentQueries)
	reg.MustRegister(DocumentQueryDuration)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
