package common

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AIProxyRequests counts proxied chat-completion requests by response status.
	AIProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogify_ai_proxy_requests_total",
		Help: "Total number of AI proxy requests by response status",
	}, []string{"status"})

	// AIFallbacks counts AI helper calls answered with fallback content.
	AIFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogify_ai_fallbacks_total",
		Help: "Total number of AI helper calls resolved to fallback content",
	}, []string{"kind"})

	// CollaboratorLatency records remote call latency by backend and operation.
	CollaboratorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogify_collaborator_latency_seconds",
		Help:    "Latency of calls to storage, auth and AI collaborators in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})
)

// TrackCall returns a function that records the call latency when invoked (e.g. defer).
func TrackCall(backend, operation string) func() {
	start := time.Now()
	return func() {
		CollaboratorLatency.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	}
}
