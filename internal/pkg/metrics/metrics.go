package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	listingMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_listing_mutations_total",
		Help: "Listing create/update/delete operations by type and result",
	}, []string{"operation", "listing_type", "result"})

	slugRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_slug_conflict_retries_total",
		Help: "Create attempts retried after a (listing_type, slug) unique violation",
	})

	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_upstream_errors_total",
		Help: "Store, identity provider or blob storage calls that timed out or were unreachable",
	}, []string{"upstream"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveListingMutation counts a create, update or delete with its outcome.
func ObserveListingMutation(operation, listingType, result string) {
	listingMutations.WithLabelValues(operation, listingType, result).Inc()
}

func IncSlugRetry() {
	slugRetries.Inc()
}

// ObserveUpstreamError counts an unavailable upstream ("store", "identity", "storage" or "redis").
func ObserveUpstreamError(upstream string) {
	upstreamErrors.WithLabelValues(upstream).Inc()
}
