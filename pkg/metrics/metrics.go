// Package metrics exposes the Prometheus registry shared by the edge.
// All metrics are defined in their respective packages (cache, router,
// worker, client, push) and registered through promauto, so this package
// only serves them and documents what exists.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the edge.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - cornella_cache_hits_total{bucket} (Counter): Matches found by bucket
//   - cornella_cache_misses_total{bucket} (Counter): Lookups without a match
//   - cornella_cache_puts_total{bucket} (Counter): Entries written
//   - cornella_cache_buckets_deleted_total (Counter): Buckets removed on activation
//   - cornella_cache_errors_total{operation} (Counter): Storage operation errors
//
// Strategy Metrics (pkg/router):
//   - cornella_router_responses_total{class, source} (Counter): Responses by request class and origin
//   - cornella_router_network_failures_total{class} (Counter): Upstream failures inside strategies
//   - cornella_router_cache_write_failures_total{bucket} (Counter): Puts that failed and were skipped
//
// Lifecycle Metrics (pkg/worker):
//   - cornella_worker_passthrough_total (Counter): Requests sent to the network untouched
//   - cornella_worker_install_failures_total (Counter): Shell populations that failed
//   - cornella_worker_sync_events_total (Counter): Background sync events acknowledged
//
// Upstream Metrics (pkg/client):
//   - cornella_upstream_requests_total{host, status} (Counter): Upstream requests by host and HTTP status
//   - cornella_upstream_request_duration_seconds{host} (Histogram): Upstream round trip duration by host
//   - cornella_upstream_errors_total{class} (Counter): Errors by class (client, server, network)
//   - cornella_upstream_retries_total{error_class} (Counter): Retry attempts by error class
//   - cornella_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - cornella_upstream_retry_exhausted_total{error_class} (Counter): Calls that exhausted max retries
//
// Push Metrics (pkg/push):
//   - cornella_push_deliveries_total{outcome} (Counter): Notification deliveries by outcome
//
// Example Prometheus Queries:
//
//   # Offline answer rate
//   sum(rate(cornella_router_responses_total{source!="network"}[5m])) /
//   sum(rate(cornella_router_responses_total[5m]))
//
//   # Static cache hit rate
//   rate(cornella_cache_hits_total{bucket=~"cornella-static-.*"}[5m])
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(cornella_upstream_request_duration_seconds_bucket[5m]))
