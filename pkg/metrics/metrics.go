// Package metrics collects in-process performance data: cache hit/miss
// counters, a bounded window of response times and a bounded window of
// memory samples. Derived statistics are computed on demand.
//
// The Collector is an explicitly constructed object; create one per
// service and pass it to whichever component records into it.
//
// Prometheus metrics are registered via promauto in their respective
// packages (cache, metrics, health, middleware) on the default registry:
//
// Cache Metrics (pkg/cache):
//   - perf_cache_hits_total{tier} (Counter): Cache hits by tier
//   - perf_cache_misses_total (Counter): Cache misses
//   - perf_cache_promotions_total (Counter): Distributed hits promoted locally
//   - perf_cache_local_entries (Gauge): Local tier size
//   - perf_cache_reaped_total{mode} (Counter): Expired local entries removed
//   - perf_cache_errors_total{tier, operation} (Counter): Cache operation errors
//   - perf_cache_distributed_up (Gauge): Distributed tier reachability
//
// Request Metrics (pkg/metrics):
//   - perf_http_request_duration_seconds{method, status} (Histogram): Request duration
//   - perf_process_memory_bytes{kind} (Gauge): Last memory sample (rss, heap_total, heap_used, external)
//
// Health Metrics (pkg/health):
//   - perf_health_status (Gauge): 0 healthy, 1 warning
//   - perf_health_samples_total (Counter): Memory samples recorded
//
// Middleware Metrics (pkg/middleware):
//   - perf_middleware_cache_responses_total{outcome} (Counter): hit, miss, not_modified, bypass
//   - perf_middleware_cache_stores_total{result} (Counter): Write-back decisions
//   - perf_middleware_cache_recovered_panics_total (Counter): Panics recovered in cache code
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(perf_cache_hits_total[5m])) /
//   (sum(rate(perf_cache_hits_total[5m])) + sum(rate(perf_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(perf_http_request_duration_seconds_bucket[5m]))
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the Prometheus registerer all perfcache metrics are registered on.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the Prometheus gatherer exposing Registry.
var Gatherer = prometheus.DefaultGatherer

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "perf_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by method and status",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "status"})

	processMemory = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "perf_process_memory_bytes",
		Help: "Process memory from the latest sample by kind",
	}, []string{"kind"})
)

func observeResponse(s ResponseSample) {
	requestDuration.WithLabelValues(s.Method, strconv.Itoa(s.StatusCode)).Observe(s.Duration.Seconds())
}

func observeMemory(s MemorySample) {
	processMemory.WithLabelValues("rss").Set(float64(s.RSS))
	processMemory.WithLabelValues("heap_total").Set(float64(s.HeapTotal))
	processMemory.WithLabelValues("heap_used").Set(float64(s.HeapUsed))
	processMemory.WithLabelValues("external").Set(float64(s.External))
}
