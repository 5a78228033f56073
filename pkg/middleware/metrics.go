package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the response cache decorator.
var (
	cacheResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perf_middleware_cache_responses_total",
		Help: "Responses served by the cache decorator by outcome (hit, miss, not_modified, bypass)",
	}, []string{"outcome"})

	cacheStoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perf_middleware_cache_stores_total",
		Help: "Write-back decisions of the cache decorator by result (stored, skipped_status, skipped_cancelled, failed)",
	}, []string{"result"})

	cacheRecoveredPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perf_middleware_cache_recovered_panics_total",
		Help: "Panics recovered inside cache lookup or store",
	})
)
