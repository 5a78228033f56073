package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by tier (local, distributed)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perf_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"tier"},
	)

	// CacheMisses tracks lookups that missed every queried tier
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "perf_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// CachePromotions tracks distributed hits copied into the local tier
	CachePromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "perf_cache_promotions_total",
			Help: "Total number of distributed tier hits promoted to the local tier",
		},
	)

	// LocalEntries tracks the current number of entries in the local tier
	LocalEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "perf_cache_local_entries",
			Help: "Current number of entries held by the local cache tier",
		},
	)

	// CacheReaped tracks expired local entries removed by the reaper or lazily
	CacheReaped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perf_cache_reaped_total",
			Help: "Total number of expired local entries removed",
		},
		[]string{"mode"}, // "lazy", "sweep"
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perf_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"tier", "operation"}, // operation: "get", "set", "delete", "clear", "size", "ping"
	)

	// DistributedUp is 1 when the distributed tier answered its last operation
	DistributedUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "perf_cache_distributed_up",
			Help: "Whether the distributed cache tier was reachable on its last operation",
		},
	)
)
