package performance

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Sternrassler/perfcache/pkg/metrics"
)

// CacheReport holds the hit/miss counters.
type CacheReport struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// PerformanceReport holds the request and memory statistics.
type PerformanceReport struct {
	// AverageResponseTime is in milliseconds over the response-time window
	AverageResponseTime float64              `json:"averageResponseTime"`
	TotalRequests       int                  `json:"totalRequests"`
	MemoryUsage         metrics.MemorySample `json:"memoryUsage"`
	CacheSize           int                  `json:"cacheSize"`
}

// DistributedTierReport describes the distributed tier.
type DistributedTierReport struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// MetricsReport is the operator-facing metrics document.
type MetricsReport struct {
	Cache           CacheReport           `json:"cache"`
	Performance     PerformanceReport     `json:"performance"`
	DistributedTier DistributedTierReport `json:"distributedTier"`
}

// GetMetrics assembles the metrics report. It does no distributed I/O;
// Connected reflects the last observed distributed tier outcome.
func (s *Service) GetMetrics(ctx context.Context) MetricsReport {
	hits, misses := s.collector.Hits(), s.collector.Misses()
	derived := s.collector.ComputeDerived()

	return MetricsReport{
		Cache: CacheReport{
			Hits:    hits,
			Misses:  misses,
			HitRate: metrics.HitRate(hits, misses),
		},
		Performance: PerformanceReport{
			AverageResponseTime: derived.AvgResponseTimeMs,
			TotalRequests:       derived.TotalRequests,
			MemoryUsage:         s.monitor.MemoryUsage(ctx),
			CacheSize:           derived.CacheSize,
		},
		DistributedTier: DistributedTierReport{
			Enabled:   s.coord.Distributed().Configured(),
			Connected: s.coord.DistributedConnected(),
		},
	}
}

// MetricsHandler serves GetMetrics as JSON.
func (s *Service) MetricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.GetMetrics(r.Context()))
	})
}

// HealthHandler serves HealthCheck as JSON. A warning is advisory and is
// still answered with 200.
func (s *Service) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.HealthCheck(r.Context()))
	})
}

// ClearCacheHandler flushes both tiers. It answers 204 on success and 503
// if the distributed tier could not be flushed.
func (s *Service) ClearCacheHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.ClearCache(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to encode response")
	}
}
