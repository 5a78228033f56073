// Package cache provides a two-tier response cache: a process-local tier
// with per-entry TTL and a background reaper, and an optional shared tier
// backed by Redis.
//
// The coordinator implements the following policy:
//
// - Reads check the local tier first, then (optionally) the distributed tier
// - Distributed hits are promoted into the local tier with a short TTL
// - Writes always land locally; the distributed write is independent
// - Distributed faults fail open: they degrade to a miss, never to an error
// - Prometheus metrics for observability
// - Deterministic cache key generation from method, path and query
//
// # Basic Usage
//
//	// Redis is optional; pass nil for local-only caching
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	local := cache.NewLocalTier[cache.Response](cache.LocalConfig{})
//	remote := cache.NewDistributedTier[cache.Response](redisClient, cache.DistributedConfig{})
//	coord := cache.NewCoordinator(local, remote, cache.CoordinatorConfig{
//		PromotionTTL: time.Minute,
//	})
//
//	local.Start(ctx)
//	defer local.Stop()
//
//	key := cache.CacheKey{Method: "GET", Path: "/api/jobs"}.String()
//
//	result := coord.Get(ctx, key, true)
//	if !result.Hit() {
//		// Cache miss - build the response and store it
//		coord.Set(ctx, key, resp, 5*time.Minute, true)
//	}
//
// # Fail-Open Results
//
// Tier operations report a Status instead of an error:
//
//   - StatusOK - the operation succeeded (reads: hit)
//   - StatusMiss - the tier answered but holds no valid entry
//   - StatusUnavailable - the tier is not configured or faulted (an open breaker counts as a fault)
//
// # Metrics
//
//   - perf_cache_hits_total{tier} - Cache hits by tier
//   - perf_cache_misses_total - Lookups that missed every queried tier
//   - perf_cache_promotions_total - Distributed hits copied to the local tier
//   - perf_cache_local_entries - Current local tier size
//   - perf_cache_reaped_total{mode} - Expired local entries removed
//   - perf_cache_errors_total{tier,operation} - Cache operation errors
//   - perf_cache_distributed_up - Distributed tier reachability
package cache
