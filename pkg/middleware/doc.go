// Package middleware provides the HTTP decorators of the performance
// service: ResponseCache serves repeated reads from the two-tier cache and
// ResponseTiming records per-request latency samples.
//
// Both are plain func(http.Handler) http.Handler decorators and compose
// with any router:
//
//	r := chi.NewRouter()
//	r.Use(middleware.ResponseTiming(collector))
//	r.With(middleware.ResponseCache(coord, middleware.CacheOptions{
//		TTL:            5 * time.Minute,
//		UseDistributed: true,
//	}, logger)).Get("/api/jobs", listJobs)
package middleware
