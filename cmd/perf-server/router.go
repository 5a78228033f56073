package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/perfcache/pkg/metrics"
	"github.com/Sternrassler/perfcache/pkg/middleware"
	"github.com/Sternrassler/perfcache/pkg/performance"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter registers the demo API, the operator endpoints and the
// middleware stack. Only the read-heavy content routes are cached.
func newRouter(svc *performance.Service, ttl time.Duration, useDistributed bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(svc.ResponseTiming())

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(svc))
	r.Handle("/metrics", promhttp.InstrumentMetricHandler(
		metrics.Registry, promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{}),
	))

	cached := svc.ResponseCache(middleware.CacheOptions{
		TTL:            ttl,
		UseDistributed: useDistributed,
	})

	r.Route("/api", func(r chi.Router) {
		r.With(cached).Get("/jobs", listJobs)
		r.With(cached).Get("/testimonials", listTestimonials)

		r.Route("/performance", func(r chi.Router) {
			r.Method(http.MethodGet, "/metrics", svc.MetricsHandler())
			r.Method(http.MethodGet, "/health", svc.HealthHandler())
			r.Method(http.MethodDelete, "/cache", svc.ClearCacheHandler())
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler answers 200 whenever the process can serve. An unreachable
// distributed tier only degrades caching, so it is reported but not fatal.
func readyHandler(svc *performance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "OK"
		cache := svc.Cache()
		if cache.Distributed().Configured() && !cache.DistributedReachable(r.Context()) {
			status = "DEGRADED: distributed cache unreachable"
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, status)
	}
}
