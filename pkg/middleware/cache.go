package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/perfcache/pkg/cache"
	"github.com/rs/zerolog"
)

// CacheHeader reports whether a response came from the cache.
const CacheHeader = "X-Cache"

// CacheOptions configures ResponseCache.
type CacheOptions struct {
	// TTL is the lifetime of stored responses (<= 0: coordinator default)
	TTL time.Duration

	// UseDistributed also reads and writes the distributed tier
	UseDistributed bool

	// Methods lists the cacheable request methods (default: GET). HEAD is
	// never stored; it is answered from the cached GET response when GET
	// is cacheable.
	Methods []string

	// Now supplies the capture timestamp (default: time.Now)
	Now func() time.Time
}

// ResponseCache returns a decorator that serves cached responses for
// cacheable requests and stores successful downstream responses.
//
// On a hit the stored status, headers and body are replayed and the
// downstream handler is not invoked. On a miss the handler writes into a
// buffer; a 2xx response is stored first and then emitted. Nothing is
// stored when the handler panics or the request context is done.
func ResponseCache(coord *cache.Coordinator[cache.Response], opts CacheOptions, logger zerolog.Logger) func(http.Handler) http.Handler {
	if coord == nil {
		panic("response cache requires a coordinator")
	}

	methods := opts.Methods
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	cacheable := make(map[string]bool, len(methods))
	for _, m := range methods {
		cacheable[strings.ToUpper(m)] = true
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead && cacheable[http.MethodGet] {
				serveHead(w, r, next, coord, opts.UseDistributed, logger)
				return
			}
			if !cacheable[r.Method] || r.Method == http.MethodHead {
				cacheResponsesTotal.WithLabelValues("bypass").Inc()
				next.ServeHTTP(w, r)
				return
			}

			key := cache.KeyFromRequest(r).String()

			if cached, ok := lookup(coord, r, key, opts.UseDistributed, logger); ok {
				serveCached(w, r, cached, key, logger)
				return
			}

			capture := newCaptureWriter()
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			switch {
			case r.Context().Err() != nil:
				cacheStoresTotal.WithLabelValues("skipped_cancelled").Inc()
				logger.Debug().Str("key", key).Msg("Request context done, response not cached")
			case status < 200 || status > 299:
				cacheStoresTotal.WithLabelValues("skipped_status").Inc()
				logger.Debug().Str("key", key).Int("status", status).Msg("Non-2xx response not cached")
			default:
				resp := cache.NewResponse(status, capture.header, capture.body.Bytes(), now())
				store(coord, r, key, resp, opts, logger)
			}

			cacheResponsesTotal.WithLabelValues("miss").Inc()
			capture.header.Set(CacheHeader, "MISS")
			if err := capture.flush(w); err != nil {
				logger.Debug().Err(err).Str("key", key).Msg("Failed to write response")
			}
		})
	}
}

// lookup queries the coordinator. A panic inside the cache is logged and
// treated as a miss.
func lookup(coord *cache.Coordinator[cache.Response], r *http.Request, key string, useDistributed bool, logger zerolog.Logger) (resp cache.Response, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			cacheRecoveredPanicsTotal.Inc()
			logger.Error().Interface("panic", rec).Str("key", key).Msg("Recovered panic in cache lookup")
			ok = false
		}
	}()

	result := coord.Get(r.Context(), key, useDistributed)
	if !result.Hit() {
		return cache.Response{}, false
	}
	return result.Value, true
}

// store writes resp to the coordinator. A panic inside the cache is logged
// and the response is still emitted by the caller.
func store(coord *cache.Coordinator[cache.Response], r *http.Request, key string, resp cache.Response, opts CacheOptions, logger zerolog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			cacheRecoveredPanicsTotal.Inc()
			cacheStoresTotal.WithLabelValues("failed").Inc()
			logger.Error().Interface("panic", rec).Str("key", key).Msg("Recovered panic in cache store")
		}
	}()

	status := coord.Set(r.Context(), key, resp, opts.TTL, opts.UseDistributed)
	if status != cache.StatusOK {
		// Local write succeeded; the distributed tier is best effort
		logger.Debug().Str("key", key).Str("distributed", status.String()).Msg("Distributed write skipped")
	}
	cacheStoresTotal.WithLabelValues("stored").Inc()
	logger.Debug().Str("key", key).Int("status", resp.StatusCode).Msg("Cached response")
}

// serveHead answers a HEAD request from the cached GET representation. A
// miss goes to the handler and nothing is stored, since a HEAD response
// carries no body to cache.
func serveHead(w http.ResponseWriter, r *http.Request, next http.Handler, coord *cache.Coordinator[cache.Response], useDistributed bool, logger zerolog.Logger) {
	k := cache.KeyFromRequest(r)
	k.Method = http.MethodGet
	key := k.String()

	cached, ok := lookup(coord, r, key, useDistributed, logger)
	if !ok {
		cacheResponsesTotal.WithLabelValues("miss").Inc()
		w.Header().Set(CacheHeader, "MISS")
		next.ServeHTTP(w, r)
		return
	}

	w.Header().Set(CacheHeader, "HIT")
	if cached.NotModified(r) {
		serveNotModified(w, cached)
		return
	}
	cacheResponsesTotal.WithLabelValues("hit").Inc()
	cached.WriteHeaderTo(w)
}

func serveNotModified(w http.ResponseWriter, cached cache.Response) {
	cacheResponsesTotal.WithLabelValues("not_modified").Inc()
	for _, name := range []string{"ETag", "Last-Modified", "Cache-Control"} {
		if v := cached.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(http.StatusNotModified)
}

func serveCached(w http.ResponseWriter, r *http.Request, cached cache.Response, key string, logger zerolog.Logger) {
	w.Header().Set(CacheHeader, "HIT")

	if cached.NotModified(r) {
		serveNotModified(w, cached)
		return
	}

	cacheResponsesTotal.WithLabelValues("hit").Inc()
	if err := cached.WriteTo(w); err != nil {
		logger.Debug().Err(err).Str("key", key).Msg("Failed to replay cached response")
	}
}
