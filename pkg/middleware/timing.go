package middleware

import (
	"net/http"

	"github.com/Sternrassler/perfcache/pkg/metrics"
	"github.com/felixge/httpsnoop"
)

// ResponseTiming returns a decorator recording the latency, method, URL and
// final status of every request into collector.
func ResponseTiming(collector *metrics.Collector) func(http.Handler) http.Handler {
	if collector == nil {
		panic("response timing requires a collector")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			collector.RecordResponseTime(metrics.ResponseSample{
				URL:        r.URL.RequestURI(),
				Method:     r.Method,
				StatusCode: m.Code,
				Duration:   m.Duration,
			})
		})
	}
}
