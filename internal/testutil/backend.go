// Package testutil provides testing utilities for the performance service.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// StubResponse defines the behavior for a stub backend route.
type StubResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// StubBackend is a configurable http.Handler standing in for the
// application's route handlers. It counts every invocation so tests can
// assert whether a cached response was served without reaching it.
type StubBackend struct {
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int

	// Tracking
	lastRequestHeader http.Header
}

// NewStubBackend creates a stub backend with no routes configured.
func NewStubBackend() *StubBackend {
	return &StubBackend{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}
}

// ServeHTTP implements http.Handler.
func (b *StubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.URL.Path]++
	b.lastRequestHeader = r.Header.Clone()
	handler, exists := b.handlers[r.URL.Path]
	b.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}

	b.defaultHandler(w, r)
}

// Server starts an httptest server in front of the backend wrapped by mw.
// The server is closed when the caller invokes the returned func.
func (b *StubBackend) Server(mw ...func(http.Handler) http.Handler) (*httptest.Server, func()) {
	var h http.Handler = b
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	server := httptest.NewServer(h)
	return server, server.Close
}

// Reset clears all tracking counters.
func (b *StubBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = make(map[string]int)
	b.lastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (b *StubBackend) SetHandler(path string, handler http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (b *StubBackend) SetResponse(path string, resp StubResponse) {
	b.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// Calls returns how often path was served.
func (b *StubBackend) Calls(path string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calls[path]
}

// TotalCalls returns the number of requests served across all paths.
func (b *StubBackend) TotalCalls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

// LastRequestHeader returns the headers of the most recent request.
func (b *StubBackend) LastRequestHeader() http.Header {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastRequestHeader
}

// defaultHandler answers unknown paths with a small JSON document.
func (b *StubBackend) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

// NewJSONResponse creates a standard 200 OK JSON response.
func NewJSONResponse(data string) StubResponse {
	return StubResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewETagResponse creates a 200 OK JSON response carrying validators.
func NewETagResponse(etag, data string) StubResponse {
	return StubResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"ETag":          etag,
			"Last-Modified": time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat),
			"Content-Type":  "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() StubResponse {
	return StubResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() StubResponse {
	return StubResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "Not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
