package cache

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached HTTP response.
type CacheKey struct {
	// Method is the HTTP method (e.g., "GET")
	Method string

	// Path is the request path (e.g., "/api/jobs")
	Path string

	// QueryParams are the query parameters (e.g., {"page": "2"})
	QueryParams url.Values
}

// KeyFromRequest builds the cache key for an inbound request.
func KeyFromRequest(r *http.Request) CacheKey {
	return CacheKey{
		Method:      r.Method,
		Path:        r.URL.Path,
		QueryParams: r.URL.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: METHOD:/path[?q1=v1&q2=v2]
//
// Example:
//   GET:/api/jobs?page=2&sector=it
func (k CacheKey) String() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(k.Method))
	b.WriteByte(':')

	path := k.Path
	if path == "" {
		path = "/"
	}
	b.WriteString(path)

	if len(k.QueryParams) == 0 {
		return b.String()
	}

	// Sorted for determinism
	queryKeys := make([]string, 0, len(k.QueryParams))
	for key := range k.QueryParams {
		queryKeys = append(queryKeys, key)
	}
	sort.Strings(queryKeys)

	parts := make([]string, 0, len(queryKeys))
	for _, key := range queryKeys {
		values := append([]string(nil), k.QueryParams[key]...)
		sort.Strings(values)
		for _, v := range values {
			parts = append(parts, fmt.Sprintf("%s=%s", url.QueryEscape(key), url.QueryEscape(v)))
		}
	}

	b.WriteByte('?')
	b.WriteString(strings.Join(parts, "&"))
	return b.String()
}
