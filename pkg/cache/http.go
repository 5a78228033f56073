package cache

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// uncacheableHeaders are never stored with a cached response.
var uncacheableHeaders = []string{
	"Set-Cookie",
	"Connection",
	"Keep-Alive",
	"Transfer-Encoding",
	"Content-Length",
}

// Response is a captured HTTP response as stored in the cache.
type Response struct {
	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Header is the response header snapshot
	Header http.Header `json:"header"`

	// Body is the response body
	Body []byte `json:"body"`

	// CachedAt is when we captured this response
	CachedAt time.Time `json:"cached_at"`
}

// NewResponse snapshots a response for caching. The header is cloned and
// stripped of per-connection and per-user fields.
func NewResponse(statusCode int, header http.Header, body []byte, now time.Time) Response {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	for _, name := range uncacheableHeaders {
		h.Del(name)
	}

	return Response{
		StatusCode: statusCode,
		Header:     h,
		Body:       body,
		CachedAt:   now,
	}
}

// WriteHeaderTo replays the cached status and headers onto w without the
// body. Content-Length describes the stored body, which is what a HEAD
// request for the same resource must report.
func (r Response) WriteHeaderTo(w http.ResponseWriter) {
	dst := w.Header()
	for key, values := range r.Header {
		dst[key] = append([]string(nil), values...)
	}
	dst.Set("Content-Length", strconv.Itoa(len(r.Body)))

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

// WriteTo replays the cached response onto w.
func (r Response) WriteTo(w http.ResponseWriter) error {
	r.WriteHeaderTo(w)

	if _, err := w.Write(r.Body); err != nil {
		return fmt.Errorf("write cached body: %w", err)
	}
	return nil
}

// NotModified reports whether req carries validators (If-None-Match or
// If-Modified-Since) that match the cached response.
func (r Response) NotModified(req *http.Request) bool {
	if req == nil {
		return false
	}

	// Prefer ETag over Last-Modified (more accurate)
	if inm := req.Header.Get("If-None-Match"); inm != "" {
		etag := r.Header.Get("ETag")
		return etag != "" && (inm == etag || inm == "*")
	}

	if ims := req.Header.Get("If-Modified-Since"); ims != "" {
		lastModStr := r.Header.Get("Last-Modified")
		if lastModStr == "" {
			return false
		}
		since, err := http.ParseTime(ims)
		if err != nil {
			return false
		}
		lastMod, err := http.ParseTime(lastModStr)
		if err != nil {
			return false
		}
		return !lastMod.After(since)
	}

	return false
}
