package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewResponse_StripsUncacheableHeaders(t *testing.T) {
	header := http.Header{
		"Content-Type":   []string{"application/json"},
		"Set-Cookie":     []string{"session=abc"},
		"Content-Length": []string{"17"},
		"Etag":           []string{`"v1"`},
	}

	resp := NewResponse(200, header, []byte(`{"jobs": []}`), time.Now())

	if got := resp.Header.Get("Set-Cookie"); got != "" {
		t.Errorf("Set-Cookie should be stripped, got %q", got)
	}
	if got := resp.Header.Get("Content-Length"); got != "" {
		t.Errorf("Content-Length should be stripped, got %q", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	// Original header must not be mutated
	if header.Get("Set-Cookie") == "" {
		t.Error("NewResponse mutated the source header")
	}
}

func TestNewResponse_NilHeader(t *testing.T) {
	resp := NewResponse(204, nil, nil, time.Now())
	if resp.Header == nil {
		t.Fatal("Header should never be nil")
	}
}

func TestResponse_WriteTo(t *testing.T) {
	resp := NewResponse(201, http.Header{"Content-Type": []string{"text/plain"}}, []byte("hello"), time.Now())

	w := httptest.NewRecorder()
	if err := resp.WriteTo(w); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	if w.Code != 201 {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if w.Body.String() != "hello" {
		t.Errorf("body = %q, want %q", w.Body.String(), "hello")
	}
	if got := w.Header().Get("Content-Length"); got != "5" {
		t.Errorf("Content-Length = %q, want 5", got)
	}
}

func TestResponse_WriteHeaderTo(t *testing.T) {
	resp := NewResponse(200, http.Header{"Content-Type": []string{"application/json"}}, []byte(`{"ok":true}`), time.Now())

	w := httptest.NewRecorder()
	resp.WriteHeaderTo(w)

	if w.Code != 200 {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if got := w.Header().Get("Content-Length"); got != "11" {
		t.Errorf("Content-Length = %q, want 11 (stored body length)", got)
	}
}

func TestResponse_WriteTo_DefaultStatus(t *testing.T) {
	w := httptest.NewRecorder()
	if err := (Response{Body: []byte("x")}).WriteTo(w); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestResponse_NotModified(t *testing.T) {
	lastMod := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		header  http.Header
		request http.Header
		want    bool
	}{
		{
			name:    "no validators",
			header:  http.Header{"Etag": []string{`"abc123"`}},
			request: http.Header{},
			want:    false,
		},
		{
			name:    "matching etag",
			header:  http.Header{"Etag": []string{`"abc123"`}},
			request: http.Header{"If-None-Match": []string{`"abc123"`}},
			want:    true,
		},
		{
			name:    "different etag",
			header:  http.Header{"Etag": []string{`"abc123"`}},
			request: http.Header{"If-None-Match": []string{`"zzz"`}},
			want:    false,
		},
		{
			name:    "if-none-match without cached etag",
			header:  http.Header{},
			request: http.Header{"If-None-Match": []string{`"abc123"`}},
			want:    false,
		},
		{
			name:    "not modified since",
			header:  http.Header{"Last-Modified": []string{lastMod.Format(http.TimeFormat)}},
			request: http.Header{"If-Modified-Since": []string{lastMod.Add(time.Hour).Format(http.TimeFormat)}},
			want:    true,
		},
		{
			name:    "modified since",
			header:  http.Header{"Last-Modified": []string{lastMod.Format(http.TimeFormat)}},
			request: http.Header{"If-Modified-Since": []string{lastMod.Add(-time.Hour).Format(http.TimeFormat)}},
			want:    false,
		},
		{
			name:    "prefer etag over last-modified",
			header:  http.Header{"Etag": []string{`"abc123"`}, "Last-Modified": []string{lastMod.Format(http.TimeFormat)}},
			request: http.Header{"If-None-Match": []string{`"zzz"`}, "If-Modified-Since": []string{lastMod.Add(time.Hour).Format(http.TimeFormat)}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Response{StatusCode: 200, Header: tt.header}
			req, _ := http.NewRequest("GET", "https://example.com/api/jobs", nil)
			req.Header = tt.request

			if got := resp.NotModified(req); got != tt.want {
				t.Errorf("NotModified() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResponse_NotModified_NilRequest(t *testing.T) {
	// Should not panic with nil inputs
	if (Response{}).NotModified(nil) {
		t.Error("NotModified(nil) should be false")
	}
}
