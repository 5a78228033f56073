package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sternrassler/perfcache/internal/testutil"
	"github.com/Sternrassler/perfcache/pkg/metrics"
	"github.com/rs/zerolog"
)

func TestResponseTiming_RecordsSamples(t *testing.T) {
	collector := metrics.NewCollector(metrics.DefaultConfig())
	backend := testutil.NewStubBackend()
	backend.SetResponse("/api/jobs", testutil.StubResponse{StatusCode: http.StatusOK, Body: jobsBody, Delay: 5 * time.Millisecond})
	backend.SetResponse("/api/missing", testutil.NewNotFoundResponse())
	handler := ResponseTiming(collector)(backend)

	tests := []struct {
		method     string
		target     string
		wantStatus int
	}{
		{method: http.MethodGet, target: "/api/jobs?page=2", wantStatus: http.StatusOK},
		{method: http.MethodPost, target: "/api/missing", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.target, nil))
	}

	samples := collector.Snapshot().ResponseTimes
	if len(samples) != len(tests) {
		t.Fatalf("len(ResponseTimes) = %d, want %d", len(samples), len(tests))
	}

	for i, tt := range tests {
		s := samples[i]
		if s.URL != tt.target || s.Method != tt.method || s.StatusCode != tt.wantStatus {
			t.Errorf("sample %d = %+v, want %s %s %d", i, s, tt.method, tt.target, tt.wantStatus)
		}
		if s.Timestamp.IsZero() {
			t.Errorf("sample %d has no timestamp", i)
		}
	}

	if samples[0].Duration < 5*time.Millisecond {
		t.Errorf("Duration = %v, want >= 5ms", samples[0].Duration)
	}

	derived := collector.ComputeDerived()
	if derived.TotalRequests != 2 || derived.AvgResponseTimeMs <= 0 {
		t.Errorf("Derived = %+v", derived)
	}
}

func TestResponseTiming_DefaultStatus(t *testing.T) {
	collector := metrics.NewCollector(metrics.DefaultConfig())
	handler := ResponseTiming(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("implicit 200"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	samples := collector.Snapshot().ResponseTimes
	if len(samples) != 1 || samples[0].StatusCode != http.StatusOK {
		t.Errorf("samples = %+v, want one 200 sample", samples)
	}
}

// TestStack_TimingAroundCache times both cached and uncached requests.
func TestStack_TimingAroundCache(t *testing.T) {
	coord, collector := newCoordinator(t, nil)
	backend := testutil.NewStubBackend()
	backend.SetResponse("/api/jobs", testutil.NewJSONResponse(jobsBody))

	handler := ResponseTiming(collector)(ResponseCache(coord, CacheOptions{}, zerolog.Nop())(backend))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	}
	if calls := backend.Calls("/api/jobs"); calls != 1 {
		t.Fatalf("handler invoked %d times, want 1", calls)
	}

	derived := collector.ComputeDerived()
	if derived.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", derived.TotalRequests)
	}
	if derived.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", derived.HitRate)
	}
	if derived.CacheSize != 1 {
		t.Errorf("CacheSize = %d, want 1", derived.CacheSize)
	}
}

func TestResponseTiming_NilCollectorPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("ResponseTiming should panic without a collector")
		}
	}()
	ResponseTiming(nil)
}
