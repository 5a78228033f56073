package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/perfcache/pkg/metrics"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

// stubReader returns a fixed heap-used figure and counts reads.
type stubReader struct {
	heapUsed atomic.Uint64
	reads    atomic.Int64
}

func (r *stubReader) ReadMemory(ctx context.Context) metrics.MemorySample {
	r.reads.Add(1)
	return metrics.MemorySample{HeapUsed: r.heapUsed.Load(), Timestamp: time.Now()}
}

type stubProbe struct {
	local       int
	distributed int64
	reachable   bool
}

func (p stubProbe) LocalSize() int { return p.local }
func (p stubProbe) DistributedSize(ctx context.Context) (int64, bool) {
	return p.distributed, p.reachable
}
func (p stubProbe) DistributedReachable(ctx context.Context) bool { return p.reachable }

func TestClassify(t *testing.T) {
	const threshold = DefaultMemoryThreshold

	tests := []struct {
		name     string
		heapUsed uint64
		want     Status
	}{
		{name: "well below", heapUsed: 10 * 1024 * 1024, want: StatusHealthy},
		{name: "threshold minus one", heapUsed: threshold - 1, want: StatusHealthy},
		{name: "exactly threshold", heapUsed: threshold, want: StatusHealthy},
		{name: "threshold plus one", heapUsed: threshold + 1, want: StatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(metrics.MemorySample{HeapUsed: tt.heapUsed}, threshold)
			if got != tt.want {
				t.Errorf("Classify(%d) = %s, want %s", tt.heapUsed, got, tt.want)
			}
		})
	}
}

// TestMonitor_Check_FollowsLatestSample injects samples above and below the
// threshold; each report reflects only the latest one.
func TestMonitor_Check_FollowsLatestSample(t *testing.T) {
	collector := metrics.NewCollector(metrics.DefaultConfig())
	monitor := NewMonitor(collector, Config{Reader: &stubReader{}}, zerolog.Nop())
	ctx := context.Background()
	threshold := monitor.Threshold()

	collector.RecordMemorySample(metrics.MemorySample{HeapUsed: threshold + 1})
	if report := monitor.Check(ctx); report.Status != StatusWarning {
		t.Errorf("Status = %s, want warning", report.Status)
	}

	collector.RecordMemorySample(metrics.MemorySample{HeapUsed: threshold - 1})
	if report := monitor.Check(ctx); report.Status != StatusHealthy {
		t.Errorf("Status = %s, want healthy", report.Status)
	}

	// Not sticky: flipping back and forth follows the samples
	collector.RecordMemorySample(metrics.MemorySample{HeapUsed: threshold + 1})
	if report := monitor.Check(ctx); report.IsHealthy() {
		t.Error("report should be a warning again")
	}
}

func TestMonitor_Check_NoSamplesReadsDirectly(t *testing.T) {
	reader := &stubReader{}
	reader.heapUsed.Store(42)
	collector := metrics.NewCollector(metrics.DefaultConfig())
	monitor := NewMonitor(collector, Config{Reader: reader}, zerolog.Nop())

	report := monitor.Check(context.Background())
	if report.Memory.HeapUsed != 42 {
		t.Errorf("Memory.HeapUsed = %d, want 42", report.Memory.HeapUsed)
	}
	if reader.reads.Load() != 1 {
		t.Errorf("reads = %d, want 1", reader.reads.Load())
	}
	// A health check does not populate the sample window
	if len(collector.Snapshot().MemorySamples) != 0 {
		t.Error("Check must not record samples")
	}
}

func TestMonitor_Check_CacheFigures(t *testing.T) {
	collector := metrics.NewCollector(metrics.DefaultConfig())
	monitor := NewMonitor(collector, Config{
		Reader: &stubReader{},
		Cache:  stubProbe{local: 3, distributed: 9, reachable: true},
	}, zerolog.Nop())

	report := monitor.Check(context.Background())
	if report.CacheSizes.Local != 3 || report.CacheSizes.Distributed != 9 {
		t.Errorf("CacheSizes = %+v, want {3 9}", report.CacheSizes)
	}
	if !report.DistributedTierReachable {
		t.Error("DistributedTierReachable should be true")
	}
	if report.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if report.Uptime < 0 || report.UptimeSeconds != report.Uptime.Seconds() {
		t.Errorf("Uptime = %v, UptimeSeconds = %v", report.Uptime, report.UptimeSeconds)
	}
}

func TestMonitor_Sample(t *testing.T) {
	reader := &stubReader{}
	reader.heapUsed.Store(DefaultMemoryThreshold + 1)
	collector := metrics.NewCollector(metrics.DefaultConfig())
	monitor := NewMonitor(collector, Config{Reader: reader}, zerolog.Nop())

	monitor.Sample(context.Background())

	latest, ok := collector.LatestMemorySample()
	if !ok || latest.HeapUsed != DefaultMemoryThreshold+1 {
		t.Errorf("LatestMemorySample() = %+v, %v", latest, ok)
	}
	if monitor.Check(context.Background()).Status != StatusWarning {
		t.Error("Check after high sample should warn")
	}
}

func TestMonitor_StartRecordsSamplesWithoutReports(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	reader := &stubReader{}
	collector := metrics.NewCollector(metrics.Config{MemorySampleCapacity: 5})
	monitor := NewMonitor(collector, Config{
		Reader:         reader,
		SampleInterval: 5 * time.Millisecond,
	}, zerolog.Nop())

	monitor.Start(context.Background())
	monitor.Start(context.Background()) // no-op

	deadline := time.Now().Add(2 * time.Second)
	for len(collector.Snapshot().MemorySamples) < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	monitor.Stop()
	monitor.Stop() // no-op

	samples := collector.Snapshot().MemorySamples
	if len(samples) != 5 {
		t.Errorf("len(MemorySamples) = %d, want 5 (bounded window filled by timer)", len(samples))
	}

	// No more samples after Stop
	reads := reader.reads.Load()
	time.Sleep(30 * time.Millisecond)
	if reader.reads.Load() != reads {
		t.Error("sampler kept running after Stop")
	}
}

func TestMonitor_StopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	collector := metrics.NewCollector(metrics.DefaultConfig())
	monitor := NewMonitor(collector, Config{Reader: &stubReader{}, SampleInterval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	monitor.Start(ctx)
	cancel()
	monitor.Stop()
}

func TestMonitor_RestartAfterContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	reader := &stubReader{}
	collector := metrics.NewCollector(metrics.DefaultConfig())
	monitor := NewMonitor(collector, Config{Reader: reader, SampleInterval: 5 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	monitor.Start(ctx)
	cancel()

	monitor.lifecycle.Lock()
	done := monitor.done
	monitor.lifecycle.Unlock()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sampler did not exit after context cancel")
	}

	before := reader.reads.Load()
	monitor.Start(context.Background())
	defer monitor.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for reader.reads.Load() == before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if reader.reads.Load() == before {
		t.Error("restarted sampler recorded no samples")
	}
}

func TestNewMonitor_Defaults(t *testing.T) {
	monitor := NewMonitor(metrics.NewCollector(metrics.DefaultConfig()), Config{}, zerolog.Nop())

	if monitor.Threshold() != DefaultMemoryThreshold {
		t.Errorf("Threshold() = %d, want %d", monitor.Threshold(), DefaultMemoryThreshold)
	}
	if monitor.interval != DefaultSampleInterval {
		t.Errorf("interval = %v, want %v", monitor.interval, DefaultSampleInterval)
	}
	if _, ok := monitor.reader.(*RuntimeReader); !ok {
		t.Errorf("reader = %T, want *RuntimeReader", monitor.reader)
	}
}

func TestRuntimeReader_ReadMemory(t *testing.T) {
	sample := NewRuntimeReader().ReadMemory(context.Background())

	if sample.HeapUsed == 0 || sample.HeapTotal == 0 {
		t.Errorf("heap figures should be non-zero: %+v", sample)
	}
	if sample.HeapUsed > sample.HeapTotal {
		t.Errorf("HeapUsed %d > HeapTotal %d", sample.HeapUsed, sample.HeapTotal)
	}
	if sample.RSS == 0 {
		t.Error("RSS should be non-zero")
	}
	if sample.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}
