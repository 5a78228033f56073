package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/perfcache/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for health monitoring.
var (
	healthStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "perf_health_status",
		Help: "Health status of the latest memory sample (0 healthy, 1 warning)",
	})

	healthSamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perf_health_samples_total",
		Help: "Total number of memory samples recorded by the health monitor",
	})
)

// CacheProbe exposes the cache figures a health report needs.
type CacheProbe interface {
	LocalSize() int
	DistributedSize(ctx context.Context) (int64, bool)
	DistributedReachable(ctx context.Context) bool
}

// Config holds monitor configuration.
type Config struct {
	// MemoryThreshold is the heap-used level above which health is a warning
	MemoryThreshold uint64

	// SampleInterval is the memory sampling period
	SampleInterval time.Duration

	// Reader takes memory readings (default: RuntimeReader)
	Reader MemoryReader

	// Cache supplies tier sizes and reachability (optional)
	Cache CacheProbe
}

// Monitor periodically records memory samples and classifies health on demand.
type Monitor struct {
	collector *metrics.Collector
	reader    MemoryReader
	cache     CacheProbe
	threshold uint64
	interval  time.Duration
	started   time.Time
	logger    zerolog.Logger

	// last is used only to log transitions; it never influences Check
	last atomic.Value // Status

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewMonitor creates a monitor recording into collector.
func NewMonitor(collector *metrics.Collector, cfg Config, logger zerolog.Logger) *Monitor {
	if cfg.MemoryThreshold == 0 {
		cfg.MemoryThreshold = DefaultMemoryThreshold
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	if cfg.Reader == nil {
		cfg.Reader = NewRuntimeReader()
	}

	m := &Monitor{
		collector: collector,
		reader:    cfg.Reader,
		cache:     cfg.Cache,
		threshold: cfg.MemoryThreshold,
		interval:  cfg.SampleInterval,
		started:   time.Now(),
		logger:    logger,
	}
	m.last.Store(StatusHealthy)
	return m
}

// Threshold returns the configured heap-used threshold in bytes.
func (m *Monitor) Threshold() uint64 {
	return m.threshold
}

// Sample takes a memory reading and records it into the collector.
func (m *Monitor) Sample(ctx context.Context) metrics.MemorySample {
	sample := m.reader.ReadMemory(ctx)
	m.collector.RecordMemorySample(sample)
	healthSamplesTotal.Inc()

	m.observe(Classify(sample, m.threshold), sample)
	return sample
}

// MemoryUsage returns the latest recorded memory sample, or a fresh
// unrecorded reading if the sampler has not run yet.
func (m *Monitor) MemoryUsage(ctx context.Context) metrics.MemorySample {
	if sample, ok := m.collector.LatestMemorySample(); ok {
		return sample
	}
	return m.reader.ReadMemory(ctx)
}

// Check computes a health report from the latest recorded memory sample,
// taking a fresh reading if none has been recorded yet.
func (m *Monitor) Check(ctx context.Context) Report {
	sample := m.MemoryUsage(ctx)

	status := Classify(sample, m.threshold)
	m.observe(status, sample)

	now := time.Now()
	report := Report{
		Status:    status,
		Timestamp: now,
		Uptime:    now.Sub(m.started),
		Memory:    sample,
	}
	report.UptimeSeconds = report.Uptime.Seconds()

	if m.cache != nil {
		report.CacheSizes.Local = m.cache.LocalSize()
		if n, ok := m.cache.DistributedSize(ctx); ok {
			report.CacheSizes.Distributed = n
		}
		report.DistributedTierReachable = m.cache.DistributedReachable(ctx)
	}

	return report
}

// Start launches the sampling ticker. It runs until ctx is cancelled or
// Stop is called. Calling Start on a running monitor is a no-op; a sampler
// that exited with its context is replaced.
func (m *Monitor) Start(ctx context.Context) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.done != nil {
		select {
		case <-m.done:
			m.cancel()
		default:
			return
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.sampleLoop(ctx, m.done)

	m.logger.Info().
		Dur("interval", m.interval).
		Uint64("threshold_bytes", m.threshold).
		Msg("Health monitor started")
}

// Stop halts sampling and waits for the sampler to exit.
func (m *Monitor) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil

	m.logger.Info().Msg("Health monitor stopped")
}

func (m *Monitor) sampleLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sample(ctx)
		}
	}
}

// observe updates the status gauge and logs transitions.
func (m *Monitor) observe(status Status, sample metrics.MemorySample) {
	if status == StatusWarning {
		healthStatus.Set(1)
	} else {
		healthStatus.Set(0)
	}

	previous, _ := m.last.Swap(status).(Status)
	if previous == status {
		return
	}

	if status == StatusWarning {
		m.logger.Warn().
			Uint64("heap_used", sample.HeapUsed).
			Uint64("threshold", m.threshold).
			Msg("Heap usage above threshold - health WARNING")
	} else {
		m.logger.Info().
			Uint64("heap_used", sample.HeapUsed).
			Msg("Heap usage back below threshold - health recovered")
	}
}
