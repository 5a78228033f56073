package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/perfcache/pkg/ringbuffer"
)

const (
	// DefaultResponseTimeCapacity is the response-time window size
	DefaultResponseTimeCapacity = 1000

	// DefaultMemorySampleCapacity is the memory-sample window size
	DefaultMemorySampleCapacity = 100
)

// ResponseSample is one request latency observation.
type ResponseSample struct {
	URL        string        `json:"url"`
	Method     string        `json:"method"`
	StatusCode int           `json:"statusCode"`
	Duration   time.Duration `json:"-"`
	Timestamp  time.Time     `json:"timestamp"`
}

// DurationMs returns the duration in fractional milliseconds.
func (s ResponseSample) DurationMs() float64 {
	return float64(s.Duration) / float64(time.Millisecond)
}

// MarshalJSON renders Duration as durationMs.
func (s ResponseSample) MarshalJSON() ([]byte, error) {
	type alias ResponseSample
	return json.Marshal(struct {
		alias
		DurationMs float64 `json:"durationMs"`
	}{alias(s), s.DurationMs()})
}

// MemorySample is a point-in-time process memory reading, in bytes.
type MemorySample struct {
	RSS       uint64    `json:"rss"`
	HeapTotal uint64    `json:"heapTotal"`
	HeapUsed  uint64    `json:"heapUsed"`
	External  uint64    `json:"external"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a copy of the collector state.
type Snapshot struct {
	CacheHits     uint64           `json:"cacheHits"`
	CacheMisses   uint64           `json:"cacheMisses"`
	ResponseTimes []ResponseSample `json:"responseTimes"`
	MemorySamples []MemorySample   `json:"memorySamples"`
}

// Derived holds statistics computed from the current state.
type Derived struct {
	HitRate           float64 `json:"hitRate"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	TotalRequests     int     `json:"totalRequests"`
	CacheSize         int     `json:"cacheSize"`
}

// Sizer reports the current number of cached entries.
type Sizer interface {
	Size() int
}

// Config holds collector configuration.
type Config struct {
	// ResponseTimeCapacity bounds the response-time window
	ResponseTimeCapacity int

	// MemorySampleCapacity bounds the memory-sample window
	MemorySampleCapacity int
}

// DefaultConfig returns the default collector configuration.
func DefaultConfig() Config {
	return Config{
		ResponseTimeCapacity: DefaultResponseTimeCapacity,
		MemorySampleCapacity: DefaultMemorySampleCapacity,
	}
}

// Collector maintains hit/miss counters and the sample windows.
// It is safe for concurrent use.
type Collector struct {
	hits   atomic.Uint64
	misses atomic.Uint64

	responses *ringbuffer.RingBuffer[ResponseSample]
	memory    *ringbuffer.RingBuffer[MemorySample]

	mu    sync.RWMutex
	sizer Sizer
}

// NewCollector creates a collector. Non-positive capacities fall back to defaults.
func NewCollector(cfg Config) *Collector {
	if cfg.ResponseTimeCapacity <= 0 {
		cfg.ResponseTimeCapacity = DefaultResponseTimeCapacity
	}
	if cfg.MemorySampleCapacity <= 0 {
		cfg.MemorySampleCapacity = DefaultMemorySampleCapacity
	}

	return &Collector{
		responses: ringbuffer.New[ResponseSample](cfg.ResponseTimeCapacity),
		memory:    ringbuffer.New[MemorySample](cfg.MemorySampleCapacity),
	}
}

// TrackCacheSize sets the source of the cacheSize statistic.
func (c *Collector) TrackCacheSize(s Sizer) {
	c.mu.Lock()
	c.sizer = s
	c.mu.Unlock()
}

// RecordHit increments the hit counter.
func (c *Collector) RecordHit() {
	c.hits.Add(1)
}

// RecordMiss increments the miss counter.
func (c *Collector) RecordMiss() {
	c.misses.Add(1)
}

// RecordResponseTime appends a latency sample.
func (c *Collector) RecordResponseTime(s ResponseSample) {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	c.responses.Push(s)
	observeResponse(s)
}

// RecordMemorySample appends a memory sample.
func (c *Collector) RecordMemorySample(s MemorySample) {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	c.memory.Push(s)
	observeMemory(s)
}

// LatestMemorySample returns the most recent memory sample.
func (c *Collector) LatestMemorySample() (MemorySample, bool) {
	return c.memory.Last()
}

// Hits returns the hit counter.
func (c *Collector) Hits() uint64 {
	return c.hits.Load()
}

// Misses returns the miss counter.
func (c *Collector) Misses() uint64 {
	return c.misses.Load()
}

// Snapshot returns a copy of the counters and sample windows.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		CacheHits:     c.hits.Load(),
		CacheMisses:   c.misses.Load(),
		ResponseTimes: c.responses.ToList(),
		MemorySamples: c.memory.ToList(),
	}
}

// ComputeDerived computes hit rate, average latency, request count and cache size.
func (c *Collector) ComputeDerived() Derived {
	samples := c.responses.ToList()

	var total time.Duration
	for _, s := range samples {
		total += s.Duration
	}

	d := Derived{
		HitRate:       HitRate(c.hits.Load(), c.misses.Load()),
		TotalRequests: len(samples),
	}
	if len(samples) > 0 {
		d.AvgResponseTimeMs = float64(total) / float64(len(samples)) / float64(time.Millisecond)
	}

	c.mu.RLock()
	if c.sizer != nil {
		d.CacheSize = c.sizer.Size()
	}
	c.mu.RUnlock()

	return d
}

// HitRate returns hits / (hits + misses), or 0 for a cold cache.
func HitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
