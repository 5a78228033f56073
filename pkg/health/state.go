// Package health implements periodic memory sampling and on-demand
// health classification for the performance service.
package health

import (
	"time"

	"github.com/Sternrassler/perfcache/pkg/metrics"
)

// Status is the advisory health classification.
type Status string

const (
	// StatusHealthy means the latest heap sample is within the threshold.
	StatusHealthy Status = "healthy"

	// StatusWarning means the latest heap sample exceeds the threshold.
	StatusWarning Status = "warning"
)

// Defaults for health monitoring.
const (
	// DefaultMemoryThreshold is the heap-used level above which health is a warning.
	DefaultMemoryThreshold uint64 = 500 * 1024 * 1024

	// DefaultSampleInterval is how often a memory sample is recorded.
	DefaultSampleInterval = 30 * time.Second
)

// Classify returns the status for a memory sample. Health is recomputed
// from each sample; there is no hysteresis.
func Classify(sample metrics.MemorySample, threshold uint64) Status {
	if sample.HeapUsed > threshold {
		return StatusWarning
	}
	return StatusHealthy
}

// CacheSizes reports the entry count of each tier.
type CacheSizes struct {
	Local       int   `json:"local"`
	Distributed int64 `json:"distributed"`
}

// Report is a derived, point-in-time health report.
type Report struct {
	// Status is the classification of the latest memory sample
	Status Status `json:"status"`

	// Timestamp is when the report was computed
	Timestamp time.Time `json:"timestamp"`

	// Uptime is the time since the monitor was created
	Uptime time.Duration `json:"-"`

	// UptimeSeconds mirrors Uptime for JSON consumers
	UptimeSeconds float64 `json:"uptime"`

	// Memory is the sample the status was computed from
	Memory metrics.MemorySample `json:"memory"`

	// CacheSizes holds per-tier entry counts
	CacheSizes CacheSizes `json:"cacheSizes"`

	// DistributedTierReachable is true if the distributed tier answered a ping
	DistributedTierReachable bool `json:"distributedTierReachable"`
}

// IsHealthy reports whether Status is StatusHealthy.
func (r Report) IsHealthy() bool {
	return r.Status == StatusHealthy
}
