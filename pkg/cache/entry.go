package cache

import (
	"time"
)

// Tier identifies which cache tier holds an entry.
type Tier string

const (
	// TierLocal is the process-local in-memory tier.
	TierLocal Tier = "local"

	// TierDistributed is the shared Redis tier.
	TierDistributed Tier = "distributed"
)

// Entry represents a cached value together with its lifetime.
type Entry[V any] struct {
	// Key is the opaque cache key (for HTTP responses: method + path)
	Key string `json:"key"`

	// Value is the cached payload
	Value V `json:"value"`

	// TTL is the lifetime granted when the entry was written
	TTL time.Duration `json:"ttl"`

	// Tier is the tier that holds the freshest copy
	Tier Tier `json:"tier"`

	// CreatedAt is when the entry was written
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is CreatedAt + TTL
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry creates an entry that expires ttl after now.
func NewEntry[V any](key string, value V, ttl time.Duration, tier Tier, now time.Time) *Entry[V] {
	return &Entry[V]{
		Key:       key,
		Value:     value,
		TTL:       ttl,
		Tier:      tier,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the entry is no longer valid at now.
// The boundary is inclusive: an entry is expired at exactly CreatedAt + TTL.
func (e *Entry[V]) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Remaining returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry[V]) Remaining(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
