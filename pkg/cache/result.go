package cache

import (
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrNotConfigured indicates the distributed tier has no endpoint
	ErrNotConfigured = errors.New("distributed tier not configured")

	// ErrDistributedUnavailable indicates the distributed tier could not serve the operation
	ErrDistributedUnavailable = errors.New("distributed tier unavailable")
)

// Status is the outcome of a tier operation. Tier operations never return
// errors to their callers; a fault is reported as StatusUnavailable.
type Status int

const (
	// StatusOK means the operation succeeded (for reads: a hit).
	StatusOK Status = iota

	// StatusMiss means the tier was reachable but holds no valid entry.
	StatusMiss

	// StatusUnavailable means the tier is not configured or faulted.
	StatusUnavailable
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMiss:
		return "miss"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the outcome of a cache read.
type Result[V any] struct {
	// Value is the cached payload; zero unless Status is StatusOK
	Value V

	// Status is the read outcome
	Status Status

	// Tier is the tier that served the hit
	Tier Tier

	// Promoted is true when a distributed hit was copied into the local tier
	Promoted bool
}

// Hit reports whether the read found a value.
func (r Result[V]) Hit() bool {
	return r.Status == StatusOK
}

// Err returns nil for a hit and ErrCacheMiss otherwise, for callers that
// prefer error-style control flow.
func (r Result[V]) Err() error {
	if r.Hit() {
		return nil
	}
	return ErrCacheMiss
}
