package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTTL is used when a caller passes a non-positive TTL
	DefaultTTL = 5 * time.Minute

	// DefaultPromotionTTL bounds how long a promoted distributed hit lives locally
	DefaultPromotionTTL = 60 * time.Second
)

// StatsRecorder receives exactly one hit or miss per coordinator lookup.
type StatsRecorder interface {
	RecordHit()
	RecordMiss()
}

// CoordinatorConfig holds coordinator configuration.
type CoordinatorConfig struct {
	// DefaultTTL replaces non-positive TTLs passed to Set
	DefaultTTL time.Duration

	// PromotionTTL is the local lifetime of a promoted distributed hit
	PromotionTTL time.Duration

	// Stats receives hit/miss outcomes (optional)
	Stats StatsRecorder

	// Logger receives debug traces of cache decisions (default: disabled)
	Logger *zerolog.Logger
}

// Coordinator composes the local and distributed tiers into one cache.
type Coordinator[V any] struct {
	local  *LocalTier[V]
	remote *DistributedTier[V]

	defaultTTL   time.Duration
	promotionTTL time.Duration
	stats        StatsRecorder
	logger       zerolog.Logger
}

// NewCoordinator creates a coordinator over the given tiers. remote may be
// an unconfigured tier (nil Redis client) but must not be nil.
func NewCoordinator[V any](local *LocalTier[V], remote *DistributedTier[V], cfg CoordinatorConfig) *Coordinator[V] {
	if local == nil || remote == nil {
		panic("cache tiers cannot be nil")
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.PromotionTTL <= 0 {
		cfg.PromotionTTL = DefaultPromotionTTL
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Coordinator[V]{
		local:        local,
		remote:       remote,
		defaultTTL:   cfg.DefaultTTL,
		promotionTTL: cfg.PromotionTTL,
		stats:        cfg.Stats,
		logger:       logger,
	}
}

// Get looks key up in the local tier and, if absent and useDistributed is
// set, in the distributed tier. A distributed hit is promoted into the local
// tier for at most PromotionTTL. Each call records exactly one hit or miss.
func (c *Coordinator[V]) Get(ctx context.Context, key string, useDistributed bool) Result[V] {
	if value, ok := c.local.Get(key); ok {
		c.recordHit(TierLocal)
		c.logger.Debug().Str("key", key).Str("tier", string(TierLocal)).Msg("Cache hit")
		return Result[V]{Value: value, Status: StatusOK, Tier: TierLocal}
	}

	if !useDistributed {
		c.recordMiss()
		c.logger.Debug().Str("key", key).Msg("Cache miss")
		return Result[V]{Status: StatusMiss}
	}

	entry, status := c.remote.Get(ctx, key)
	if status != StatusOK {
		c.recordMiss()
		c.logger.Debug().Str("key", key).Str("distributed", status.String()).Msg("Cache miss")
		// An unavailable distributed tier is still a miss to the caller
		return Result[V]{Status: StatusMiss}
	}

	ttl := c.promotionTTL
	if remaining := entry.Remaining(c.remote.now()); remaining > 0 && remaining < ttl {
		ttl = remaining
	}
	c.local.Set(key, entry.Value, ttl)
	CachePromotions.Inc()

	c.recordHit(TierDistributed)
	c.logger.Debug().
		Str("key", key).
		Str("tier", string(TierDistributed)).
		Dur("promotion_ttl", ttl).
		Msg("Cache hit, promoted to local tier")

	return Result[V]{Value: entry.Value, Status: StatusOK, Tier: TierDistributed, Promoted: true}
}

// Set writes value to the local tier and, if useDistributed is set, to the
// distributed tier. A distributed failure never undoes the local write.
// The returned status describes the distributed write (StatusOK when it
// was not requested).
func (c *Coordinator[V]) Set(ctx context.Context, key string, value V, ttl time.Duration, useDistributed bool) Status {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.local.Set(key, value, ttl)

	if !useDistributed {
		return StatusOK
	}
	return c.remote.Set(ctx, key, value, ttl)
}

// Delete removes key from the local tier and, if requested, from the
// distributed tier.
func (c *Coordinator[V]) Delete(ctx context.Context, key string, useDistributed bool) Status {
	c.local.Delete(key)

	if !useDistributed {
		return StatusOK
	}
	return c.remote.Delete(ctx, key)
}

// ClearAll flushes both tiers. The local flush always completes; an error
// is returned only if a configured distributed tier failed to flush.
func (c *Coordinator[V]) ClearAll(ctx context.Context) error {
	c.local.Clear()

	if !c.remote.Configured() {
		return nil
	}
	if status := c.remote.Clear(ctx); status != StatusOK {
		return fmt.Errorf("clear distributed tier: %w", ErrDistributedUnavailable)
	}
	return nil
}

// LocalSize returns the number of entries in the local tier.
func (c *Coordinator[V]) LocalSize() int {
	return c.local.Size()
}

// Size implements the metrics Sizer by reporting the local tier size.
func (c *Coordinator[V]) Size() int {
	return c.local.Size()
}

// DistributedSize returns the number of keys in the distributed namespace.
func (c *Coordinator[V]) DistributedSize(ctx context.Context) (int64, bool) {
	n, status := c.remote.Size(ctx)
	return n, status == StatusOK
}

// DistributedReachable pings the distributed tier.
func (c *Coordinator[V]) DistributedReachable(ctx context.Context) bool {
	return c.remote.Ping(ctx)
}

// DistributedConnected reports the last observed distributed reachability
// without doing I/O.
func (c *Coordinator[V]) DistributedConnected() bool {
	return c.remote.Connected()
}

// Local exposes the local tier (for lifecycle management).
func (c *Coordinator[V]) Local() *LocalTier[V] {
	return c.local
}

// Distributed exposes the distributed tier (for lifecycle management).
func (c *Coordinator[V]) Distributed() *DistributedTier[V] {
	return c.remote
}

func (c *Coordinator[V]) recordHit(tier Tier) {
	CacheHits.WithLabelValues(string(tier)).Inc()
	if c.stats != nil {
		c.stats.RecordHit()
	}
}

func (c *Coordinator[V]) recordMiss() {
	CacheMisses.Inc()
	if c.stats != nil {
		c.stats.RecordMiss()
	}
}
