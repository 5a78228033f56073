package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const (
	// DefaultKeyPrefix namespaces all keys written to Redis
	DefaultKeyPrefix = "perf:cache:"

	// DefaultOperationTimeout bounds every Redis round trip
	DefaultOperationTimeout = 2 * time.Second

	// scanBatch is the COUNT hint used when scanning the key namespace
	scanBatch = 100
)

// DistributedConfig holds distributed tier configuration.
type DistributedConfig struct {
	// KeyPrefix namespaces keys in Redis (default: DefaultKeyPrefix)
	KeyPrefix string

	// OperationTimeout bounds each Redis call (default: DefaultOperationTimeout)
	OperationTimeout time.Duration

	// BreakerFailures is the number of consecutive failures that opens the breaker
	BreakerFailures uint32

	// BreakerCooldown is how long the breaker stays open before probing again
	BreakerCooldown time.Duration

	// Now is the clock used to stamp entries (default: time.Now)
	Now func() time.Time

	// Logger receives fault reports (default: disabled)
	Logger *zerolog.Logger
}

// DistributedTier is the shared Redis-backed cache tier. A tier created
// with a nil client is "not configured": every operation reports
// StatusUnavailable without doing any I/O.
type DistributedTier[V any] struct {
	redis     *redis.Client
	breaker   *gobreaker.CircuitBreaker
	prefix    string
	timeout   time.Duration
	now       func() time.Time
	logger    zerolog.Logger
	connected atomic.Bool
}

// NewDistributedTier creates a distributed tier over redisClient, which may be nil.
func NewDistributedTier[V any](redisClient *redis.Client, cfg DistributedConfig) *DistributedTier[V] {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultOperationTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	d := &DistributedTier[V]{
		redis:   redisClient,
		prefix:  cfg.KeyPrefix,
		timeout: cfg.OperationTimeout,
		now:     cfg.Now,
		logger:  logger,
	}

	failures := cfg.BreakerFailures
	d.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "distributed-cache",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			d.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Distributed cache circuit breaker state changed")
		},
	})

	return d
}

// Configured reports whether a Redis client was supplied.
func (d *DistributedTier[V]) Configured() bool {
	return d.redis != nil
}

// Connected reports whether the last operation reached Redis.
func (d *DistributedTier[V]) Connected() bool {
	return d.Configured() && d.connected.Load()
}

// Get retrieves an entry. Redis faults and corrupt payloads are reported
// as StatusUnavailable and StatusMiss respectively, never as errors.
func (d *DistributedTier[V]) Get(ctx context.Context, key string) (*Entry[V], Status) {
	var data []byte
	err := d.do(ctx, "get", func(ctx context.Context) error {
		var err error
		data, err = d.redis.Get(ctx, d.redisKey(key)).Bytes()
		return err
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, StatusMiss
		}
		return nil, StatusUnavailable
	}

	var entry Entry[V]
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues(string(TierDistributed), "get").Inc()
		d.logger.Warn().
			Err(fmt.Errorf("%w: %v", ErrInvalidEntry, err)).
			Str("key", key).
			Msg("Discarding malformed distributed cache entry")
		d.Delete(ctx, key)
		return nil, StatusMiss
	}

	// Redis expires keys itself, but a clock skew between writers can
	// still surface an entry past its stamped expiry
	if entry.IsExpired(d.now()) {
		return nil, StatusMiss
	}

	return &entry, StatusOK
}

// Set stores value under key with a Redis-native TTL.
func (d *DistributedTier[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) Status {
	if !d.Configured() {
		return StatusUnavailable
	}
	if ttl <= 0 {
		return StatusOK
	}

	entry := NewEntry(key, value, ttl, TierDistributed, d.now())
	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues(string(TierDistributed), "set").Inc()
		d.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return StatusUnavailable
	}

	err = d.do(ctx, "set", func(ctx context.Context) error {
		return d.redis.Set(ctx, d.redisKey(key), data, ttl).Err()
	})
	if err != nil {
		return StatusUnavailable
	}
	return StatusOK
}

// Delete removes key.
func (d *DistributedTier[V]) Delete(ctx context.Context, key string) Status {
	err := d.do(ctx, "delete", func(ctx context.Context) error {
		return d.redis.Del(ctx, d.redisKey(key)).Err()
	})
	if err != nil {
		return StatusUnavailable
	}
	return StatusOK
}

// Clear removes every key in this tier's namespace. Keys outside the
// prefix are left untouched.
func (d *DistributedTier[V]) Clear(ctx context.Context) Status {
	err := d.do(ctx, "clear", func(ctx context.Context) error {
		iter := d.redis.Scan(ctx, 0, d.prefix+"*", scanBatch).Iterator()
		batch := make([]string, 0, scanBatch)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				if err := d.redis.Del(ctx, batch...).Err(); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(batch) > 0 {
			return d.redis.Del(ctx, batch...).Err()
		}
		return nil
	})
	if err != nil {
		return StatusUnavailable
	}
	return StatusOK
}

// Size counts the keys in this tier's namespace.
func (d *DistributedTier[V]) Size(ctx context.Context) (int64, Status) {
	var count int64
	err := d.do(ctx, "size", func(ctx context.Context) error {
		iter := d.redis.Scan(ctx, 0, d.prefix+"*", scanBatch).Iterator()
		for iter.Next(ctx) {
			count++
		}
		return iter.Err()
	})
	if err != nil {
		return 0, StatusUnavailable
	}
	return count, StatusOK
}

// Ping checks reachability and updates Connected.
func (d *DistributedTier[V]) Ping(ctx context.Context) bool {
	err := d.do(ctx, "ping", func(ctx context.Context) error {
		return d.redis.Ping(ctx).Err()
	})
	return err == nil
}

// do runs fn against Redis through the circuit breaker with the operation
// timeout applied. It records errors and reachability; redis.Nil is passed
// through as a normal outcome.
func (d *DistributedTier[V]) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if !d.Configured() {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})

	if err == nil || errors.Is(err, redis.Nil) {
		d.connected.Store(true)
		DistributedUp.Set(1)
		return err
	}

	d.connected.Store(false)
	DistributedUp.Set(0)
	CacheErrors.WithLabelValues(string(TierDistributed), op).Inc()

	// An open breaker rejects calls without I/O; keep that out of warn logs
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		d.logger.Debug().Str("operation", op).Msg("Distributed cache call rejected by open breaker")
	} else {
		d.logger.Warn().Err(err).Str("operation", op).Msg("Distributed cache operation failed, falling back to local tier")
	}

	return fmt.Errorf("%w: %s: %v", ErrDistributedUnavailable, op, err)
}

// redisKey creates a Redis key with namespace
func (d *DistributedTier[V]) redisKey(key string) string {
	return d.prefix + key
}
