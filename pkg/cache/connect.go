package cache

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// ConnectConfig holds the retry configuration for the startup reachability check.
type ConnectConfig struct {
	// MaxAttempts is the maximum number of ping attempts (including the first).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultConnectConfig returns the default startup retry configuration.
func DefaultConnectConfig() ConnectConfig {
	return ConnectConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Connect pings Redis with exponential backoff until it answers or the
// attempts are exhausted. A failed Connect leaves the tier usable: every
// later operation keeps failing open to the local tier.
func (d *DistributedTier[V]) Connect(ctx context.Context, cfg ConnectConfig) error {
	if !d.Configured() {
		return ErrNotConfigured
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if d.Ping(ctx) {
			if attempt > 1 {
				d.logger.Info().
					Int("attempt", attempt).
					Msg("Distributed cache reachable after retry")
			}
			return nil
		}

		// If this was the last attempt, don't wait
		if attempt >= cfg.MaxAttempts {
			break
		}

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))

		d.logger.Debug().
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying distributed cache ping after backoff")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrDistributedUnavailable, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	d.logger.Warn().
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Distributed cache unreachable, running local-only until it recovers")

	return fmt.Errorf("%w after %d attempts", ErrDistributedUnavailable, cfg.MaxAttempts)
}
