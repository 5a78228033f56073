package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultReapInterval is how often the reaper sweeps expired local entries
	DefaultReapInterval = 10 * time.Minute
)

// LocalConfig holds local tier configuration.
type LocalConfig struct {
	// ReapInterval is the sweep interval of the background reaper
	ReapInterval time.Duration

	// Now is the clock used for expiry (default: time.Now)
	Now func() time.Time

	// Logger receives reaper activity (default: disabled)
	Logger *zerolog.Logger
}

// LocalTier is a process-local key/value store with per-entry TTL.
// Values are stored by reference; callers must not mutate returned values.
type LocalTier[V any] struct {
	mu    sync.RWMutex
	items map[string]*Entry[V]

	now          func() time.Time
	reapInterval time.Duration
	logger       zerolog.Logger

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewLocalTier creates an empty local tier. The reaper is not running
// until Start is called.
func NewLocalTier[V any](cfg LocalConfig) *LocalTier[V] {
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = DefaultReapInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &LocalTier[V]{
		items:        make(map[string]*Entry[V]),
		now:          cfg.Now,
		reapInterval: cfg.ReapInterval,
		logger:       logger,
	}
}

// Get returns the value for key. Expired entries are removed and reported absent.
func (l *LocalTier[V]) Get(key string) (V, bool) {
	entry, ok := l.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// lookup returns the live entry for key, removing it if expired.
func (l *LocalTier[V]) lookup(key string) (*Entry[V], bool) {
	now := l.now()

	l.mu.RLock()
	entry, exists := l.items[key]
	l.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if entry == nil || entry.IsExpired(now) {
		l.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it
		if current := l.items[key]; current == entry {
			delete(l.items, key)
			LocalEntries.Set(float64(len(l.items)))
			CacheReaped.WithLabelValues("lazy").Inc()
		}
		l.mu.Unlock()
		return nil, false
	}

	return entry, true
}

// Set stores value under key for ttl, overwriting any previous entry.
// A non-positive ttl stores nothing.
func (l *LocalTier[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	entry := NewEntry(key, value, ttl, TierLocal, l.now())

	l.mu.Lock()
	l.items[key] = entry
	LocalEntries.Set(float64(len(l.items)))
	l.mu.Unlock()
}

// Delete removes key.
func (l *LocalTier[V]) Delete(key string) {
	l.mu.Lock()
	delete(l.items, key)
	LocalEntries.Set(float64(len(l.items)))
	l.mu.Unlock()
}

// Clear removes every entry.
func (l *LocalTier[V]) Clear() {
	l.mu.Lock()
	l.items = make(map[string]*Entry[V])
	LocalEntries.Set(0)
	l.mu.Unlock()
}

// Size returns the number of stored entries, including expired entries
// not yet reaped.
func (l *LocalTier[V]) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Reap removes all expired entries and returns how many were removed.
func (l *LocalTier[V]) Reap() int {
	now := l.now()

	l.mu.Lock()
	removed := 0
	for key, entry := range l.items {
		if entry == nil || entry.IsExpired(now) {
			delete(l.items, key)
			removed++
		}
	}
	LocalEntries.Set(float64(len(l.items)))
	l.mu.Unlock()

	if removed > 0 {
		CacheReaped.WithLabelValues("sweep").Add(float64(removed))
	}
	return removed
}

// Start launches the background reaper. It runs until ctx is cancelled or
// Stop is called. Calling Start on a running tier is a no-op; a reaper that
// exited with its context is replaced.
func (l *LocalTier[V]) Start(ctx context.Context) {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if l.done != nil {
		select {
		case <-l.done:
			l.cancel()
		default:
			return
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.reapLoop(ctx, l.done)
}

// Stop halts the reaper and waits for it to exit.
func (l *LocalTier[V]) Stop() {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
	l.done = nil
}

func (l *LocalTier[V]) reapLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Reap(); removed > 0 {
				l.logger.Debug().
					Int("removed", removed).
					Int("remaining", l.Size()).
					Msg("Reaped expired local cache entries")
			}
		}
	}
}
