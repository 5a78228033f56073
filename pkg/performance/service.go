// Package performance wires the two-tier response cache, the metrics
// collector and the health monitor into one explicitly constructed
// service object.
//
// A Service replaces a process-wide singleton: construct one with New,
// hand it to whatever needs the cache or the metrics, and call Start and
// Stop around its lifetime. Independent instances never share state, so
// tests can run several side by side.
package performance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/perfcache/pkg/cache"
	"github.com/Sternrassler/perfcache/pkg/health"
	"github.com/Sternrassler/perfcache/pkg/logging"
	"github.com/Sternrassler/perfcache/pkg/metrics"
	"github.com/Sternrassler/perfcache/pkg/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the service configuration.
type Config struct {
	// DefaultTTL applies when a caller passes no TTL
	DefaultTTL time.Duration

	// ReapInterval is the local tier sweep interval
	ReapInterval time.Duration

	// PromotionTTL bounds the local lifetime of promoted distributed hits
	PromotionTTL time.Duration

	// UseDistributedTier enables the shared Redis tier
	UseDistributedTier bool

	// DistributedTierEndpoint is a redis:// URL or host:port
	DistributedTierEndpoint string

	// Redis is an injected client; it takes precedence over the endpoint
	// and is not closed by Stop
	Redis *redis.Client

	// DistributedKeyPrefix namespaces cache keys in Redis
	DistributedKeyPrefix string

	// DistributedTimeout bounds every distributed tier operation
	DistributedTimeout time.Duration

	// Connect controls the startup reachability check
	Connect cache.ConnectConfig

	// HealthMemoryThreshold is the heap-used warning level in bytes
	HealthMemoryThreshold uint64

	// HealthSampleInterval is the memory sampling period
	HealthSampleInterval time.Duration

	// ResponseTimeBufferCapacity bounds the response-time window
	ResponseTimeBufferCapacity int

	// MemorySampleBufferCapacity bounds the memory-sample window
	MemorySampleBufferCapacity int

	// MemoryReader overrides the process memory reader (tests)
	MemoryReader health.MemoryReader

	// Logger is the base logger (default: global zerolog logger)
	Logger *zerolog.Logger
}

// DefaultConfig returns the default service configuration with the
// distributed tier disabled.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:                 cache.DefaultTTL,
		ReapInterval:               cache.DefaultReapInterval,
		PromotionTTL:               cache.DefaultPromotionTTL,
		DistributedKeyPrefix:       cache.DefaultKeyPrefix,
		DistributedTimeout:         cache.DefaultOperationTimeout,
		Connect:                    cache.DefaultConnectConfig(),
		HealthMemoryThreshold:      health.DefaultMemoryThreshold,
		HealthSampleInterval:       health.DefaultSampleInterval,
		ResponseTimeBufferCapacity: metrics.DefaultResponseTimeCapacity,
		MemorySampleBufferCapacity: metrics.DefaultMemorySampleCapacity,
	}
}

// Service is the performance context object.
type Service struct {
	config    Config
	collector *metrics.Collector
	coord     *cache.Coordinator[cache.Response]
	monitor   *health.Monitor

	redis     *redis.Client
	ownsRedis bool

	logger           zerolog.Logger
	middlewareLogger zerolog.Logger

	lifecycle sync.Mutex
	running   bool
}

// New creates a service. Nothing runs in the background until Start.
func New(cfg Config) (*Service, error) {
	if cfg.DefaultTTL < 0 || cfg.PromotionTTL < 0 || cfg.ReapInterval < 0 {
		return nil, fmt.Errorf("ttl and interval settings must not be negative")
	}
	if cfg.ResponseTimeBufferCapacity < 0 || cfg.MemorySampleBufferCapacity < 0 {
		return nil, fmt.Errorf("buffer capacities must not be negative")
	}

	base := log.Logger
	if cfg.Logger != nil {
		base = *cfg.Logger
	}
	cacheLogger := logging.WithComponent(base, logging.ComponentCache)

	var (
		client    *redis.Client
		ownsRedis bool
	)
	if cfg.UseDistributedTier {
		switch {
		case cfg.Redis != nil:
			client = cfg.Redis
		case cfg.DistributedTierEndpoint != "":
			opts, err := redisOptions(cfg.DistributedTierEndpoint)
			if err != nil {
				return nil, fmt.Errorf("distributed tier endpoint: %w", err)
			}
			client = redis.NewClient(opts)
			ownsRedis = true
		default:
			cacheLogger.Warn().Msg("Distributed tier enabled without endpoint, caching locally only")
		}
	}

	collector := metrics.NewCollector(metrics.Config{
		ResponseTimeCapacity: cfg.ResponseTimeBufferCapacity,
		MemorySampleCapacity: cfg.MemorySampleBufferCapacity,
	})

	local := cache.NewLocalTier[cache.Response](cache.LocalConfig{
		ReapInterval: cfg.ReapInterval,
		Logger:       &cacheLogger,
	})
	remote := cache.NewDistributedTier[cache.Response](client, cache.DistributedConfig{
		KeyPrefix:        cfg.DistributedKeyPrefix,
		OperationTimeout: cfg.DistributedTimeout,
		Logger:           &cacheLogger,
	})
	coord := cache.NewCoordinator(local, remote, cache.CoordinatorConfig{
		DefaultTTL:   cfg.DefaultTTL,
		PromotionTTL: cfg.PromotionTTL,
		Stats:        collector,
		Logger:       &cacheLogger,
	})
	collector.TrackCacheSize(coord)

	monitor := health.NewMonitor(collector, health.Config{
		MemoryThreshold: cfg.HealthMemoryThreshold,
		SampleInterval:  cfg.HealthSampleInterval,
		Reader:          cfg.MemoryReader,
		Cache:           coord,
	}, logging.WithComponent(base, logging.ComponentHealth))

	return &Service{
		config:           cfg,
		collector:        collector,
		coord:            coord,
		monitor:          monitor,
		redis:            client,
		ownsRedis:        ownsRedis,
		logger:           logging.WithComponent(base, logging.ComponentPerformance),
		middlewareLogger: logging.WithComponent(base, logging.ComponentMiddleware),
	}, nil
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(endpoint string) (*redis.Options, error) {
	if strings.Contains(endpoint, "://") {
		return redis.ParseURL(endpoint)
	}
	return &redis.Options{Addr: endpoint}, nil
}

// Start launches the local reaper and the health sampler and checks that
// the distributed tier is reachable. An unreachable distributed tier is
// logged, not returned: the service keeps serving from the local tier.
func (s *Service) Start(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.running {
		return
	}
	s.running = true

	s.coord.Local().Start(ctx)
	s.monitor.Start(ctx)

	if s.coord.Distributed().Configured() {
		if err := s.coord.Distributed().Connect(ctx, s.config.Connect); err != nil {
			s.logger.Warn().Err(err).Msg("Distributed tier unreachable at startup, serving from local tier")
		}
	}

	s.logger.Info().
		Bool("distributed", s.coord.Distributed().Configured()).
		Bool("distributed_connected", s.coord.DistributedConnected()).
		Msg("Performance service started")
}

// Stop halts background tasks and closes the Redis client the service
// created. It is safe to call more than once.
func (s *Service) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.monitor.Stop()
	s.coord.Local().Stop()

	if s.ownsRedis && s.redis != nil {
		if err := s.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			s.logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
		s.ownsRedis = false
	}

	if s.running {
		s.running = false
		s.logger.Info().Msg("Performance service stopped")
	}
}

// Cache returns the response cache coordinator.
func (s *Service) Cache() *cache.Coordinator[cache.Response] {
	return s.coord
}

// Collector returns the metrics collector.
func (s *Service) Collector() *metrics.Collector {
	return s.collector
}

// Monitor returns the health monitor.
func (s *Service) Monitor() *health.Monitor {
	return s.monitor
}

// ResponseCache returns the caching decorator bound to this service.
func (s *Service) ResponseCache(opts middleware.CacheOptions) func(http.Handler) http.Handler {
	return middleware.ResponseCache(s.coord, opts, s.middlewareLogger)
}

// ResponseTiming returns the timing decorator bound to this service.
func (s *Service) ResponseTiming() func(http.Handler) http.Handler {
	return middleware.ResponseTiming(s.collector)
}

// HealthCheck computes a health report.
func (s *Service) HealthCheck(ctx context.Context) health.Report {
	return s.monitor.Check(ctx)
}

// ClearCache flushes both tiers.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.coord.ClearAll(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Cache clear incomplete")
		return err
	}
	s.logger.Info().Msg("Cache cleared")
	return nil
}
