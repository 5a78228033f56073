// Package config loads the perf-server configuration from an optional YAML
// file and PERF_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/perfcache/pkg/cache"
	"github.com/Sternrassler/perfcache/pkg/health"
	"github.com/Sternrassler/perfcache/pkg/logging"
	"github.com/Sternrassler/perfcache/pkg/metrics"
	"github.com/Sternrassler/perfcache/pkg/performance"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (PERF_CACHE_DEFAULT_TTL, ...).
const EnvPrefix = "PERF"

// ConfigFileEnv names the environment variable holding an explicit config file path.
const ConfigFileEnv = "PERF_CONFIG_FILE"

// Config holds the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Health  HealthConfig  `mapstructure:"health"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddress   string        `mapstructure:"listen_address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// CacheConfig configures both cache tiers.
type CacheConfig struct {
	DefaultTTL              time.Duration `mapstructure:"default_ttl"`
	ReapInterval            time.Duration `mapstructure:"reap_interval"`
	PromotionTTL            time.Duration `mapstructure:"promotion_ttl"`
	UseDistributedTier      bool          `mapstructure:"use_distributed_tier"`
	DistributedTierEndpoint string        `mapstructure:"distributed_tier_endpoint"`
	KeyPrefix               string        `mapstructure:"key_prefix"`
	OperationTimeout        time.Duration `mapstructure:"operation_timeout"`
	ConnectAttempts         int           `mapstructure:"connect_attempts"`
}

// HealthConfig configures memory sampling.
type HealthConfig struct {
	MemoryThresholdBytes uint64        `mapstructure:"memory_threshold_bytes"`
	SampleInterval       time.Duration `mapstructure:"sample_interval"`
}

// MetricsConfig sizes the sample windows.
type MetricsConfig struct {
	ResponseTimeBufferCapacity int `mapstructure:"response_time_buffer_capacity"`
	MemorySampleBufferCapacity int `mapstructure:"memory_sample_buffer_capacity"`
}

// Load reads configuration from file and environment variables.
//
// The file is taken from PERF_CONFIG_FILE when set; otherwise perfcache.yaml
// is looked up in the working directory and ./configs. A missing default
// file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile := os.Getenv(ConfigFileEnv); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("perfcache")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional Redis variables as fallbacks for the endpoint
	if err := v.BindEnv("cache.distributed_tier_endpoint",
		"PERF_CACHE_DISTRIBUTED_TIER_ENDPOINT", "REDIS_URL", "REDIS_ADDR"); err != nil {
		return nil, fmt.Errorf("bind redis env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Logging defaults
	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)

	// Cache defaults
	v.SetDefault("cache.default_ttl", cache.DefaultTTL)
	v.SetDefault("cache.reap_interval", cache.DefaultReapInterval)
	v.SetDefault("cache.promotion_ttl", cache.DefaultPromotionTTL)
	v.SetDefault("cache.use_distributed_tier", false)
	v.SetDefault("cache.distributed_tier_endpoint", "")
	v.SetDefault("cache.key_prefix", cache.DefaultKeyPrefix)
	v.SetDefault("cache.operation_timeout", cache.DefaultOperationTimeout)
	v.SetDefault("cache.connect_attempts", cache.DefaultConnectConfig().MaxAttempts)

	// Health defaults
	v.SetDefault("health.memory_threshold_bytes", health.DefaultMemoryThreshold)
	v.SetDefault("health.sample_interval", health.DefaultSampleInterval)

	// Metrics defaults
	v.SetDefault("metrics.response_time_buffer_capacity", metrics.DefaultResponseTimeCapacity)
	v.SetDefault("metrics.memory_sample_buffer_capacity", metrics.DefaultMemorySampleCapacity)
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address is required")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache.default_ttl must be positive")
	}
	if c.Cache.ReapInterval <= 0 {
		return fmt.Errorf("cache.reap_interval must be positive")
	}
	if c.Health.SampleInterval <= 0 {
		return fmt.Errorf("health.sample_interval must be positive")
	}
	if c.Metrics.ResponseTimeBufferCapacity <= 0 || c.Metrics.MemorySampleBufferCapacity <= 0 {
		return fmt.Errorf("metrics buffer capacities must be positive")
	}
	return nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Pretty = c.Log.Pretty
	return cfg
}

// Performance returns the service configuration.
func (c *Config) Performance() performance.Config {
	cfg := performance.DefaultConfig()

	cfg.DefaultTTL = c.Cache.DefaultTTL
	cfg.ReapInterval = c.Cache.ReapInterval
	cfg.PromotionTTL = c.Cache.PromotionTTL
	cfg.UseDistributedTier = c.Cache.UseDistributedTier
	cfg.DistributedTierEndpoint = c.Cache.DistributedTierEndpoint
	cfg.DistributedKeyPrefix = c.Cache.KeyPrefix
	cfg.DistributedTimeout = c.Cache.OperationTimeout
	if c.Cache.ConnectAttempts > 0 {
		cfg.Connect.MaxAttempts = c.Cache.ConnectAttempts
	}

	cfg.HealthMemoryThreshold = c.Health.MemoryThresholdBytes
	cfg.HealthSampleInterval = c.Health.SampleInterval

	cfg.ResponseTimeBufferCapacity = c.Metrics.ResponseTimeBufferCapacity
	cfg.MemorySampleBufferCapacity = c.Metrics.MemorySampleBufferCapacity

	return cfg
}
