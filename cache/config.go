package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	// Backend selects the store implementation, BackendMemory or BackendRedis.
	Backend string `mapstructure:"backend"`

	// KeyPrefix namespaces every resolved key and prefix tag.
	KeyPrefix string `mapstructure:"key_prefix"`

	// MaxKeyLength bounds resolved keys. Longer keys are shortened with a hash
	// suffix. Zero disables shortening.
	MaxKeyLength int `mapstructure:"max_key_length"`

	// DefaultCacheTime is used by PrepareKeyForDefaultCache.
	DefaultCacheTime time.Duration `mapstructure:"default_cache_time"`

	// ShortTermCacheTime is used by PrepareKeyForShortTermCache.
	ShortTermCacheTime time.Duration `mapstructure:"short_term_cache_time"`

	Memory MemoryConfig `mapstructure:"memory"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// MemoryConfig mirrors the underlying sturdyc options.
type MemoryConfig struct {
	Capacity             int                 `mapstructure:"capacity"`
	NumShards            int                 `mapstructure:"num_shards"`
	TTL                  time.Duration       `mapstructure:"ttl"`
	EvictionPercentage   int                 `mapstructure:"eviction_percentage"`
	EarlyRefresh         *EarlyRefreshConfig `mapstructure:"early_refresh"`
	MissingRecordStorage bool                `mapstructure:"missing_record_storage"`
	EvictionInterval     time.Duration       `mapstructure:"eviction_interval"`
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `mapstructure:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `mapstructure:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `mapstructure:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay"`
}

// RedisConfig holds the connection settings for the redis backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendMemory,
		KeyPrefix:          "storefront",
		MaxKeyLength:       250,
		DefaultCacheTime:   60 * time.Minute,
		ShortTermCacheTime: 3 * time.Minute,
		Memory: MemoryConfig{
			Capacity:           10000,
			NumShards:          256,
			TTL:                60 * time.Minute,
			EvictionPercentage: 10,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  60 * time.Minute,
		},
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendRedis)),
		validation.Field(&c.KeyPrefix, validation.Required),
		validation.Field(&c.MaxKeyLength, validation.Min(0)),
		validation.Field(&c.DefaultCacheTime, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.ShortTermCacheTime, validation.Required, validation.Min(time.Duration(1))),
	)
	if err != nil {
		return errors.FromOzzoValidation(err, "invalid cache config")
	}

	switch c.Backend {
	case BackendMemory:
		if err := c.Memory.Validate(); err != nil {
			return errors.FromOzzoValidation(err, "invalid memory cache config")
		}
	case BackendRedis:
		if err := c.Redis.Validate(); err != nil {
			return errors.FromOzzoValidation(err, "invalid redis cache config")
		}
	}

	// a hashed key keeps a head of the original key, so it needs room for it
	if c.MaxKeyLength > 0 && c.MaxKeyLength < len(c.KeyPrefix)+hashSuffixLength+1 {
		return errors.NewValidation("invalid cache config", errors.FieldError{
			Field:   "MaxKeyLength",
			Message: "too small to hold the key prefix and a hash suffix",
			Value:   c.MaxKeyLength,
		})
	}

	return nil
}

// Validate checks the sturdyc settings.
func (c MemoryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.EarlyRefresh),
	)
}

// Validate checks the early refresh durations.
func (c EarlyRefreshConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MinAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&c.SyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryBaseDelay, validation.Min(time.Duration(0))),
	)
}

// Validate checks the redis connection settings.
func (c RedisConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
	)
}
