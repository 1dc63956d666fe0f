package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-storefront-cache/pkg/di"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "STOREFRONT"

type app struct {
	v      *viper.Viper
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "storefrontctl",
		Short: "Storefront catalog and cache tool",
		Long: `storefrontctl reads and writes storefront data through the same cached
services the storefront uses, and maintains the static cache.

Configuration is read from a file (--config) and STOREFRONT_* environment
variables, for example STOREFRONT_STORAGE_DSN or STOREFRONT_CACHE_BACKEND.

Common usage:
  storefrontctl countries list --show-hidden
  storefrontctl localized set --entity ID --group Country --key Name --language ID --value Kanada
  storefrontctl cache clear`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newCountriesCmd(a))
	root.AddCommand(newLocalizedCmd(a))
	root.AddCommand(newCacheCmd(a))

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelName, err)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	file, _ := cmd.Flags().GetString("config")
	return configureViper(a.v, file)
}

// configureViper registers every config key with its default so that
// environment variables can override keys missing from the file.
func configureViper(v *viper.Viper, file string) error {
	defaults := di.DefaultConfig()

	v.SetDefault("cache.backend", defaults.Cache.Backend)
	v.SetDefault("cache.key_prefix", defaults.Cache.KeyPrefix)
	v.SetDefault("cache.max_key_length", defaults.Cache.MaxKeyLength)
	v.SetDefault("cache.default_cache_time", defaults.Cache.DefaultCacheTime)
	v.SetDefault("cache.short_term_cache_time", defaults.Cache.ShortTermCacheTime)
	v.SetDefault("cache.memory.capacity", defaults.Cache.Memory.Capacity)
	v.SetDefault("cache.memory.num_shards", defaults.Cache.Memory.NumShards)
	v.SetDefault("cache.memory.ttl", defaults.Cache.Memory.TTL)
	v.SetDefault("cache.memory.eviction_percentage", defaults.Cache.Memory.EvictionPercentage)
	v.SetDefault("cache.redis.addr", defaults.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", defaults.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", defaults.Cache.Redis.DB)
	v.SetDefault("cache.redis.ttl", defaults.Cache.Redis.TTL)
	v.SetDefault("storage.driver", defaults.Storage.Driver)
	v.SetDefault("storage.dsn", defaults.Storage.DSN)
	v.SetDefault("storage.max_open_conns", defaults.Storage.MaxOpenConns)
	v.SetDefault("catalog.ignore_store_limitations", defaults.Catalog.IgnoreStoreLimitations)
	v.SetDefault("localization.load_all_localized_properties_on_startup", defaults.Localization.LoadAllLocalizedPropertiesOnStartup)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}
	return nil
}

func loadConfig(v *viper.Viper) (di.Config, error) {
	cfg := di.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// container builds the storefront for one command run. The caller closes it.
func (a *app) container(ctx context.Context, opts ...di.Option) (*di.Container, error) {
	cfg, err := loadConfig(a.v)
	if err != nil {
		return nil, err
	}
	return di.NewContainer(ctx, cfg, append([]di.Option{di.WithLogger(a.logger)}, opts...)...)
}
