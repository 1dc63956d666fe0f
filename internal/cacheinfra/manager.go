package cacheinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Interface assertion to ensure Manager implements cache.Manager
var _ cache.Manager = (*Manager)(nil)

// Store is the key/value backend behind a Manager.
type Store interface {
	// GetOrFetch returns the stored value or runs fetch and stores its result.
	// fetched is true only for the call that ran fetch.
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (any, error)) (value any, fetched bool, err error)
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

const clearGeneration = "*"

// Manager implements cache.Manager over a Store and a TagIndex.
//
// A fetch watches the key, its tags and the clear marker while it runs.
// Invalidations bump the generation of watched names only, and a fetch that
// sees a bumped generation once it has stored drops its own entry. Watches
// are released when the last fetch holding them returns.
type Manager struct {
	*cache.KeyBuilder
	store   Store
	tags    TagIndex
	watches *xsync.MapOf[string, watch]
	closer  func() error
	logger  zerolog.Logger
}

type watch struct {
	refs int
	gen  uint64
}

// Option configures NewManager.
type Option func(*options)

type options struct {
	logger      zerolog.Logger
	redisClient redis.UniversalClient
	serializer  cache.KeySerializer
}

// WithLogger sets the logger used by the manager and its backend.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRedisClient supplies an existing client for the redis backend instead
// of dialing Config.Redis.Addr.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) { o.redisClient = client }
}

// WithKeySerializer replaces the default key part serializer.
func WithKeySerializer(s cache.KeySerializer) Option {
	return func(o *options) { o.serializer = s }
}

// NewManager builds the backend selected by cfg.Backend.
func NewManager(ctx context.Context, cfg cache.Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	builder := cache.NewKeyBuilder(cfg, o.serializer)

	switch cfg.Backend {
	case cache.BackendRedis:
		client := o.redisClient
		var closer func() error
		if client == nil {
			rdb, err := NewRedisClient(ctx, cfg.Redis)
			if err != nil {
				return nil, err
			}
			client, closer = rdb, rdb.Close
		}
		rs := newRedisStore(client, cfg.KeyPrefix, cfg.Redis.TTL, o.logger)
		m := New(builder, rs, rs, o.logger)
		m.closer = closer
		return m, nil

	default:
		ms, err := NewSturdycStore(cfg.Memory)
		if err != nil {
			return nil, err
		}
		return New(builder, ms, newMemoryTagIndex(), o.logger), nil
	}
}

// New assembles a Manager from its parts.
func New(builder *cache.KeyBuilder, store Store, tags TagIndex, logger zerolog.Logger) *Manager {
	return &Manager{
		KeyBuilder: builder,
		store:      store,
		tags:       tags,
		watches:    xsync.NewMapOf[string, watch](),
		logger:     logger.With().Str("component", "StaticCacheManager").Logger(),
	}
}

// GetOrFetch implements cache.Manager.GetOrFetch.
func (m *Manager) GetOrFetch(ctx context.Context, key cache.CacheKey, fetch func(ctx context.Context) (any, error)) (any, error) {
	if key.IsZero() {
		return nil, errors.New("cache key was not prepared", errors.CategoryBadInput)
	}
	if fetch == nil {
		return nil, errors.New(fmt.Sprintf("nil fetch function for %s", key.Key()), errors.CategoryBadInput)
	}

	names := watchNames(key)
	before := m.acquire(names)

	value, fetched, err := m.store.GetOrFetch(ctx, key.Key(), key.CacheTime(), fetch)
	if err != nil {
		m.release(names, before)
		return nil, err
	}

	if !fetched {
		m.release(names, before)
		m.logger.Debug().Str("key", key.Key()).Msg("Cache hit.")
		return value, nil
	}

	m.logger.Debug().Str("key", key.Key()).Msg("Cache miss, stored fetched value.")

	if prefixes := key.Prefixes(); len(prefixes) > 0 {
		if err := m.tags.Tag(ctx, key.Key(), prefixes, key.CacheTime()); err != nil {
			m.release(names, before)
			// an untagged entry could never be invalidated by prefix
			m.logger.Warn().Err(err).Str("key", key.Key()).Msg("Failed to tag cache entry, dropping it.")
			m.deleteQuietly(ctx, key.Key())
			return value, nil
		}
	}

	if m.release(names, before) {
		m.logger.Debug().Str("key", key.Key()).Msg("Invalidated during fetch, dropping stored value.")
		m.deleteQuietly(ctx, key.Key())
	}

	return value, nil
}

// Remove implements cache.Manager.Remove.
func (m *Manager) Remove(ctx context.Context, template cache.KeyTemplate, parts ...any) error {
	key, err := m.PrepareKey(template, parts...)
	if err != nil {
		return err
	}
	return m.RemoveKey(ctx, key)
}

// RemoveKey implements cache.Manager.RemoveKey.
func (m *Manager) RemoveKey(ctx context.Context, key cache.CacheKey) error {
	if key.IsZero() {
		return errors.New("cache key was not prepared", errors.CategoryBadInput)
	}
	m.bump("k:" + key.Key())
	if err := m.store.Delete(ctx, key.Key()); err != nil {
		return err
	}
	m.logger.Debug().Str("key", key.Key()).Msg("Removed cache entry.")
	return nil
}

// RemoveByPrefix implements cache.Manager.RemoveByPrefix.
func (m *Manager) RemoveByPrefix(ctx context.Context, prefix string, parts ...any) error {
	tag, err := m.ResolvePrefix(prefix, parts...)
	if err != nil {
		return err
	}

	m.bump("t:" + tag)

	keys, err := m.tags.Keys(ctx, tag)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		return err
	}
	if err := m.tags.DropTag(ctx, tag); err != nil {
		return err
	}

	m.logger.Debug().Str("prefix", tag).Int("removed", len(keys)).Msg("Removed cache entries by prefix.")
	return nil
}

// Clear implements cache.Manager.Clear.
func (m *Manager) Clear(ctx context.Context) error {
	m.bump(clearGeneration)
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	if err := m.tags.Reset(ctx); err != nil {
		return err
	}
	m.logger.Info().Msg("Cache cleared.")
	return nil
}

func (m *Manager) deleteQuietly(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete cache entry.")
	}
}

func watchNames(key cache.CacheKey) []string {
	prefixes := key.Prefixes()
	names := make([]string, 0, len(prefixes)+2)
	names = append(names, clearGeneration, "k:"+key.Key())
	for _, p := range prefixes {
		names = append(names, "t:"+p)
	}
	return names
}

// acquire registers a fetch on names and returns their current generations.
func (m *Manager) acquire(names []string) []uint64 {
	gens := make([]uint64, len(names))
	for i, name := range names {
		w, _ := m.watches.Compute(name, func(old watch, _ bool) (watch, bool) {
			old.refs++
			return old, false
		})
		gens[i] = w.gen
	}
	return gens
}

// release drops the fetch's hold on names and reports whether any of them
// was invalidated since acquire.
func (m *Manager) release(names []string, before []uint64) bool {
	changed := false
	for i, name := range names {
		m.watches.Compute(name, func(old watch, loaded bool) (watch, bool) {
			if !loaded {
				return old, true
			}
			if old.gen != before[i] {
				changed = true
			}
			old.refs--
			return old, old.refs <= 0
		})
	}
	return changed
}

// bump advances the generation of a watched name. Names nobody watches are
// not recorded.
func (m *Manager) bump(name string) {
	m.watches.Compute(name, func(old watch, loaded bool) (watch, bool) {
		if !loaded {
			return old, true
		}
		old.gen++
		return old, false
	})
}

// Close releases the backend connection, if the manager dialed one.
func (m *Manager) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer()
}
