package cacheinfra

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/viccon/sturdyc"
)

// envelope carries the per key expiry on top of the sturdyc TTL, which is
// global to the client.
type envelope struct {
	value     any
	expiresAt time.Time
}

func (e envelope) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// sturdycStore wraps a sturdyc client providing the in-process backend.
type sturdycStore struct {
	client *sturdyc.Client[any]
	now    func() time.Time
}

// ToSturdycOptions converts the memory settings to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage are passed directly to
// sturdyc.New() and are not included in the options.
func ToSturdycOptions(c cache.MemoryConfig) []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// NewSturdycStore creates the in-process store.
// sturdyc deduplicates in-flight fetches for the same key, so concurrent
// misses share a single call to the fetch function.
func NewSturdycStore(cfg cache.MemoryConfig) (*sturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		ToSturdycOptions(cfg)...,
	)

	return &sturdycStore{client: client, now: time.Now}, nil
}

// GetOrFetch returns the stored value or runs fetch. fetched reports whether
// this call ran fetch and stored its result.
func (s *sturdycStore) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (any, error)) (any, bool, error) {
	var value any
	var fetched bool

	// a hit on an expired envelope is evicted and fetched again, once
	for attempt := 0; attempt < 2; attempt++ {
		var ran atomic.Bool

		res, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
			v, err := fetch(ctx)
			if err != nil {
				return envelope{}, err
			}
			ran.Store(true)
			return envelope{value: v, expiresAt: s.expiry(ttl)}, nil
		})
		if err != nil {
			return nil, false, err
		}

		fetched = ran.Load()
		env, ok := res.(envelope)
		if !ok {
			return res, fetched, nil
		}

		value = env.value
		if fetched || !env.expired(s.now()) {
			return value, fetched, nil
		}

		s.client.Delete(key)
	}

	return value, fetched, nil
}

func (s *sturdycStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

// Delete removes entries. Absent keys are ignored.
func (s *sturdycStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Clear removes every entry.
func (s *sturdycStore) Clear(ctx context.Context) error {
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
	return nil
}

// Size returns the number of stored entries.
func (s *sturdycStore) Size() int {
	return s.client.Size()
}
