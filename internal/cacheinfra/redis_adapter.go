package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

const scanCount = 100

// redisStore keeps entries in redis so several processes share one cache.
// Values are msgpack encoded and returned as cache.Encoded on hits; cache.Get
// decodes them into the caller's type. Tag sets live next to the entries.
type redisStore struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
	group     singleflight.Group
	logger    zerolog.Logger
}

// NewRedisClient connects to redis and pings it before returning.
func NewRedisClient(ctx context.Context, cfg cache.RedisConfig) (*redis.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, cache.BackendError(err, "redis ping")
	}
	return rdb, nil
}

func newRedisStore(client redis.UniversalClient, namespace string, ttl time.Duration, logger zerolog.Logger) *redisStore {
	return &redisStore{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger.With().Str("component", "RedisStore").Logger(),
	}
}

// GetOrFetch returns the encoded entry or runs fetch. Misses on the same key
// in this process share one fetch.
func (s *redisStore) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (any, error)) (any, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		return cache.Encoded(data), false, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, false, cache.BackendError(err, "redis get "+key)
	}

	fetched := false
	value, err, _ := s.group.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		fetched = true

		encoded, err := msgpack.Marshal(v)
		if err != nil {
			return nil, cache.BackendError(err, "encode "+key)
		}
		if err := s.client.Set(ctx, key, encoded, s.expiration(ttl)).Err(); err != nil {
			// the value is still good, the next read fetches again
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to store cache entry.")
		}
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, fetched, nil
}

func (s *redisStore) expiration(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return s.ttl
}

// Delete removes entries. Absent keys are ignored.
func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return cache.BackendError(err, "redis del")
	}
	return nil
}

// Clear removes every entry and tag set under the namespace.
func (s *redisStore) Clear(ctx context.Context) error {
	if err := s.deleteMatching(ctx, s.namespace+".*"); err != nil {
		return err
	}
	return s.Reset(ctx)
}

func (s *redisStore) tagKey(tag string) string {
	return s.namespace + ":tags:" + tag
}

// Tag adds key to the tag sets. Sets expire with the longest lived member.
func (s *redisStore) Tag(ctx context.Context, key string, tags []string, ttl time.Duration) error {
	if len(tags) == 0 {
		return nil
	}
	exp := s.expiration(ttl)
	if exp < s.ttl {
		exp = s.ttl
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, tag := range tags {
			pipe.SAdd(ctx, s.tagKey(tag), key)
			pipe.Expire(ctx, s.tagKey(tag), exp)
		}
		return nil
	})
	if err != nil {
		return cache.BackendError(err, "redis tag "+key)
	}
	return nil
}

func (s *redisStore) Keys(ctx context.Context, tag string) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.tagKey(tag)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, cache.BackendError(err, "redis smembers "+tag)
	}
	return keys, nil
}

func (s *redisStore) DropTag(ctx context.Context, tag string) error {
	return s.Delete(ctx, s.tagKey(tag))
}

func (s *redisStore) Reset(ctx context.Context) error {
	return s.deleteMatching(ctx, s.namespace+":tags:*")
}

// deleteMatching uses SCAN so large keyspaces are not blocked by KEYS.
func (s *redisStore) deleteMatching(ctx context.Context, pattern string) error {
	var cursor uint64
	deleted := 0

	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return cache.BackendError(fmt.Errorf("scan %s: %w", pattern, err), "redis clear")
		}

		if len(keys) > 0 {
			if err := s.Delete(ctx, keys...); err != nil {
				return err
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	s.logger.Debug().Str("pattern", pattern).Int("deleted", deleted).Msg("Deleted matching keys.")
	return nil
}
