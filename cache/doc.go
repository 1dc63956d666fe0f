// Package cache provides the static cache contract, key templates and key preparation.
//
// # Overview
//
// This package exports the pieces services need to cache read paths:
//
//   - KeyTemplate: names a family of entries and the prefix tags used to invalidate it
//   - CacheKey: an immutable, resolved key produced by a KeyBuilder
//   - Manager: a cache-aside store with exact key and prefix invalidation
//   - Get: the type-safe read path over a Manager
//
// Backends live in internal/cacheinfra and are wired by pkg/di.
//
// # Basic Usage
//
//	var CountriesAll = cache.NewKeyTemplate("country.all.{0}-{1}-{2}", "country.all.")
//
//	key, err := manager.PrepareKeyForDefaultCache(CountriesAll, languageID, showHidden, store)
//	if err != nil {
//		return nil, err
//	}
//	countries, err := cache.Get(ctx, manager, key, func(ctx context.Context) ([]*domain.Country, error) {
//		return repo.List(ctx, criteria...)
//	})
//
// Writes invalidate by exact key or by prefix:
//
//	manager.Remove(ctx, ForumsByGroup, forum.ForumGroupID)
//	manager.RemoveByPrefix(ctx, "newsitem.comments.number.{0}", comment.NewsItemID)
//
// # Key Parts
//
// Parts must have a stable string form. The default serializer accepts:
//
//   - strings, bools, integers and floats
//   - uuid.UUID and time.Time (UTC, RFC3339Nano)
//   - values implementing Identifier (entities pass their id)
//   - pointers to and slices of the above; slices are sorted so sets of ids are order independent
//
// Nil parts, funcs, channels, maps and structs that do not implement
// Identifier are rejected with a bad input error. Object identity is never
// used to build a key.
//
// # Cache Time
//
// PrepareKeyForDefaultCache uses Config.DefaultCacheTime, PrepareKeyForShortTermCache
// uses Config.ShortTermCacheTime, and a KeyTemplate.CacheTime override wins over
// the default flavour. PrepareKey leaves the expiry to the backend.
//
// # Concurrency
//
// Concurrent misses on the same key are coalesced into a single fetch by the
// backends. A fetch that started before an invalidation of one of the key's
// tags is returned to its caller but not kept in the cache.
package cache
