// Package repositorycache connects go-repository-bun writes to the static cache.
//
// # Overview
//
// Services read through cache.Manager and write through repositories. An
// EventSource wraps a repository.Repository[T] and publishes an EntityChange
// after every successful write. A Dispatcher receives those changes and runs
// the invalidation rules registered for the entity type.
//
//	dispatcher := repositorycache.NewDispatcher(manager)
//	countries := repositorycache.NewEventSource[*domain.Country](base, dispatcher)
//	repositorycache.Track[*domain.Country](dispatcher)
//
// # Entity types and families
//
// The entity-type tag is the snake_case name of the Go type, so
// *domain.LocalizedProperty publishes under "localized_property". The tag is
// also the key family of the type: templates built with Family.Template carry
// the family prefix ("localized_property.") next to their own prefixes.
//
// # Rules
//
// Rules are plain functions keyed by entity type:
//
//	repositorycache.On(dispatcher, func(ctx context.Context, m cache.Manager, lp *domain.LocalizedProperty, kind repositorycache.EventKind) error {
//		return m.Remove(ctx, valueKey, lp.LanguageID, lp.EntityID, lp.LocaleKeyGroup, lp.LocaleKey)
//	})
//
// Every registered type also gets DefaultRule unless WithoutDefaultRule is
// passed. It drops the "<type>.byids." and "<type>.all." prefixes and, for
// updates and deletes, the "<type>.byid.{0}" entry of the entity.
//
// # Failures
//
// Publish never returns an error. A rule that fails or panics is logged, the
// error is reported to the OnError hook and the whole family is dropped, so
// a broken rule leaves the cache cold rather than stale.
//
// # Transactions
//
// Tx variants publish as soon as the statement succeeds, before the
// transaction commits. A read between the two can cache the old row until
// the next write to the same entity.
package repositorycache
