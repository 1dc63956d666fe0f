package repositorycache

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/rs/zerolog"
)

// TextCodeConsumerFailed marks errors raised by invalidation rules.
const TextCodeConsumerFailed = "CACHE_CONSUMER_FAILED"

// Interface assertion to ensure Dispatcher implements Publisher
var _ Publisher = (*Dispatcher)(nil)

// Rule removes the cache entries made stale by change.
type Rule func(ctx context.Context, m cache.Manager, change EntityChange) error

// RegisterOption configures a registration.
type RegisterOption func(*registration)

// WithoutDefaultRule skips the family default rule for the entity type.
func WithoutDefaultRule() RegisterOption {
	return func(r *registration) { r.noDefault = true }
}

type registration struct {
	noDefault bool
	rules     []Rule
}

// Dispatcher routes entity changes to the invalidation rules registered for
// their entity type.
//
// A failing rule never fails the write. The error is logged, reported to the
// OnError hook and the whole entity family is dropped instead.
type Dispatcher struct {
	manager cache.Manager
	logger  zerolog.Logger
	onError func(ctx context.Context, change EntityChange, err error)

	mu    sync.RWMutex
	types map[string]*registration
}

// DispatcherOption configures NewDispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the dispatcher logger.
func WithDispatcherLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// OnError registers a hook called with every rule failure.
func OnError(fn func(ctx context.Context, change EntityChange, err error)) DispatcherOption {
	return func(d *Dispatcher) { d.onError = fn }
}

func NewDispatcher(manager cache.Manager, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		manager: manager,
		logger:  zerolog.Nop(),
		types:   make(map[string]*registration),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With().Str("component", "CacheEventDispatcher").Logger()
	return d
}

// Register subscribes rules to entityType. Registering the same type again
// appends rules; the default rule runs once unless any registration disabled it.
func (d *Dispatcher) Register(entityType string, rules []Rule, opts ...RegisterOption) {
	d.mu.Lock()
	defer d.mu.Unlock()

	reg, ok := d.types[entityType]
	if !ok {
		reg = &registration{}
		d.types[entityType] = reg
	}

	for _, opt := range opts {
		opt(reg)
	}
	reg.rules = append(reg.rules, rules...)
}

// Registered reports whether entityType has a registration.
func (d *Dispatcher) Registered(entityType string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.types[entityType]
	return ok
}

// On registers a typed rule for the entity type of T. Changes without an
// entity, such as criteria deletes, cannot be handled by a typed rule and
// fall back to dropping the family.
func On[T any](d *Dispatcher, rule func(ctx context.Context, m cache.Manager, entity T, kind EventKind) error, opts ...RegisterOption) {
	entityType := EntityType[T]()

	d.Register(entityType, []Rule{func(ctx context.Context, m cache.Manager, change EntityChange) error {
		if change.Entity == nil {
			return errors.New("change without entity", errors.CategoryInternal).
				WithTextCode(TextCodeConsumerFailed)
		}
		entity, ok := change.Entity.(T)
		if !ok {
			return errors.New(fmt.Sprintf("%s rule got %T", entityType, change.Entity), errors.CategoryInternal).
				WithTextCode(TextCodeConsumerFailed)
		}
		return rule(ctx, m, entity, change.Kind)
	}}, opts...)
}

// Track registers T with only the default rule.
func Track[T any](d *Dispatcher) {
	d.Register(EntityType[T](), nil)
}

// Publish implements Publisher.
func (d *Dispatcher) Publish(ctx context.Context, change EntityChange) {
	d.mu.RLock()
	reg, ok := d.types[change.EntityType]
	var rules []Rule
	useDefault := false
	if ok {
		useDefault = !reg.noDefault
		rules = append(rules, reg.rules...)
	}
	d.mu.RUnlock()

	if ok {
		if useDefault {
			rules = append([]Rule{DefaultRule}, rules...)
		}

		failed := false
		for _, rule := range rules {
			if err := d.run(ctx, rule, change); err != nil {
				failed = true
				d.fail(ctx, change, err)
			}
		}

		if failed {
			d.dropFamily(ctx, change)
		}
	}

	for _, tag := range change.Tags {
		if err := d.manager.RemoveByPrefix(ctx, tag); err != nil {
			d.logger.Error().Err(err).Str("prefix", tag).Msg("Failed to remove invalidation tag.")
		}
	}

	d.logger.Debug().
		Str("entity_type", change.EntityType).
		Stringer("kind", change.Kind).
		Bool("registered", ok).
		Msg("Entity change dispatched.")
}

// run calls rule and turns a panic into an error.
func (d *Dispatcher) run(ctx context.Context, rule Rule, change EntityChange) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprintf("invalidation rule panicked: %v", r), errors.CategoryInternal).
				WithTextCode(TextCodeConsumerFailed)
		}
	}()
	return rule(ctx, d.manager, change)
}

func (d *Dispatcher) fail(ctx context.Context, change EntityChange, err error) {
	wrapped := errors.Wrap(err, errors.CategoryInternal, "cache invalidation failed for "+change.EntityType).
		WithMetadata(map[string]any{
			"entity_type": change.EntityType,
			"kind":        change.Kind.String(),
		})

	d.logger.Error().
		Err(wrapped).
		Str("entity_type", change.EntityType).
		Stringer("kind", change.Kind).
		Msg("Cache invalidation rule failed, dropping entity family.")

	if d.onError != nil {
		d.onError(ctx, change, wrapped)
	}
}

func (d *Dispatcher) dropFamily(ctx context.Context, change EntityChange) {
	prefix := Family(change.EntityType).Prefix()
	if err := d.manager.RemoveByPrefix(ctx, prefix); err != nil {
		d.logger.Error().Err(err).Str("prefix", prefix).Msg("Failed to drop entity family.")
	}
}

// DefaultRule removes the id-set and listing families of the entity type and,
// for updates and deletes, the by-id entry of the entity. It needs the entity
// to implement cache.Identifier to find that entry.
func DefaultRule(ctx context.Context, m cache.Manager, change EntityChange) error {
	defaults := EntityDefaults(change.EntityType)

	if err := m.RemoveByPrefix(ctx, defaults.ByIDsPrefix); err != nil {
		return err
	}
	if err := m.RemoveByPrefix(ctx, defaults.AllPrefix); err != nil {
		return err
	}

	if change.Kind == EventInsert {
		return nil
	}

	// criteria writes do not say which records changed
	if change.Entity == nil {
		return m.RemoveByPrefix(ctx, defaults.Family.Prefix())
	}

	id, ok := change.Entity.(cache.Identifier)
	if !ok {
		return errors.New(fmt.Sprintf("cannot resolve the %s entry of %T", defaults.ByID.Key, change.Entity), errors.CategoryInternal).
			WithTextCode(TextCodeConsumerFailed)
	}
	return m.Remove(ctx, defaults.ByID, id)
}
