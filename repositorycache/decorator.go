package repositorycache

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Interface assertion to ensure EventSource implements Repository[T]
var _ repository.Repository[any] = (*EventSource[any])(nil)

// EventSource decorates a base repository and publishes an EntityChange for
// every successful write. Reads pass through untouched.
type EventSource[T any] struct {
	base       repository.Repository[T]
	publisher  Publisher
	entityType string
}

// NewEventSource wraps base. The entity type is derived from T.
func NewEventSource[T any](base repository.Repository[T], publisher Publisher) *EventSource[T] {
	return &EventSource[T]{
		base:       base,
		publisher:  publisher,
		entityType: EntityType[T](),
	}
}

// EntityType returns the tag the changes are published under.
func (r *EventSource[T]) EntityType() string {
	return r.entityType
}

// Base returns the wrapped repository.
func (r *EventSource[T]) Base() repository.Repository[T] {
	return r.base
}

func (r *EventSource[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.Get(ctx, criteria...)
}

func (r *EventSource[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetByID(ctx, id, criteria...)
}

func (r *EventSource[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return r.base.List(ctx, criteria...)
}

func (r *EventSource[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	return r.base.Count(ctx, criteria...)
}

func (r *EventSource[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetByIdentifier(ctx, identifier, criteria...)
}

// Create creates a record and publishes an insert
func (r *EventSource[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := r.base.Create(ctx, record, criteria...)
	if err == nil {
		r.publish(ctx, EventInsert, result)
	}
	return result, err
}

func (r *EventSource[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := r.base.CreateTx(ctx, tx, record, criteria...)
	if err == nil {
		r.publish(ctx, EventInsert, result)
	}
	return result, err
}

func (r *EventSource[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := r.base.CreateMany(ctx, records, criteria...)
	if err == nil {
		r.publishAll(ctx, EventInsert, result)
	}
	return result, err
}

func (r *EventSource[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := r.base.CreateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		r.publishAll(ctx, EventInsert, result)
	}
	return result, err
}

// GetOrCreate publishes an insert since the record may have been created
func (r *EventSource[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	result, err := r.base.GetOrCreate(ctx, record)
	if err == nil {
		r.publish(ctx, EventInsert, result)
	}
	return result, err
}

func (r *EventSource[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	result, err := r.base.GetOrCreateTx(ctx, tx, record)
	if err == nil {
		r.publish(ctx, EventInsert, result)
	}
	return result, err
}

func (r *EventSource[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := r.base.Update(ctx, record, criteria...)
	if err == nil {
		r.publish(ctx, EventUpdate, result)
	}
	return result, err
}

func (r *EventSource[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := r.base.UpdateTx(ctx, tx, record, criteria...)
	if err == nil {
		r.publish(ctx, EventUpdate, result)
	}
	return result, err
}

func (r *EventSource[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := r.base.UpdateMany(ctx, records, criteria...)
	if err == nil {
		r.publishAll(ctx, EventUpdate, result)
	}
	return result, err
}

func (r *EventSource[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := r.base.UpdateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		r.publishAll(ctx, EventUpdate, result)
	}
	return result, err
}

// Upsert publishes an update, which covers both outcomes of the write
func (r *EventSource[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := r.base.Upsert(ctx, record, criteria...)
	if err == nil {
		r.publish(ctx, EventUpdate, result)
	}
	return result, err
}

func (r *EventSource[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := r.base.UpsertTx(ctx, tx, record, criteria...)
	if err == nil {
		r.publish(ctx, EventUpdate, result)
	}
	return result, err
}

func (r *EventSource[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := r.base.UpsertMany(ctx, records, criteria...)
	if err == nil {
		r.publishAll(ctx, EventUpdate, result)
	}
	return result, err
}

func (r *EventSource[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := r.base.UpsertManyTx(ctx, tx, records, criteria...)
	if err == nil {
		r.publishAll(ctx, EventUpdate, result)
	}
	return result, err
}

func (r *EventSource[T]) Delete(ctx context.Context, record T) error {
	err := r.base.Delete(ctx, record)
	if err == nil {
		r.publish(ctx, EventDelete, record)
	}
	return err
}

func (r *EventSource[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := r.base.DeleteTx(ctx, tx, record)
	if err == nil {
		r.publish(ctx, EventDelete, record)
	}
	return err
}

// DeleteMany publishes a delete without entity, the removed records are unknown
func (r *EventSource[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := r.base.DeleteMany(ctx, criteria...)
	if err == nil {
		r.publishCriteria(ctx)
	}
	return err
}

func (r *EventSource[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := r.base.DeleteManyTx(ctx, tx, criteria...)
	if err == nil {
		r.publishCriteria(ctx)
	}
	return err
}

func (r *EventSource[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := r.base.DeleteWhere(ctx, criteria...)
	if err == nil {
		r.publishCriteria(ctx)
	}
	return err
}

func (r *EventSource[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := r.base.DeleteWhereTx(ctx, tx, criteria...)
	if err == nil {
		r.publishCriteria(ctx)
	}
	return err
}

func (r *EventSource[T]) ForceDelete(ctx context.Context, record T) error {
	err := r.base.ForceDelete(ctx, record)
	if err == nil {
		r.publish(ctx, EventDelete, record)
	}
	return err
}

func (r *EventSource[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := r.base.ForceDeleteTx(ctx, tx, record)
	if err == nil {
		r.publish(ctx, EventDelete, record)
	}
	return err
}

func (r *EventSource[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetTx(ctx, tx, criteria...)
}

func (r *EventSource[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetByIDTx(ctx, tx, id, criteria...)
}

func (r *EventSource[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return r.base.ListTx(ctx, tx, criteria...)
}

func (r *EventSource[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return r.base.CountTx(ctx, tx, criteria...)
}

func (r *EventSource[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// Raw runs a query. Raw statements are not observed, callers that write
// through Raw must invalidate themselves.
func (r *EventSource[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return r.base.Raw(ctx, sql, args...)
}

func (r *EventSource[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return r.base.RawTx(ctx, tx, sql, args...)
}

func (r *EventSource[T]) Handlers() repository.ModelHandlers[T] {
	return r.base.Handlers()
}

func (r *EventSource[T]) publish(ctx context.Context, kind EventKind, record T) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(ctx, EntityChange{
		EntityType: r.entityType,
		Entity:     record,
		Kind:       kind,
		Tags:       invalidationTagsFromContext(ctx),
	})
}

func (r *EventSource[T]) publishAll(ctx context.Context, kind EventKind, records []T) {
	for _, record := range records {
		r.publish(ctx, kind, record)
	}
}

func (r *EventSource[T]) publishCriteria(ctx context.Context) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(ctx, EntityChange{
		EntityType: r.entityType,
		Kind:       EventDelete,
		Tags:       invalidationTagsFromContext(ctx),
	})
}
