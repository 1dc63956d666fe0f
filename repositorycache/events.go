package repositorycache

import (
	"context"
	"reflect"
)

// EventKind is the kind of write that produced an EntityChange.
type EventKind int

const (
	EventInsert EventKind = iota + 1
	EventUpdate
	EventDelete
)

func (k EventKind) String() string {
	switch k {
	case EventInsert:
		return "insert"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// EntityChange describes a successful repository write.
// Entity is nil when the write was criteria based and the affected
// records are unknown.
type EntityChange struct {
	EntityType string
	Entity     any
	Kind       EventKind
	// Tags are extra prefixes to drop, attached with WithInvalidationTags.
	Tags []string
}

// Publisher receives entity changes. Implementations must not fail the write
// that produced the change.
type Publisher interface {
	Publish(ctx context.Context, change EntityChange)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, change EntityChange)

func (f PublisherFunc) Publish(ctx context.Context, change EntityChange) { f(ctx, change) }

// EntityType returns the entity-type tag for T, the snake_case name of the
// type with pointers removed. *domain.LocalizedProperty is "localized_property".
func EntityType[T any]() string {
	return entityTypeOf(reflect.TypeOf((*T)(nil)).Elem())
}

func entityTypeOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return toSnake(t.Name())
}
