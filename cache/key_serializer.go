package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeySeparator defines the delimiter used for parts that have no placeholder in the template.
const KeySeparator = "::"

// Identifier is implemented by entities that can be used as key parts.
// The returned value must be stable for the lifetime of the entity.
type Identifier interface {
	CacheKeyID() string
}

// KeySerializer turns key parts into their string form.
type KeySerializer interface {
	SerializePart(index int, v any) (string, error)
}

// defaultKeySerializer accepts primitives, uuids, times, Identifiers and
// slices of those. Anything whose string form is not stable across calls
// (funcs, channels, maps, plain structs) is rejected.
//
// Strings are quoted, so separators inside a value cannot move the boundary
// between two parts: ("a-b", "c") and ("a", "b-c") give different keys.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializePart returns the string form of a single key part.
func (s *defaultKeySerializer) SerializePart(index int, v any) (string, error) {
	if v == nil {
		return "", invalidPartError(index, v, "nil parts are not allowed")
	}

	switch val := v.(type) {
	case Identifier:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return "", invalidPartError(index, v, "nil identifier")
		}
		return val.CacheKeyID(), nil
	case uuid.UUID:
		return val.String(), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	case string:
		return strconv.Quote(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "", invalidPartError(index, v, "nil pointer")
		}
		return s.SerializePart(index, rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "slice[0]:{}", nil
		}
		return s.serializeSlice(index, rv)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil

	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil

	case reflect.String:
		return strconv.Quote(rv.String()), nil

	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	}

	return "", invalidPartError(index, v, fmt.Sprintf("unsupported kind %s, pass an id or implement Identifier", rv.Kind()))
}

// serializeSlice serializes elements and sorts them, so sets of ids (role ids
// for example) produce the same key regardless of their order.
func (s *defaultKeySerializer) serializeSlice(index int, rv reflect.Value) (string, error) {
	length := rv.Len()
	parts := make([]string, length)

	for i := 0; i < length; i++ {
		elem := rv.Index(i).Interface()
		str, err := s.SerializePart(index, elem)
		if err != nil {
			return "", err
		}
		parts[i] = str
	}
	sort.Strings(parts)

	return fmt.Sprintf("slice[%d]:{%s}", length, strings.Join(parts, ",")), nil
}
