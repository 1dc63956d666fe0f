package cache

import (
	"fmt"

	"github.com/goliatone/go-errors"
)

// Text codes attached to errors raised by this package.
const (
	TextCodeInvalidKey  = "CACHE_INVALID_KEY"
	TextCodeInvalidPart = "CACHE_INVALID_KEY_PART"
	TextCodeBackend     = "CACHE_BACKEND"
)

func invalidKeyError(format string, args ...any) error {
	return errors.New(fmt.Sprintf(format, args...), errors.CategoryBadInput).
		WithTextCode(TextCodeInvalidKey)
}

func invalidPartError(index int, v any, reason string) error {
	return errors.New(fmt.Sprintf("key part %d (%T): %s", index, v, reason), errors.CategoryBadInput).
		WithTextCode(TextCodeInvalidPart).
		WithMetadata(map[string]any{"index": index})
}

// BackendError wraps a failure from the underlying store.
func BackendError(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryExternal, "cache "+op+" failed").
		WithTextCode(TextCodeBackend)
}

// IsInvalidKey reports whether err was raised for a malformed template or key part.
func IsInvalidKey(err error) bool {
	return errors.IsCategory(err, errors.CategoryBadInput)
}
