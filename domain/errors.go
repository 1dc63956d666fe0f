package domain

import (
	"github.com/goliatone/go-errors"
)

// ErrNoCurrentStore is returned when no store is bound to the request.
var ErrNoCurrentStore = errors.New("no current store", errors.CategoryBadInput).
	WithTextCode("NO_CURRENT_STORE")
