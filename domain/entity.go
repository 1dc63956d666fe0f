// Package domain holds the storefront entities persisted through bun.
package domain

import (
	"github.com/google/uuid"
)

// Entity is implemented by every persisted model.
type Entity interface {
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	CacheKeyID() string
}

// Localizable entities own localized properties under LocaleKeyGroup.
type Localizable interface {
	GetID() uuid.UUID
	LocaleKeyGroup() string
}

// Models lists every table of the storefront schema, in creation order.
func Models() []any {
	return []any{
		(*Store)(nil),
		(*Language)(nil),
		(*Country)(nil),
		(*StoreMapping)(nil),
		(*LocalizedProperty)(nil),
		(*SpecificationAttributeGroup)(nil),
		(*SpecificationAttribute)(nil),
		(*SpecificationAttributeOption)(nil),
		(*ProductSpecificationAttribute)(nil),
		(*ForumGroup)(nil),
		(*Forum)(nil),
		(*NewsItem)(nil),
		(*NewsComment)(nil),
		(*CustomerRole)(nil),
	}
}

func cacheKeyID(id uuid.UUID) string {
	return id.String()
}
