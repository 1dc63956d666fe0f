package repositorycache

import (
	"github.com/goliatone/go-storefront-cache/cache"
)

// Family is the key namespace of one entity type. It equals the entity-type tag.
type Family string

// FamilyOf returns the family for entity type T.
func FamilyOf[T any]() Family {
	return Family(EntityType[T]())
}

// Prefix is the tag carried by every template of the family.
func (f Family) Prefix() string {
	return string(f) + "."
}

// Template builds a key template inside the family. key and prefixes are
// relative to the family, so Family("country").Template("all.{0}", "all.")
// resolves to "country.all.{0}" tagged with "country.all." and "country.".
func (f Family) Template(key string, prefixes ...string) cache.KeyTemplate {
	tags := make([]string, 0, len(prefixes)+1)
	for _, p := range prefixes {
		tags = append(tags, f.Prefix()+p)
	}
	tags = append(tags, f.Prefix())
	return cache.NewKeyTemplate(f.Prefix()+key, tags...)
}

// Defaults are the templates shared by every entity family.
type Defaults struct {
	Family Family
	// ByID is keyed by the entity id.
	ByID cache.KeyTemplate
	// ByIDs is keyed by a set of ids and tagged with ByIDsPrefix.
	ByIDs       cache.KeyTemplate
	ByIDsPrefix string
	AllPrefix   string
}

// EntityDefaults returns the default templates of entityType.
func EntityDefaults(entityType string) Defaults {
	f := Family(entityType)
	return Defaults{
		Family:      f,
		ByID:        f.Template("byid.{0}"),
		ByIDs:       f.Template("byids.{0}", "byids."),
		ByIDsPrefix: f.Prefix() + "byids.",
		AllPrefix:   f.Prefix() + "all.",
	}
}

// All returns a listing template "<family>.all.<suffix>" tagged with AllPrefix.
func (d Defaults) All(suffix string) cache.KeyTemplate {
	return d.Family.Template("all."+suffix, "all.")
}
