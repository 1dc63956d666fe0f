package domain

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Country is a country the store can bill or ship to.
type Country struct {
	bun.BaseModel `bun:"table:countries,alias:c"`

	ID                 uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name               string    `bun:"name,notnull" json:"name"`
	AllowsBilling      bool      `bun:"allows_billing" json:"allows_billing"`
	AllowsShipping     bool      `bun:"allows_shipping" json:"allows_shipping"`
	TwoLetterISOCode   string    `bun:"two_letter_iso_code" json:"two_letter_iso_code"`
	ThreeLetterISOCode string    `bun:"three_letter_iso_code" json:"three_letter_iso_code"`
	NumericISOCode     int       `bun:"numeric_iso_code" json:"numeric_iso_code"`
	SubjectToVAT       bool      `bun:"subject_to_vat" json:"subject_to_vat"`
	Published          bool      `bun:"published" json:"published"`
	DisplayOrder       int       `bun:"display_order" json:"display_order"`
	LimitedToStores    bool      `bun:"limited_to_stores" json:"limited_to_stores"`
}

func (c *Country) GetID() uuid.UUID       { return c.ID }
func (c *Country) SetID(id uuid.UUID)     { c.ID = id }
func (c *Country) CacheKeyID() string     { return cacheKeyID(c.ID) }
func (c *Country) LocaleKeyGroup() string { return "Country" }

// Address is the part of a customer address the directory needs.
type Address struct {
	CountryID *uuid.UUID `json:"country_id,omitempty"`
}

// Language is a storefront language.
type Language struct {
	bun.BaseModel `bun:"table:languages,alias:l"`

	ID              uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name            string    `bun:"name,notnull" json:"name"`
	LanguageCulture string    `bun:"language_culture" json:"language_culture"`
	UniqueSeoCode   string    `bun:"unique_seo_code" json:"unique_seo_code"`
	Published       bool      `bun:"published" json:"published"`
	DisplayOrder    int       `bun:"display_order" json:"display_order"`
}

func (l *Language) GetID() uuid.UUID   { return l.ID }
func (l *Language) SetID(id uuid.UUID) { l.ID = id }
func (l *Language) CacheKeyID() string { return cacheKeyID(l.ID) }

// LocalizedProperty is the translation of one property of one entity.
type LocalizedProperty struct {
	bun.BaseModel `bun:"table:localized_properties,alias:lp"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	EntityID       uuid.UUID `bun:"entity_id,type:uuid,notnull" json:"entity_id"`
	LanguageID     uuid.UUID `bun:"language_id,type:uuid,notnull" json:"language_id"`
	LocaleKeyGroup string    `bun:"locale_key_group,notnull" json:"locale_key_group"`
	LocaleKey      string    `bun:"locale_key,notnull" json:"locale_key"`
	LocaleValue    string    `bun:"locale_value" json:"locale_value"`
}

func (p *LocalizedProperty) GetID() uuid.UUID   { return p.ID }
func (p *LocalizedProperty) SetID(id uuid.UUID) { p.ID = id }
func (p *LocalizedProperty) CacheKeyID() string { return cacheKeyID(p.ID) }

// CustomerRole groups customers for access and widget visibility.
type CustomerRole struct {
	bun.BaseModel `bun:"table:customer_roles,alias:cr"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	SystemName string    `bun:"system_name" json:"system_name"`
	Active     bool      `bun:"active" json:"active"`
}

func (r *CustomerRole) GetID() uuid.UUID   { return r.ID }
func (r *CustomerRole) SetID(id uuid.UUID) { r.ID = id }
func (r *CustomerRole) CacheKeyID() string { return cacheKeyID(r.ID) }
