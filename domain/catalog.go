package domain

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SpecificationAttributeGroup struct {
	bun.BaseModel `bun:"table:specification_attribute_groups,alias:sag"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	DisplayOrder int       `bun:"display_order" json:"display_order"`
}

func (g *SpecificationAttributeGroup) GetID() uuid.UUID       { return g.ID }
func (g *SpecificationAttributeGroup) SetID(id uuid.UUID)     { g.ID = id }
func (g *SpecificationAttributeGroup) CacheKeyID() string     { return cacheKeyID(g.ID) }
func (g *SpecificationAttributeGroup) LocaleKeyGroup() string { return "SpecificationAttributeGroup" }

// SpecificationAttribute belongs to a group, or to none when
// SpecificationAttributeGroupID is nil.
type SpecificationAttribute struct {
	bun.BaseModel `bun:"table:specification_attributes,alias:sa"`

	ID                            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Name                          string     `bun:"name,notnull" json:"name"`
	DisplayOrder                  int        `bun:"display_order" json:"display_order"`
	SpecificationAttributeGroupID *uuid.UUID `bun:"specification_attribute_group_id,type:uuid,nullzero" json:"specification_attribute_group_id,omitempty"`
}

func (a *SpecificationAttribute) GetID() uuid.UUID       { return a.ID }
func (a *SpecificationAttribute) SetID(id uuid.UUID)     { a.ID = id }
func (a *SpecificationAttribute) CacheKeyID() string     { return cacheKeyID(a.ID) }
func (a *SpecificationAttribute) LocaleKeyGroup() string { return "SpecificationAttribute" }

type SpecificationAttributeOption struct {
	bun.BaseModel `bun:"table:specification_attribute_options,alias:sao"`

	ID                       uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	SpecificationAttributeID uuid.UUID `bun:"specification_attribute_id,type:uuid,notnull" json:"specification_attribute_id"`
	Name                     string    `bun:"name,notnull" json:"name"`
	ColorSquaresRgb          string    `bun:"color_squares_rgb" json:"color_squares_rgb"`
	DisplayOrder             int       `bun:"display_order" json:"display_order"`
}

func (o *SpecificationAttributeOption) GetID() uuid.UUID       { return o.ID }
func (o *SpecificationAttributeOption) SetID(id uuid.UUID)     { o.ID = id }
func (o *SpecificationAttributeOption) CacheKeyID() string     { return cacheKeyID(o.ID) }
func (o *SpecificationAttributeOption) LocaleKeyGroup() string { return "SpecificationAttributeOption" }

// ProductSpecificationAttribute links a product to a specification option.
type ProductSpecificationAttribute struct {
	bun.BaseModel `bun:"table:product_specification_attributes,alias:psa"`

	ID                             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ProductID                      uuid.UUID `bun:"product_id,type:uuid,notnull" json:"product_id"`
	SpecificationAttributeOptionID uuid.UUID `bun:"specification_attribute_option_id,type:uuid,notnull" json:"specification_attribute_option_id"`
	AllowFiltering                 bool      `bun:"allow_filtering" json:"allow_filtering"`
	ShowOnProductPage              bool      `bun:"show_on_product_page" json:"show_on_product_page"`
	DisplayOrder                   int       `bun:"display_order" json:"display_order"`
}

func (p *ProductSpecificationAttribute) GetID() uuid.UUID   { return p.ID }
func (p *ProductSpecificationAttribute) SetID(id uuid.UUID) { p.ID = id }
func (p *ProductSpecificationAttribute) CacheKeyID() string { return cacheKeyID(p.ID) }
