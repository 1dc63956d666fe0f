// Package catalog manages specification attributes: groups, attributes,
// their options and the product attributes built from them.
package catalog

import (
	"context"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/internal/storage"
	"github.com/goliatone/go-storefront-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

var (
	groupDefaults = repositorycache.EntityDefaults(string(repositorycache.FamilyOf[*domain.SpecificationAttributeGroup]()))

	attributeFamily   = repositorycache.FamilyOf[*domain.SpecificationAttribute]()
	attributeDefaults = repositorycache.EntityDefaults(string(attributeFamily))

	optionFamily   = repositorycache.FamilyOf[*domain.SpecificationAttributeOption]()
	optionDefaults = repositorycache.EntityDefaults(string(optionFamily))

	// AttributesWithOptionsKey caches the attributes that have at least one option.
	AttributesWithOptionsKey    = attributeFamily.Template("withoptions.", "withoptions.")
	AttributesWithOptionsPrefix = attributeFamily.Prefix() + "withoptions."

	// AttributesByGroupKey is keyed by group id, uuid.Nil for ungrouped attributes.
	AttributesByGroupKey    = attributeFamily.Template("bygroup.{0}", "bygroup.")
	AttributesByGroupPrefix = attributeFamily.Prefix() + "bygroup."

	// OptionsByAttributeKey is keyed by specification attribute id.
	OptionsByAttributeKey = optionFamily.Template("byattribute.{0}")
)

const byDisplayOrder = "?TableAlias.display_order ASC, ?TableAlias.name ASC"

// SpecificationAttributeService reads specification attributes through the
// static cache.
type SpecificationAttributeService struct {
	manager  cache.Manager
	groups   repository.Repository[*domain.SpecificationAttributeGroup]
	attrs    repository.Repository[*domain.SpecificationAttribute]
	options  repository.Repository[*domain.SpecificationAttributeOption]
	products repository.Repository[*domain.ProductSpecificationAttribute]
	logger   zerolog.Logger
}

// Repositories groups the repositories the service writes through.
type Repositories struct {
	Groups            repository.Repository[*domain.SpecificationAttributeGroup]
	Attributes        repository.Repository[*domain.SpecificationAttribute]
	Options           repository.Repository[*domain.SpecificationAttributeOption]
	ProductAttributes repository.Repository[*domain.ProductSpecificationAttribute]
}

func NewSpecificationAttributeService(manager cache.Manager, repos Repositories, logger zerolog.Logger) *SpecificationAttributeService {
	return &SpecificationAttributeService{
		manager:  manager,
		groups:   repos.Groups,
		attrs:    repos.Attributes,
		options:  repos.Options,
		products: repos.ProductAttributes,
		logger:   logger.With().Str("component", "SpecificationAttributeService").Logger(),
	}
}

// byID reads one record through the family by-id entry. It returns nil for
// uuid.Nil and unknown ids.
func byID[T any](ctx context.Context, m cache.Manager, tpl cache.KeyTemplate, repo repository.Repository[T], id uuid.UUID) (T, error) {
	var zero T
	if id == uuid.Nil {
		return zero, nil
	}

	key, err := m.PrepareKeyForDefaultCache(tpl, id)
	if err != nil {
		return zero, err
	}
	return cache.Get(ctx, m, key, func(ctx context.Context) (T, error) {
		return storage.First(ctx, repo, storage.WhereID(id))
	})
}

// byIDs reads a set of records through the family by-ids entry.
func byIDs[T any](ctx context.Context, m cache.Manager, tpl cache.KeyTemplate, repo repository.Repository[T], ids []uuid.UUID) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	key, err := m.PrepareKeyForDefaultCache(tpl, ids)
	if err != nil {
		return nil, err
	}
	return cache.Get(ctx, m, key, func(ctx context.Context) ([]T, error) {
		records, err := storage.ListAll(ctx, repo, storage.WhereIDs(ids), storage.OrderBy(byDisplayOrder))
		return records, err
	})
}

func badInput(msg string) error {
	return errors.New(msg, errors.CategoryBadInput)
}

// Specification attribute groups

func (s *SpecificationAttributeService) GetSpecificationAttributeGroupByID(ctx context.Context, id uuid.UUID) (*domain.SpecificationAttributeGroup, error) {
	return byID(ctx, s.manager, groupDefaults.ByID, s.groups, id)
}

// GetSpecificationAttributeGroups returns one page of groups. pageSize <= 0
// returns every group.
func (s *SpecificationAttributeService) GetSpecificationAttributeGroups(ctx context.Context, pageIndex, pageSize int) (storage.Page[*domain.SpecificationAttributeGroup], error) {
	return storage.Paged(ctx, s.groups, pageIndex, pageSize, storage.OrderBy(byDisplayOrder))
}

// GetProductSpecificationAttributeGroups returns the groups of the attributes
// used by productID.
func (s *SpecificationAttributeService) GetProductSpecificationAttributeGroups(ctx context.Context, productID uuid.UUID) ([]*domain.SpecificationAttributeGroup, error) {
	groups, err := storage.ListAll(ctx, s.groups, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(`?TableAlias.id IN (
			SELECT sa.specification_attribute_group_id
			FROM product_specification_attributes AS psa
			JOIN specification_attribute_options AS sao ON sao.id = psa.specification_attribute_option_id
			JOIN specification_attributes AS sa ON sa.id = sao.specification_attribute_id
			WHERE psa.product_id = ?)`, productID).
			OrderExpr(byDisplayOrder)
	})
	return groups, err
}

func (s *SpecificationAttributeService) InsertSpecificationAttributeGroup(ctx context.Context, g *domain.SpecificationAttributeGroup) (*domain.SpecificationAttributeGroup, error) {
	if g == nil {
		return nil, badInput("specification attribute group is nil")
	}
	storage.EnsureID(g)
	return s.groups.Create(ctx, g)
}

func (s *SpecificationAttributeService) UpdateSpecificationAttributeGroup(ctx context.Context, g *domain.SpecificationAttributeGroup) (*domain.SpecificationAttributeGroup, error) {
	if g == nil {
		return nil, badInput("specification attribute group is nil")
	}
	return s.groups.Update(ctx, g)
}

func (s *SpecificationAttributeService) DeleteSpecificationAttributeGroup(ctx context.Context, g *domain.SpecificationAttributeGroup) error {
	if g == nil {
		return badInput("specification attribute group is nil")
	}
	return s.groups.Delete(ctx, g)
}

// Specification attributes

func (s *SpecificationAttributeService) GetSpecificationAttributeByID(ctx context.Context, id uuid.UUID) (*domain.SpecificationAttribute, error) {
	return byID(ctx, s.manager, attributeDefaults.ByID, s.attrs, id)
}

func (s *SpecificationAttributeService) GetSpecificationAttributesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.SpecificationAttribute, error) {
	return byIDs(ctx, s.manager, attributeDefaults.ByIDs, s.attrs, ids)
}

func (s *SpecificationAttributeService) GetSpecificationAttributes(ctx context.Context, pageIndex, pageSize int) (storage.Page[*domain.SpecificationAttribute], error) {
	return storage.Paged(ctx, s.attrs, pageIndex, pageSize, storage.OrderBy(byDisplayOrder))
}

// GetSpecificationAttributesWithOptions returns the attributes that have at
// least one option.
func (s *SpecificationAttributeService) GetSpecificationAttributesWithOptions(ctx context.Context) ([]*domain.SpecificationAttribute, error) {
	key, err := s.manager.PrepareKeyForDefaultCache(AttributesWithOptionsKey)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) ([]*domain.SpecificationAttribute, error) {
		attrs, err := storage.ListAll(ctx, s.attrs, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("EXISTS (SELECT 1 FROM specification_attribute_options AS sao WHERE sao.specification_attribute_id = ?TableAlias.id)").
				OrderExpr(byDisplayOrder)
		})
		return attrs, err
	})
}

// GetSpecificationAttributesByGroupID returns the attributes of groupID, or
// the ungrouped attributes when groupID is nil.
func (s *SpecificationAttributeService) GetSpecificationAttributesByGroupID(ctx context.Context, groupID *uuid.UUID) ([]*domain.SpecificationAttribute, error) {
	part := uuid.Nil
	if groupID != nil {
		part = *groupID
	}

	key, err := s.manager.PrepareKeyForDefaultCache(AttributesByGroupKey, part)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) ([]*domain.SpecificationAttribute, error) {
		attrs, err := storage.ListAll(ctx, s.attrs, func(q *bun.SelectQuery) *bun.SelectQuery {
			if groupID == nil {
				q = q.Where("?TableAlias.specification_attribute_group_id IS NULL")
			} else {
				q = q.Where("?TableAlias.specification_attribute_group_id = ?", *groupID)
			}
			return q.OrderExpr(byDisplayOrder)
		})
		return attrs, err
	})
}

func (s *SpecificationAttributeService) InsertSpecificationAttribute(ctx context.Context, a *domain.SpecificationAttribute) (*domain.SpecificationAttribute, error) {
	if a == nil {
		return nil, badInput("specification attribute is nil")
	}
	storage.EnsureID(a)
	return s.attrs.Create(ctx, a)
}

func (s *SpecificationAttributeService) UpdateSpecificationAttribute(ctx context.Context, a *domain.SpecificationAttribute) (*domain.SpecificationAttribute, error) {
	if a == nil {
		return nil, badInput("specification attribute is nil")
	}
	return s.attrs.Update(ctx, a)
}

func (s *SpecificationAttributeService) DeleteSpecificationAttribute(ctx context.Context, a *domain.SpecificationAttribute) error {
	if a == nil {
		return badInput("specification attribute is nil")
	}
	return s.attrs.Delete(ctx, a)
}

// DeleteSpecificationAttributes deletes each attribute in turn and stops at
// the first failure.
func (s *SpecificationAttributeService) DeleteSpecificationAttributes(ctx context.Context, attrs []*domain.SpecificationAttribute) error {
	for _, a := range attrs {
		if err := s.DeleteSpecificationAttribute(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Specification attribute options

func (s *SpecificationAttributeService) GetSpecificationAttributeOptionByID(ctx context.Context, id uuid.UUID) (*domain.SpecificationAttributeOption, error) {
	return byID(ctx, s.manager, optionDefaults.ByID, s.options, id)
}

func (s *SpecificationAttributeService) GetSpecificationAttributeOptionsByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.SpecificationAttributeOption, error) {
	return byIDs(ctx, s.manager, optionDefaults.ByIDs, s.options, ids)
}

func (s *SpecificationAttributeService) GetSpecificationAttributeOptionsBySpecificationAttribute(ctx context.Context, attributeID uuid.UUID) ([]*domain.SpecificationAttributeOption, error) {
	key, err := s.manager.PrepareKeyForDefaultCache(OptionsByAttributeKey, attributeID)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) ([]*domain.SpecificationAttributeOption, error) {
		options, err := storage.ListAll(ctx, s.options, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.specification_attribute_id = ?", attributeID).
				OrderExpr(byDisplayOrder)
		})
		return options, err
	})
}

func (s *SpecificationAttributeService) InsertSpecificationAttributeOption(ctx context.Context, o *domain.SpecificationAttributeOption) (*domain.SpecificationAttributeOption, error) {
	if o == nil {
		return nil, badInput("specification attribute option is nil")
	}
	storage.EnsureID(o)
	return s.options.Create(ctx, o)
}

func (s *SpecificationAttributeService) UpdateSpecificationAttributeOption(ctx context.Context, o *domain.SpecificationAttributeOption) (*domain.SpecificationAttributeOption, error) {
	if o == nil {
		return nil, badInput("specification attribute option is nil")
	}
	return s.options.Update(ctx, o)
}

func (s *SpecificationAttributeService) DeleteSpecificationAttributeOption(ctx context.Context, o *domain.SpecificationAttributeOption) error {
	if o == nil {
		return badInput("specification attribute option is nil")
	}
	return s.options.Delete(ctx, o)
}

// GetNotExistingSpecificationAttributeOptions returns the ids in ids that have
// no option, in their original order.
func (s *SpecificationAttributeService) GetNotExistingSpecificationAttributeOptions(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}

	existing, err := storage.ListAll(ctx, s.options, storage.WhereIDs(ids))
	if err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]struct{}, len(existing))
	for _, o := range existing {
		found[o.ID] = struct{}{}
	}

	missing := make([]uuid.UUID, 0)
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Product specification attributes

func (s *SpecificationAttributeService) GetProductSpecificationAttributes(ctx context.Context, productID uuid.UUID) ([]*domain.ProductSpecificationAttribute, error) {
	attrs, err := storage.ListAll(ctx, s.products, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.product_id = ?", productID).
			OrderExpr("?TableAlias.display_order ASC")
	})
	return attrs, err
}

func (s *SpecificationAttributeService) InsertProductSpecificationAttribute(ctx context.Context, p *domain.ProductSpecificationAttribute) (*domain.ProductSpecificationAttribute, error) {
	if p == nil {
		return nil, badInput("product specification attribute is nil")
	}
	storage.EnsureID(p)
	return s.products.Create(ctx, p)
}

func (s *SpecificationAttributeService) DeleteProductSpecificationAttribute(ctx context.Context, p *domain.ProductSpecificationAttribute) error {
	if p == nil {
		return badInput("product specification attribute is nil")
	}
	return s.products.Delete(ctx, p)
}
