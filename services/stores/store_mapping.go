// Package stores manages the store mappings that limit entities to storefronts.
package stores

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
	mappingDefaults = repositorycache.EntityDefaults(string(repositorycache.FamilyOf[*domain.StoreMapping]()))

	// StoreMappingsKey caches the mappings of one entity, keyed by entity name and id.
	StoreMappingsKey = mappingDefaults.All("{0}-{1}")
)

// StoreMappingService reads and writes store mappings.
type StoreMappingService struct {
	manager  cache.Manager
	mappings repository.Repository[*domain.StoreMapping]
	logger   zerolog.Logger
}

func NewStoreMappingService(manager cache.Manager, mappings repository.Repository[*domain.StoreMapping], logger zerolog.Logger) *StoreMappingService {
	return &StoreMappingService{
		manager:  manager,
		mappings: mappings,
		logger:   logger.With().Str("component", "StoreMappingService").Logger(),
	}
}

// GetStoreMappings returns the mappings of the entity entityName/entityID.
func (s *StoreMappingService) GetStoreMappings(ctx context.Context, entityName string, entityID uuid.UUID) ([]*domain.StoreMapping, error) {
	key, err := s.manager.PrepareKeyForDefaultCache(StoreMappingsKey, entityName, entityID)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) ([]*domain.StoreMapping, error) {
		mappings, err := storage.ListAll(ctx, s.mappings, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.entity_name = ?", entityName).
				Where("?TableAlias.entity_id = ?", entityID)
		})
		return mappings, err
	})
}

// GetStoreIDsWithAccess returns the ids of the stores the entity is mapped to.
func (s *StoreMappingService) GetStoreIDsWithAccess(ctx context.Context, entityName string, entityID uuid.UUID) ([]uuid.UUID, error) {
	mappings, err := s.GetStoreMappings(ctx, entityName, entityID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(mappings))
	for _, m := range mappings {
		ids = append(ids, m.StoreID)
	}
	return ids, nil
}

// InsertStoreMapping maps the entity entityName/entityID to storeID.
func (s *StoreMappingService) InsertStoreMapping(ctx context.Context, entityName string, entityID, storeID uuid.UUID) (*domain.StoreMapping, error) {
	if entityName == "" || entityID == uuid.Nil || storeID == uuid.Nil {
		return nil, errors.New("store mapping needs an entity name, an entity id and a store id", errors.CategoryBadInput)
	}

	mapping := &domain.StoreMapping{
		EntityName: entityName,
		EntityID:   entityID,
		StoreID:    storeID,
	}
	storage.EnsureID(mapping)

	created, err := s.mappings.Create(ctx, mapping)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("entity_name", entityName).
		Stringer("entity_id", entityID).
		Stringer("store_id", storeID).
		Msg("Store mapping created.")

	return created, nil
}

func (s *StoreMappingService) DeleteStoreMapping(ctx context.Context, mapping *domain.StoreMapping) error {
	if mapping == nil {
		return errors.New("store mapping is nil", errors.CategoryBadInput)
	}
	return s.mappings.Delete(ctx, mapping)
}

// RegisterCacheRules subscribes store mappings to d. The default rule drops
// every cached mapping listing.
func RegisterCacheRules(d *repositorycache.Dispatcher) {
	repositorycache.Track[*domain.StoreMapping](d)
}
