// Package forums serves forum listings.
package forums

import (
	"context"
	"time"

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
	forumFamily   = repositorycache.FamilyOf[*domain.Forum]()
	forumDefaults = repositorycache.EntityDefaults(string(forumFamily))

	// ForumsByGroupKey is keyed by forum group id and tagged with it, so a
	// forum leaving a group can drop the old listing by prefix.
	ForumsByGroupKey = forumFamily.Template("bygroup.{0}", "bygroup.{0}")
)

type ForumService struct {
	manager cache.Manager
	groups  repository.Repository[*domain.ForumGroup]
	forums  repository.Repository[*domain.Forum]
	logger  zerolog.Logger
	now     func() time.Time
}

func NewForumService(manager cache.Manager, groups repository.Repository[*domain.ForumGroup], forums repository.Repository[*domain.Forum], logger zerolog.Logger) *ForumService {
	return &ForumService{
		manager: manager,
		groups:  groups,
		forums:  forums,
		logger:  logger.With().Str("component", "ForumService").Logger(),
		now:     time.Now,
	}
}

// GetAllForumsByGroupID returns the forums of a group ordered by display order.
func (s *ForumService) GetAllForumsByGroupID(ctx context.Context, groupID uuid.UUID) ([]*domain.Forum, error) {
	key, err := s.manager.PrepareKeyForDefaultCache(ForumsByGroupKey, groupID)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) ([]*domain.Forum, error) {
		forums, err := storage.ListAll(ctx, s.forums, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.forum_group_id = ?", groupID).
				OrderExpr("?TableAlias.display_order ASC, ?TableAlias.name ASC")
		})
		return forums, err
	})
}

func (s *ForumService) GetForumByID(ctx context.Context, id uuid.UUID) (*domain.Forum, error) {
	if id == uuid.Nil {
		return nil, nil
	}

	key, err := s.manager.PrepareKeyForDefaultCache(forumDefaults.ByID, id)
	if err != nil {
		return nil, err
	}
	return cache.Get(ctx, s.manager, key, func(ctx context.Context) (*domain.Forum, error) {
		return storage.First(ctx, s.forums, storage.WhereID(id))
	})
}

func (s *ForumService) GetAllForumGroups(ctx context.Context) ([]*domain.ForumGroup, error) {
	groups, err := storage.ListAll(ctx, s.groups, storage.OrderBy("?TableAlias.display_order ASC, ?TableAlias.name ASC"))
	return groups, err
}

func (s *ForumService) InsertForumGroup(ctx context.Context, g *domain.ForumGroup) (*domain.ForumGroup, error) {
	if g == nil {
		return nil, errors.New("forum group is nil", errors.CategoryBadInput)
	}
	storage.EnsureID(g)
	if g.CreatedOnUTC.IsZero() {
		g.CreatedOnUTC = s.now().UTC()
	}
	return s.groups.Create(ctx, g)
}

func (s *ForumService) InsertForum(ctx context.Context, f *domain.Forum) (*domain.Forum, error) {
	if f == nil {
		return nil, errNilForum()
	}
	if f.ForumGroupID == uuid.Nil {
		return nil, errors.New("forum needs a forum group", errors.CategoryBadInput)
	}
	storage.EnsureID(f)

	now := s.now().UTC()
	if f.CreatedOnUTC.IsZero() {
		f.CreatedOnUTC = now
	}
	f.UpdatedOnUTC = now

	return s.forums.Create(ctx, f)
}

func (s *ForumService) UpdateForum(ctx context.Context, f *domain.Forum) (*domain.Forum, error) {
	if f == nil {
		return nil, errNilForum()
	}

	stored, err := storage.First(ctx, s.forums, storage.WhereID(f.ID))
	if err != nil {
		return nil, err
	}
	if stored != nil && stored.ForumGroupID != f.ForumGroupID {
		ctx = repositorycache.WithInvalidationTags(ctx, groupPrefix(stored.ForumGroupID))
	}

	f.UpdatedOnUTC = s.now().UTC()
	return s.forums.Update(ctx, f)
}

func (s *ForumService) DeleteForum(ctx context.Context, f *domain.Forum) error {
	if f == nil {
		return errNilForum()
	}
	return s.forums.Delete(ctx, f)
}

func groupPrefix(groupID uuid.UUID) string {
	return forumFamily.Prefix() + "bygroup." + groupID.String()
}

func errNilForum() error {
	return errors.New("forum is nil", errors.CategoryBadInput)
}

// RegisterCacheRules subscribes the forum invalidation rules to d.
func RegisterCacheRules(d *repositorycache.Dispatcher) {
	repositorycache.Track[*domain.ForumGroup](d)

	repositorycache.On(d, func(ctx context.Context, m cache.Manager, f *domain.Forum, _ repositorycache.EventKind) error {
		return m.Remove(ctx, ForumsByGroupKey, f.ForumGroupID)
	})
}
