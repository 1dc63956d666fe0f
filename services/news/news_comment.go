// Package news serves news comments and their counters.
package news

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
	commentFamily = repositorycache.FamilyOf[*domain.NewsComment]()

	// CommentsCountKey is keyed by news item, store and approvedOnly and
	// tagged with the news item.
	CommentsCountKey = commentFamily.Template("count.{0}-{1}-{2}", "count.{0}")

	// CommentsCountPrefix drops every counter of one news item.
	CommentsCountPrefix = commentFamily.Prefix() + "count.{0}"
)

type NewsService struct {
	manager  cache.Manager
	items    repository.Repository[*domain.NewsItem]
	comments repository.Repository[*domain.NewsComment]
	logger   zerolog.Logger
	now      func() time.Time
}

func NewNewsService(manager cache.Manager, items repository.Repository[*domain.NewsItem], comments repository.Repository[*domain.NewsComment], logger zerolog.Logger) *NewsService {
	return &NewsService{
		manager:  manager,
		items:    items,
		comments: comments,
		logger:   logger.With().Str("component", "NewsService").Logger(),
		now:      time.Now,
	}
}

// GetNewsCommentsCount counts the comments of newsItemID in storeID. A nil
// storeID counts comments of every store.
func (s *NewsService) GetNewsCommentsCount(ctx context.Context, newsItemID, storeID uuid.UUID, approvedOnly bool) (int, error) {
	key, err := s.manager.PrepareKeyForDefaultCache(CommentsCountKey, newsItemID, storeID, approvedOnly)
	if err != nil {
		return 0, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) (int, error) {
		return s.comments.Count(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.news_item_id = ?", newsItemID)
			if storeID != uuid.Nil {
				q = q.Where("?TableAlias.store_id = ?", storeID)
			}
			if approvedOnly {
				q = q.Where("?TableAlias.is_approved = ?", true)
			}
			return q
		})
	})
}

// GetNewsComments lists the comments of a news item, oldest first.
func (s *NewsService) GetNewsComments(ctx context.Context, newsItemID uuid.UUID) ([]*domain.NewsComment, error) {
	comments, err := storage.ListAll(ctx, s.comments, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.news_item_id = ?", newsItemID).
			OrderExpr("?TableAlias.created_on_utc ASC")
	})
	return comments, err
}

func (s *NewsService) GetNewsCommentByID(ctx context.Context, id uuid.UUID) (*domain.NewsComment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return storage.First(ctx, s.comments, storage.WhereID(id))
}

func (s *NewsService) InsertNews(ctx context.Context, item *domain.NewsItem) (*domain.NewsItem, error) {
	if item == nil {
		return nil, errors.New("news item is nil", errors.CategoryBadInput)
	}
	storage.EnsureID(item)
	if item.CreatedOnUTC.IsZero() {
		item.CreatedOnUTC = s.now().UTC()
	}
	return s.items.Create(ctx, item)
}

func (s *NewsService) InsertNewsComment(ctx context.Context, c *domain.NewsComment) (*domain.NewsComment, error) {
	if c == nil {
		return nil, errNilComment()
	}
	if c.NewsItemID == uuid.Nil {
		return nil, errors.New("news comment needs a news item", errors.CategoryBadInput)
	}
	storage.EnsureID(c)
	if c.CreatedOnUTC.IsZero() {
		c.CreatedOnUTC = s.now().UTC()
	}
	return s.comments.Create(ctx, c)
}

func (s *NewsService) UpdateNewsComment(ctx context.Context, c *domain.NewsComment) (*domain.NewsComment, error) {
	if c == nil {
		return nil, errNilComment()
	}
	return s.comments.Update(ctx, c)
}

func (s *NewsService) DeleteNewsComment(ctx context.Context, c *domain.NewsComment) error {
	if c == nil {
		return errNilComment()
	}
	return s.comments.Delete(ctx, c)
}

func errNilComment() error {
	return errors.New("news comment is nil", errors.CategoryBadInput)
}

// RegisterCacheRules subscribes the news invalidation rules to d.
func RegisterCacheRules(d *repositorycache.Dispatcher) {
	repositorycache.Track[*domain.NewsItem](d)

	// Counters are dropped on every change, not only on delete: an insert or an
	// approval flip changes them as well.
	repositorycache.On(d, func(ctx context.Context, m cache.Manager, c *domain.NewsComment, _ repositorycache.EventKind) error {
		return m.RemoveByPrefix(ctx, CommentsCountPrefix, c.NewsItemID)
	})
}
