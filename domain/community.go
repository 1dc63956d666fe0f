package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ForumGroup struct {
	bun.BaseModel `bun:"table:forum_groups,alias:fg"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	DisplayOrder int       `bun:"display_order" json:"display_order"`
	CreatedOnUTC time.Time `bun:"created_on_utc" json:"created_on_utc"`
}

func (g *ForumGroup) GetID() uuid.UUID   { return g.ID }
func (g *ForumGroup) SetID(id uuid.UUID) { g.ID = id }
func (g *ForumGroup) CacheKeyID() string { return cacheKeyID(g.ID) }

type Forum struct {
	bun.BaseModel `bun:"table:forums,alias:f"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ForumGroupID uuid.UUID `bun:"forum_group_id,type:uuid,notnull" json:"forum_group_id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Description  string    `bun:"description" json:"description"`
	NumTopics    int       `bun:"num_topics" json:"num_topics"`
	NumPosts     int       `bun:"num_posts" json:"num_posts"`
	DisplayOrder int       `bun:"display_order" json:"display_order"`
	CreatedOnUTC time.Time `bun:"created_on_utc" json:"created_on_utc"`
	UpdatedOnUTC time.Time `bun:"updated_on_utc" json:"updated_on_utc"`
}

func (f *Forum) GetID() uuid.UUID   { return f.ID }
func (f *Forum) SetID(id uuid.UUID) { f.ID = id }
func (f *Forum) CacheKeyID() string { return cacheKeyID(f.ID) }

type NewsItem struct {
	bun.BaseModel `bun:"table:news_items,alias:ni"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	LanguageID    uuid.UUID `bun:"language_id,type:uuid" json:"language_id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Short         string    `bun:"short" json:"short"`
	Full          string    `bun:"full_text" json:"full"`
	Published     bool      `bun:"published" json:"published"`
	AllowComments bool      `bun:"allow_comments" json:"allow_comments"`
	CreatedOnUTC  time.Time `bun:"created_on_utc" json:"created_on_utc"`
}

func (n *NewsItem) GetID() uuid.UUID   { return n.ID }
func (n *NewsItem) SetID(id uuid.UUID) { n.ID = id }
func (n *NewsItem) CacheKeyID() string { return cacheKeyID(n.ID) }

type NewsComment struct {
	bun.BaseModel `bun:"table:news_comments,alias:nc"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	NewsItemID   uuid.UUID `bun:"news_item_id,type:uuid,notnull" json:"news_item_id"`
	StoreID      uuid.UUID `bun:"store_id,type:uuid,notnull" json:"store_id"`
	CustomerID   uuid.UUID `bun:"customer_id,type:uuid" json:"customer_id"`
	CommentTitle string    `bun:"comment_title" json:"comment_title"`
	CommentText  string    `bun:"comment_text" json:"comment_text"`
	IsApproved   bool      `bun:"is_approved" json:"is_approved"`
	CreatedOnUTC time.Time `bun:"created_on_utc" json:"created_on_utc"`
}

func (c *NewsComment) GetID() uuid.UUID   { return c.ID }
func (c *NewsComment) SetID(id uuid.UUID) { c.ID = id }
func (c *NewsComment) CacheKeyID() string { return cacheKeyID(c.ID) }
