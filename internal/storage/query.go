package storage

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// First returns the first record matching criteria, or the zero value when
// there is none.
func First[T any](ctx context.Context, repo repository.Repository[T], criteria ...repository.SelectCriteria) (T, error) {
	var zero T

	criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(1)
	})

	records, _, err := repo.List(ctx, criteria...)
	if err != nil {
		return zero, err
	}
	if len(records) == 0 {
		return zero, nil
	}
	return records[0], nil
}

// Unbounded clears the limit and offset the repository puts on every
// listing, so the query returns every matching record.
func Unbounded() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(0).Offset(0)
	}
}

// ListAll lists every record matching criteria.
func ListAll[T any](ctx context.Context, repo repository.Repository[T], criteria ...repository.SelectCriteria) ([]T, error) {
	criteria = append(criteria, Unbounded())
	records, _, err := repo.List(ctx, criteria...)
	return records, err
}

// WhereID selects the record with id.
func WhereID(id uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	}
}

// WhereIDs selects the records whose id is in ids.
func WhereIDs(ids []uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id IN (?)", bun.In(ids))
	}
}

// OrderBy orders by the given expression, for example "?TableAlias.display_order ASC".
func OrderBy(expr string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr(expr)
	}
}

// Page is one page of a listing plus the total number of records.
type Page[T any] struct {
	Items      []T `json:"items"`
	PageIndex  int `json:"page_index"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// TotalPages returns the number of pages of size PageSize.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

func (p Page[T]) HasPreviousPage() bool { return p.PageIndex > 0 }
func (p Page[T]) HasNextPage() bool     { return p.PageIndex+1 < p.TotalPages() }

// Paged lists one page of records. A pageSize <= 0 returns every record on page 0.
func Paged[T any](ctx context.Context, repo repository.Repository[T], pageIndex, pageSize int, criteria ...repository.SelectCriteria) (Page[T], error) {
	if pageIndex < 0 {
		pageIndex = 0
	}

	if pageSize > 0 {
		offset := pageIndex * pageSize
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(pageSize).Offset(offset)
		})
	} else {
		pageIndex = 0
		criteria = append(criteria, Unbounded())
	}

	items, total, err := repo.List(ctx, criteria...)
	if err != nil {
		return Page[T]{}, err
	}

	if pageSize <= 0 {
		pageSize = total
	}

	return Page[T]{
		Items:      items,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalCount: total,
	}, nil
}
