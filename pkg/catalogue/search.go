package catalogue

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/chembank/chembank/pkg/db"
)

// SearchQuery selects one page of structures. A nil or empty Keyword matches
// every structure; MinCharge and MaxCharge are inclusive.
type SearchQuery struct {
	PageSize   uint32
	PageNumber uint32
	Keyword    *string
	MinCharge  int8
	MaxCharge  int8
}

func (sq SearchQuery) filter() db.SearchFilter {
	f := db.SearchFilter{MinCharge: sq.MinCharge, MaxCharge: sq.MaxCharge}
	if sq.Keyword != nil {
		f.Keyword = *sq.Keyword
	}
	return f
}

// SearchResult is one page of matches in ascending id order.
type SearchResult struct {
	Items []db.Structure
	// Total counts every match, not just this page.
	Total uint32
	// NextCursor is the last id of this page when more matches follow it.
	NextCursor *uint32
}

// Search returns page PageNumber (zero-based) of the structures matching sq.
// The page starts after the id found at position PageSize*PageNumber of the
// matches, so it is bounded by id rather than by a row offset.
func (c *Catalogue) Search(ctx context.Context, sq SearchQuery) (result *SearchResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("search", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return nil, err
	}

	f := sq.filter()
	result = &SearchResult{Items: []db.Structure{}}
	err = repo.WithTx(ctx, func(q *db.Queries) error {
		total, err := q.CountMatching(ctx, f)
		if err != nil {
			return err
		}
		result.Total = total
		if sq.PageSize == 0 {
			return nil
		}

		skip := uint64(sq.PageSize) * uint64(sq.PageNumber)
		after := int64(-1)
		if skip > 0 {
			if skip >= uint64(total) {
				return nil
			}
			anchor, ok, err := q.IDAt(ctx, f, skip-1)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			after = int64(anchor)
		}

		if result.Items, err = q.StructuresAfter(ctx, f, after, sq.PageSize); err != nil {
			return err
		}
		if n := len(result.Items); n > 0 && skip+uint64(n) < uint64(total) {
			last := result.Items[n-1].ID
			result.NextCursor = &last
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("catalogue_search",
		"page_size", sq.PageSize, "page_number", sq.PageNumber,
		"items", len(result.Items), "total", result.Total)
	return result, nil
}

// SearchAfter returns up to sq.PageSize matches with id greater than cursor.
// sq.PageNumber is ignored.
func (c *Catalogue) SearchAfter(ctx context.Context, cursor uint32, sq SearchQuery) (result *SearchResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("search_after", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return nil, err
	}

	f := sq.filter()
	result = &SearchResult{Items: []db.Structure{}}
	err = repo.WithTx(ctx, func(q *db.Queries) error {
		total, err := q.CountMatching(ctx, f)
		if err != nil {
			return err
		}
		result.Total = total
		if sq.PageSize == 0 {
			return nil
		}

		// One extra row tells whether another page follows.
		limit := sq.PageSize
		if limit < math.MaxUint32 {
			limit++
		}
		items, err := q.StructuresAfter(ctx, f, int64(cursor), limit)
		if err != nil {
			return err
		}
		if uint32(len(items)) > sq.PageSize {
			items = items[:sq.PageSize]
			last := items[len(items)-1].ID
			result.NextCursor = &last
		}
		result.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
