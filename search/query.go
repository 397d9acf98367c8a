package search

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Query is what a QuerySet hands to a Backend.
type Query struct {
	Filters  []Lookup
	Excludes []Lookup
	OrderBy  []string
	Offset   int
	// Limit < 0 means no limit.
	Limit int
}

type Result struct {
	Items []*Item
	// Hits is the number of matching items before Offset and Limit.
	Hits int
}

type Backend interface {
	Search(ctx context.Context, q Query) (*Result, error)
	Update(ctx context.Context, items ...*Item) error
	Remove(ctx context.Context, ids ...string) error
	Clear(ctx context.Context) error
	// Replace atomically swaps the whole index for items.
	Replace(ctx context.Context, items ...*Item) error
	Close() error
}

// Evaluate runs q over items. The input slice is not modified.
func Evaluate(items []*Item, q Query) *Result {
	matched := make([]*Item, 0, len(items))
	for _, it := range items {
		if matches(it, q) {
			matched = append(matched, it)
		}
	}

	sortItems(matched, q.OrderBy)

	res := &Result{Hits: len(matched)}
	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	if start < 0 {
		start = 0
	}
	end := len(matched)
	if q.Limit >= 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	res.Items = matched[start:end]
	return res
}

func matches(it *Item, q Query) bool {
	for _, l := range q.Filters {
		if !l.Match(it) {
			return false
		}
	}
	for _, l := range q.Excludes {
		if l.Match(it) {
			return false
		}
	}
	return true
}

// Ties and missing fields are ordered by ID so paging is stable.
func sortItems(items []*Item, orderBy []string) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, key := range orderBy {
			desc := strings.HasPrefix(key, "-")
			field := strings.TrimPrefix(key, "-")
			vi, oki := items[i].Field(field)
			vj, okj := items[j].Field(field)
			switch {
			case !oki && !okj:
				continue
			case !oki:
				return false
			case !okj:
				return true
			}
			c := compareValues(vi, vj)
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return items[i].ID < items[j].ID
	})
}

func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case []string:
		if bv, ok := b.([]string); ok {
			return strings.Compare(strings.Join(av, ","), strings.Join(bv, ","))
		}
	}
	return 0
}
