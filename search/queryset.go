package search

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// QuerySet is an immutable, chainable description of a search. Every method
// returning a *QuerySet returns a modified copy.
type QuerySet struct {
	backend  Backend
	filters  []Lookup
	excludes []Lookup
	orderBy  []string
	start    int
	stop     int
}

// New returns a QuerySet matching every item in the backend.
func New(b Backend) *QuerySet {
	return &QuerySet{backend: b, stop: -1}
}

func (qs *QuerySet) clone() *QuerySet {
	c := *qs
	c.filters = append([]Lookup(nil), qs.filters...)
	c.excludes = append([]Lookup(nil), qs.excludes...)
	c.orderBy = append([]string(nil), qs.orderBy...)
	return &c
}

func (qs *QuerySet) All() *QuerySet {
	return qs.clone()
}

func (qs *QuerySet) Filter(lookups ...Lookup) *QuerySet {
	c := qs.clone()
	c.filters = append(c.filters, lookups...)
	return c
}

// FilterMap applies lookups given as "field__op" keys, the form used in
// configuration files. Keys are applied in sorted order.
func (qs *QuerySet) FilterMap(m map[string]string) (*QuerySet, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lookups := make([]Lookup, 0, len(keys))
	for _, k := range keys {
		l, err := ParseLookup(k, m[k])
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, l)
	}
	return qs.Filter(lookups...), nil
}

func (qs *QuerySet) Exclude(lookups ...Lookup) *QuerySet {
	c := qs.clone()
	c.excludes = append(c.excludes, lookups...)
	return c
}

// OrderBy replaces the ordering. Prefix a field with "-" for descending.
func (qs *QuerySet) OrderBy(fields ...string) *QuerySet {
	c := qs.clone()
	c.orderBy = append([]string(nil), fields...)
	return c
}

// Slice restricts the set to [start, stop) of the current window, the way
// qs[start:stop] would. A negative stop leaves the end open.
func (qs *QuerySet) Slice(start, stop int) *QuerySet {
	c := qs.clone()
	if start < 0 {
		start = 0
	}
	c.start = qs.start + start
	if stop >= 0 {
		newStop := qs.start + stop
		if qs.stop >= 0 && newStop > qs.stop {
			newStop = qs.stop
		}
		c.stop = newStop
	}
	if c.stop >= 0 && c.stop < c.start {
		c.stop = c.start
	}
	return c
}

// Query returns the backend query for the whole current window.
func (qs *QuerySet) Query() Query {
	return qs.window(0, -1)
}

func (qs *QuerySet) window(offset, limit int) Query {
	q := Query{
		Filters:  qs.filters,
		Excludes: qs.excludes,
		OrderBy:  qs.orderBy,
		Offset:   qs.start + offset,
		Limit:    limit,
	}
	if qs.stop >= 0 {
		remaining := qs.stop - q.Offset
		if remaining < 0 {
			remaining = 0
		}
		if q.Limit < 0 || q.Limit > remaining {
			q.Limit = remaining
		}
	}
	return q
}

// Count returns the number of items in the current window.
func (qs *QuerySet) Count(ctx context.Context) (int, error) {
	q := qs.window(0, 0)
	res, err := qs.backend.Search(ctx, q)
	if err != nil {
		return 0, errors.Wrap(err, "counting")
	}
	n := res.Hits - qs.start
	if n < 0 {
		n = 0
	}
	if qs.stop >= 0 && n > qs.stop-qs.start {
		n = qs.stop - qs.start
	}
	return n, nil
}

func (qs *QuerySet) Results(ctx context.Context) ([]*Item, error) {
	return qs.Window(ctx, 0, -1)
}

// Window fetches limit items starting offset items into the set.
func (qs *QuerySet) Window(ctx context.Context, offset, limit int) ([]*Item, error) {
	res, err := qs.backend.Search(ctx, qs.window(offset, limit))
	if err != nil {
		return nil, errors.Wrap(err, "searching")
	}
	return res.Items, nil
}
