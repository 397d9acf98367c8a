package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func fixtureItems() []*Item {
	return []*Item{
		{ID: "a", Kind: "post", Title: "Alpha", PubDate: day(2009, time.January, 5), Categories: []string{"go"}},
		{ID: "b", Kind: "link", Title: "Bravo", PubDate: day(2009, time.March, 1), Categories: []string{"web", "go"}},
		{ID: "c", Kind: "post", Title: "Charlie", PubDate: day(2010, time.July, 4)},
		{ID: "d", Kind: "quote", Title: "Delta", PubDate: day(2008, time.December, 31)},
		{ID: "e", Kind: "post", Title: "Echo"},
	}
}

func ids(items []*Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestQuerySetOrderByDescending(t *testing.T) {
	qs := New(NewMemoryBackend(fixtureItems()...)).All().OrderBy("-pub_date")

	items, err := qs.Results(context.Background())
	require.NoError(t, err)
	// "e" has no pub_date and sorts last.
	assert.Equal(t, []string{"c", "b", "a", "d", "e"}, ids(items))
}

func TestQuerySetOrderTiesBreakByID(t *testing.T) {
	same := day(2011, time.May, 1)
	be := NewMemoryBackend(
		&Item{ID: "z", PubDate: same},
		&Item{ID: "m", PubDate: same},
		&Item{ID: "b", PubDate: same},
	)

	items, err := New(be).OrderBy("-pub_date").Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "m", "z"}, ids(items))
}

func TestQuerySetFilterDateRange(t *testing.T) {
	qs := New(NewMemoryBackend(fixtureItems()...)).
		Filter(GTE("pub_date", day(2009, time.January, 1)), LT("pub_date", day(2010, time.January, 1))).
		OrderBy("pub_date")

	items, err := qs.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(items))

	n, err := qs.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQuerySetIsImmutable(t *testing.T) {
	base := New(NewMemoryBackend(fixtureItems()...))
	filtered := base.Filter(Exact("kind", "post"))

	ctx := context.Background()
	all, err := base.Count(ctx)
	require.NoError(t, err)
	posts, err := filtered.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, all)
	assert.Equal(t, 3, posts)
}

func TestQuerySetFilterMap(t *testing.T) {
	qs, err := New(NewMemoryBackend(fixtureItems()...)).FilterMap(map[string]string{
		"categories":    "go",
		"pub_date__gte": "2009-02-01",
	})
	require.NoError(t, err)

	items, err := qs.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(items))

	_, err = New(NewMemoryBackend()).FilterMap(map[string]string{"title__near": "x"})
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestQuerySetExclude(t *testing.T) {
	items, err := New(NewMemoryBackend(fixtureItems()...)).
		Exclude(Exact("kind", "post")).
		OrderBy("id").
		Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, ids(items))
}

func TestQuerySetSlice(t *testing.T) {
	be := NewMemoryBackend()
	for i := 0; i < 10; i++ {
		require.NoError(t, be.Update(context.Background(), &Item{ID: fmt.Sprintf("%02d", i)}))
	}
	ctx := context.Background()
	qs := New(be).OrderBy("id").Slice(2, 8)

	n, err := qs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	items, err := qs.Window(ctx, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"06", "07"}, ids(items))

	nested, err := qs.Slice(1, 100).Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"03", "04", "05", "06", "07"}, ids(nested))

	empty, err := New(be).Slice(20, 30).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty)
}

func TestParseLookup(t *testing.T) {
	tests := []struct {
		key   string
		field string
		op    Op
		err   bool
	}{
		{"pub_date__gte", "pub_date", OpGTE, false},
		{"kind", "kind", OpExact, false},
		{"title__contains", "title", OpContains, false},
		{"a__b__lt", "a__b", OpLT, false},
		{"__lt", "", "", true},
		{"x__bogus", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			l, err := ParseLookup(tt.key, "v")
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.field, l.Field)
			assert.Equal(t, tt.op, l.Op)
		})
	}
}

func TestLookupMatch(t *testing.T) {
	it := &Item{
		ID:         "x",
		Title:      "Hello World",
		PubDate:    day(2009, time.June, 15),
		Categories: []string{"travel"},
		Dates:      map[string]time.Time{"updated": day(2012, time.June, 1)},
		Fields:     map[string]string{"author": "thomas"},
	}

	assert.True(t, Lookup{"title", OpContains, "world"}.Match(it))
	assert.True(t, Lookup{"title", OpStartsWith, "Hello"}.Match(it))
	assert.False(t, Lookup{"title", OpStartsWith, "hello"}.Match(it))
	assert.True(t, Exact("categories", "travel").Match(it))
	assert.True(t, GT("updated", "2012-01-01").Match(it))
	assert.True(t, Exact("author", "thomas").Match(it))
	assert.False(t, Exact("missing", "x").Match(it))
	assert.False(t, GT("pub_date", "not a date").Match(it))
	assert.True(t, LTE("pub_date", day(2009, time.June, 15)).Match(it))
}
