package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestBoltBackend(t *testing.T) {
	var (
		fileName = filepath.Join(t.TempDir(), "TestBoltBackend.bolt")
		be       = NewBoltBackend(NewBoltConfig(fileName))
		ctx      = context.Background()
	)

	require.NoError(t, be.Open())
	defer func() {
		assert.NoError(t, be.Close())
	}()

	require.NoError(t, be.Update(ctx, fixtureItems()...))

	res, err := be.Search(ctx, Query{OrderBy: []string{"-pub_date"}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Hits)
	assert.Equal(t, []string{"c", "b"}, ids(res.Items))
	assert.Equal(t, "Charlie", res.Items[0].Title)
	assert.True(t, res.Items[0].PubDate.Equal(day(2010, time.July, 4)))

	require.NoError(t, be.Remove(ctx, "c"))
	n, err := New(be).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, be.Clear(ctx))
	n, err = New(be).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBoltBackendReopen(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "reopen.bolt")
	ctx := context.Background()

	be := NewBoltBackend(NewBoltConfig(fileName))
	require.NoError(t, be.Open())
	require.NoError(t, be.Update(ctx, &Item{ID: "kept", Categories: []string{"x"}}))
	require.NoError(t, be.Close())

	be = NewBoltBackend(NewBoltConfig(fileName))
	require.NoError(t, be.Open())
	defer be.Close()

	items, err := New(be).Filter(Exact("categories", "x")).Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, ids(items))
}

func TestBoltBackendNotOpen(t *testing.T) {
	be := NewBoltBackend(NewBoltConfig(filepath.Join(t.TempDir(), "closed.bolt")))
	ctx := context.Background()

	check := func() {
		_, err := be.Search(ctx, Query{Limit: -1})
		assert.True(t, errors.Is(err, ErrNotOpen), "Search: %v", err)
		assert.True(t, errors.Is(be.Update(ctx, &Item{ID: "x"}), ErrNotOpen))
		assert.True(t, errors.Is(be.Remove(ctx, "x"), ErrNotOpen))
		assert.True(t, errors.Is(be.Clear(ctx), ErrNotOpen))
		assert.True(t, errors.Is(be.Replace(ctx, &Item{ID: "x"}), ErrNotOpen))
	}

	check()

	require.NoError(t, be.Open())
	require.NoError(t, be.Close())
	check()
}

func TestBoltBackendOpenReadOnlyFails(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "readonly.bolt")
	ctx := context.Background()

	// A file without the items bucket.
	db, err := bolt.Open(fileName, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	config := NewBoltConfig(fileName)
	config.BoltOptions.ReadOnly = true
	be := NewBoltBackend(config)
	assert.Error(t, be.Open())

	_, err = be.Search(ctx, Query{Limit: -1})
	assert.True(t, errors.Is(err, ErrNotOpen))
	assert.NoError(t, be.Close())
}

func TestBoltBackendReplace(t *testing.T) {
	be := NewBoltBackend(NewBoltConfig(filepath.Join(t.TempDir(), "replace.bolt")))
	ctx := context.Background()
	require.NoError(t, be.Open())
	defer be.Close()

	require.NoError(t, be.Update(ctx, fixtureItems()...))
	require.NoError(t, be.Replace(ctx, &Item{ID: "new"}, &Item{ID: "a", Title: "Again"}))

	items, err := New(be).OrderBy("id").Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "new"}, ids(items))
	assert.Equal(t, "Again", items[0].Title)
}

func TestMemoryBackendReplace(t *testing.T) {
	be := NewMemoryBackend(fixtureItems()...)
	ctx := context.Background()

	require.NoError(t, be.Replace(ctx, &Item{ID: "only"}))
	items, err := New(be).Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, ids(items))
}
