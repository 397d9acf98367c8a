package tumbleweed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas11/tumbleweed/search"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writingDir(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2009-01-05-hello.text"),
		"title: Hello\nblurb: Saying hi\ncategories: go, web ,\n\nHello *world*\n")
	writeFile(t, filepath.Join(dir, "links", "2009-03-01-link.text"),
		"title: A link\r\nkind: link\r\nurl: http://example.org/\r\n\r\nWorth reading.\r\n")
	writeFile(t, filepath.Join(dir, "2009-02-01-draft.text"),
		"title: Not yet\nflags: draft\n\nUnfinished.\n")
	writeFile(t, filepath.Join(dir, "about.text"),
		"title: About\nflags: static, private\n\nAbout me.\n")
	writeFile(t, filepath.Join(dir, "notes.md"), "not a post")
	return dir
}

func TestReindex(t *testing.T) {
	conf := testConf()
	conf.WritingDir = writingDir(t)
	s := NewSite(conf, search.NewMemoryBackend(&search.Item{ID: "stale"}))
	ctx := context.Background()

	n, err := s.Reindex(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := s.QuerySet().OrderBy("-pub_date").Results(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"2009-03-01-link", "2009-01-05-hello"}, itemIDs(items))

	link, hello := items[0], items[1]
	assert.Equal(t, "link", link.Kind)
	assert.Equal(t, "http://example.org/", link.URL)
	assert.Equal(t, "Worth reading.\n", link.Body)
	assert.Equal(t, time.Date(2009, time.March, 1, 0, 0, 0, 0, time.UTC), link.PubDate)

	assert.Equal(t, "post", hello.Kind)
	assert.Equal(t, "Hello", hello.Title)
	assert.Equal(t, "Saying hi", hello.Blurb)
	assert.Equal(t, []string{"go", "web"}, hello.Categories)
	assert.Equal(t, "Hello *world*\n", hello.Body)

	n, err = s.Reindex(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	drafts, err := s.QuerySet().Filter(search.Exact("flags", "draft")).Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2009-02-01-draft"}, itemIDs(drafts))
}

func TestReindexBadPost(t *testing.T) {
	conf := testConf()
	conf.WritingDir = t.TempDir()
	writeFile(t, filepath.Join(conf.WritingDir, "2009-01-05-bad.text"), "title: Bad\nno colon here\n\nbody\n")
	s := NewSite(conf, search.NewMemoryBackend(&search.Item{ID: "kept"}))

	_, err := s.Reindex(context.Background(), false)
	assert.Error(t, err)

	// A failed read leaves the index alone.
	n, err := s.QuerySet().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReindexNeedsWritingDir(t *testing.T) {
	s := newTestSite()
	_, err := s.Reindex(context.Background(), false)
	assert.Error(t, err)
}

func TestExtractDateFromFilename(t *testing.T) {
	d, err := extractDateFromFilename("2009-03-01-link", "2006-01-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2009, time.March, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = extractDateFromFilename("2009-03", "2006-01-02", time.UTC)
	assert.Error(t, err)

	_, err = extractDateFromFilename("hello-world-post", "2006-01-02", time.UTC)
	assert.Error(t, err)
}

func TestReadPostWithoutBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2009-01-05-x.text")
	writeFile(t, path, "title: only headers\n")

	_, err := readPostFromFile(path, "2006-01-02", time.UTC)
	assert.Error(t, err)
}

// swapCheckingBackend fails the test if the index is ever emptied and
// refilled in separate steps.
type swapCheckingBackend struct {
	*search.MemoryBackend
	t        *testing.T
	replaced int
}

func (be *swapCheckingBackend) Clear(ctx context.Context) error {
	be.t.Error("Clear called during reindex")
	return be.MemoryBackend.Clear(ctx)
}

func (be *swapCheckingBackend) Update(ctx context.Context, items ...*search.Item) error {
	be.t.Error("Update called during reindex")
	return be.MemoryBackend.Update(ctx, items...)
}

func (be *swapCheckingBackend) Replace(ctx context.Context, items ...*search.Item) error {
	be.replaced++
	return be.MemoryBackend.Replace(ctx, items...)
}

type failingReplaceBackend struct {
	*search.MemoryBackend
}

func (be *failingReplaceBackend) Replace(context.Context, ...*search.Item) error {
	return errors.New("disk full")
}

func TestReindexSwapsIndexAtOnce(t *testing.T) {
	conf := testConf()
	conf.WritingDir = writingDir(t)
	be := &swapCheckingBackend{MemoryBackend: search.NewMemoryBackend(&search.Item{ID: "stale"}), t: t}
	s := NewSite(conf, be)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		n, err := s.Reindex(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
	assert.Equal(t, 2, be.replaced)

	count, err := s.QuerySet().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestReindexFailureKeepsIndex(t *testing.T) {
	conf := testConf()
	conf.WritingDir = writingDir(t)
	s := NewSite(conf, &failingReplaceBackend{search.NewMemoryBackend(fixtureItems()...)})
	ctx := context.Background()

	_, err := s.Reindex(ctx, false)
	assert.Error(t, err)

	count, err := s.QuerySet().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}
