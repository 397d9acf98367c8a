package tumbleweed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thomas11/tumbleweed/search"
)

func TestWatchAndReindex(t *testing.T) {
	defer func(d time.Duration) { WatchPollInterval = d }(WatchPollInterval)
	WatchPollInterval = 10 * time.Millisecond

	conf := testConf()
	conf.WritingDir = writingDir(t)
	s := NewSite(conf, search.NewMemoryBackend())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.WatchAndReindex(ctx, false) }()

	count := func() int {
		n, err := s.QuerySet().Count(context.Background())
		if err != nil {
			return -1
		}
		return n
	}

	// Keep touching the directory until the watcher is running and picks up
	// the new post.
	assert.Eventually(t, func() bool {
		writeFile(t, filepath.Join(conf.WritingDir, "2010-02-02-new.text"), "title: New\n\nbody\n")
		return count() == 3
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchRejectsShortInterval(t *testing.T) {
	defer func(d time.Duration) { WatchPollInterval = d }(WatchPollInterval)
	WatchPollInterval = 0

	conf := testConf()
	conf.WritingDir = t.TempDir()
	s := NewSite(conf, search.NewMemoryBackend())

	assert.Error(t, s.WatchAndReindex(context.Background(), false))
}
