package tumbleweed

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	log "github.com/sirupsen/logrus"
)

// WatchPollInterval is how often the writing directory is checked for
// changes.
var WatchPollInterval = 200 * time.Millisecond

// WatchAndReindex reindexes whenever something under the writing directory
// changes. It blocks until ctx is done.
func (s *Site) WatchAndReindex(ctx context.Context, drafts bool) error {
	// The closer goroutine waits for Start to run, so Start must not fail.
	if WatchPollInterval < time.Millisecond {
		return errors.Errorf("watch poll interval %v is shorter than 1ms", WatchPollInterval)
	}
	log.WithField("dir", s.conf.WritingDir).Info("Watching for changes")

	w := watcher.New()
	w.SetMaxEvents(1)

	if err := w.AddRecursive(s.conf.WritingDir); err != nil {
		return errors.Wrapf(err, "watching %v", s.conf.WritingDir)
	}

	go func() {
		for {
			select {
			case ev := <-w.Event:
				log.WithField("event", ev.String()).Debug("Writing directory changed")
				if _, err := s.Reindex(ctx, drafts); err != nil {
					log.Errorf("Reindexing after change: %s", err)
				}
			case err := <-w.Error:
				log.Error(err)
			case <-w.Closed:
				return
			}
		}
	}()

	go func() {
		w.Wait()
		<-ctx.Done()
		w.Close()
	}()

	if err := w.Start(WatchPollInterval); err != nil {
		return errors.Wrap(err, "starting watcher")
	}
	return nil
}
