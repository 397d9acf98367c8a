package tumbleweed

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	atom "github.com/thomas11/atomgenerator"

	"github.com/thomas11/tumbleweed/search"
)

// RenderFeed renders an Atom feed of the latest feed_size items, restricted
// by Defaults the same way the tumble is.
func (s *Site) RenderFeed(ctx context.Context) ([]byte, error) {
	items, err := s.Defaults.querySetOr(s).
		OrderBy("-"+s.Defaults.dateFieldOr(s)).
		Slice(0, s.conf.FeedSize).
		Results(ctx)
	if err != nil {
		return nil, err
	}

	feedUrl, err := s.Reverse("tumbleweed_tumble")
	if err != nil {
		return nil, err
	}

	feed := atom.Feed{
		Title:   s.conf.SiteTitle,
		Link:    s.absURL(feedUrl),
		PubDate: time.Now(),
	}
	feed.AddAuthor(atom.Author{
		Name: s.conf.Author,
		Uri:  s.conf.AuthorUri,
	})

	for _, it := range items {
		feed.AddEntry(s.entryForItem(it))
	}

	if errs := feed.Validate(); len(errs) > 0 {
		log.Warn("Atom feed is not valid!")
		for _, e := range errs {
			log.Warn(e.Error())
		}
		return nil, errors.Wrap(errs[0], "validating feed")
	}

	return feed.GenXml()
}

func (s *Site) entryForItem(it *search.Item) *atom.Entry {
	e := &atom.Entry{
		Title:       it.Title,
		Description: it.Blurb,
		Link:        s.absURL(s.itemURL(it)),
		PubDate:     it.PubDate,
	}
	if len(e.Title) == 0 {
		e.Title = it.ID
	}

	for _, cat := range it.Categories {
		e.AddCategory(atom.Category{Term: cat})
	}

	if len(it.Body) > 0 {
		e.Content = string(s.engine.markdown(it.Body))
	}

	return e
}

// absURL joins a site path onto base_url.
func (s *Site) absURL(path string) string {
	if strings.Contains(path, "://") || len(s.conf.BaseUrl) == 0 {
		return path
	}
	return strings.TrimSuffix(s.conf.BaseUrl, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (s *Site) handleFeed(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		xml, err := s.RenderFeed(c.Request.Context())
		if err != nil {
			s.respondError(c, name, err)
			return
		}
		s.metrics.views.WithLabelValues(name, strconv.Itoa(http.StatusOK)).Inc()
		c.Data(http.StatusOK, "application/atom+xml; charset=utf-8", xml)
	}
}
