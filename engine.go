// Package tumbleweed serves a tumblelog: a paginated, newest-first listing
// of indexed items with year, month and day archives, an Atom feed of the
// latest items, and a static export of all of it.
//
// Items are indexed from dated text files (see Reindex) into a
// search.Backend. The views take ViewOptions to change the date field, the
// template, page size, or to restrict the items through a custom
// search.QuerySet.
//
// You need to provide your own templates: a global.html layout and the
// tumble.html, tumble_archive_year.html, tumble_archive_month.html and
// tumble_archive_day.html pages.
//
// Thomas Kappler <http://www.thomaskappler.net/>
//
// This code is under BSD license. See license-bsd.txt.
package tumbleweed

import (
	"github.com/thomas11/tumbleweed/search"
)

// Site ties a configuration and an index to the views, the feed and the
// export.
type Site struct {
	conf    *SiteConf
	backend search.Backend
	engine  *templateEngine
	metrics *metrics

	// Defaults are applied to every view served over HTTP.
	Defaults ViewOptions
}

func NewSite(conf *SiteConf, backend search.Backend) *Site {
	s := &Site{
		conf:    conf,
		backend: backend,
		metrics: newMetrics(),
	}
	s.engine = newTemplateEngine(newMarkdownRenderer(), conf.TemplateDir, s.engineFuncs())
	return s
}

func (s *Site) Conf() *SiteConf { return s.conf }

// QuerySet returns a query set over every indexed item.
func (s *Site) QuerySet() *search.QuerySet {
	return search.New(s.backend).All()
}
