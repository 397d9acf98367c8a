package tumbleweed

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/otiai10/copy"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/thomas11/tumbleweed/paginator"
	"github.com/thomas11/tumbleweed/search"
)

// Export renders every tumble and archive page, the feed and the static
// files into out_dir, laid out so a plain file server serves the same URLs.
func (s *Site) Export(ctx context.Context) error {
	log.Println("Writing site to " + s.conf.OutDir)
	if err := os.MkdirAll(s.conf.OutDir, os.FileMode(0775)); err != nil {
		return err
	}

	if err := s.exportPaginated(ctx, "tumbleweed_tumble", "tumbleweed_tumble_paginated", nil, tumbleView); err != nil {
		return err
	}

	years, months, days, err := s.archiveDates(ctx)
	if err != nil {
		return err
	}
	for _, y := range years {
		args := []interface{}{y.Year()}
		if err := s.exportPaginated(ctx, "tumbleweed_archive_year", "tumbleweed_archive_year_paginated", args, archiveYearView); err != nil {
			return err
		}
	}
	for _, m := range months {
		args := []interface{}{m.Year(), monthSlug(m)}
		if err := s.exportPaginated(ctx, "tumbleweed_archive_month", "tumbleweed_archive_month_paginated", args, archiveMonthView); err != nil {
			return err
		}
	}
	for _, d := range days {
		args := []interface{}{d.Year(), monthSlug(d), daySlug(d)}
		if err := s.exportPaginated(ctx, "tumbleweed_archive_day", "tumbleweed_archive_day_paginated", args, archiveDayView); err != nil {
			return err
		}
	}

	if err := s.exportFeed(ctx); err != nil {
		return err
	}
	return s.CopyStaticFiles()
}

// exportPaginated writes page 1 of a view at its plain URL and the rest at
// its paginated URL.
func (s *Site) exportPaginated(ctx context.Context, name, pagedName string, args []interface{}, view viewFunc) error {
	params, err := routeParams(name, args)
	if err != nil {
		return err
	}

	for page := 1; ; page++ {
		var path string
		if page == 1 {
			path, err = s.Reverse(name, args...)
		} else {
			path, err = s.Reverse(pagedName, append(append([]interface{}{}, args...), page)...)
		}
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		opts := s.Defaults
		opts.Page = page
		resp, err := view(s, req, params, opts)
		if err != nil {
			return errors.Wrapf(err, "exporting %v", path)
		}

		var b bytes.Buffer
		if err := s.render(ctx, &b, resp); err != nil {
			return errors.Wrapf(err, "exporting %v", path)
		}
		if err := s.writeOut(path, "index.html", b.Bytes()); err != nil {
			return err
		}

		p, ok := resp.Context["paginator"].(*paginator.Paginator[*search.Item])
		if !ok || page >= p.NumPages() {
			return nil
		}
	}
}

func (s *Site) exportFeed(ctx context.Context) error {
	xml, err := s.RenderFeed(ctx)
	if err != nil {
		return err
	}
	path, err := s.Reverse("tumbleweed_feed")
	if err != nil {
		return err
	}
	return s.writeOut(path, "index.xml", xml)
}

func (s *Site) writeOut(urlPath, fileName string, content []byte) error {
	dir := filepath.Join(s.conf.OutDir, filepath.FromSlash(urlPath))
	if err := os.MkdirAll(dir, os.FileMode(0775)); err != nil {
		return err
	}
	outName := filepath.Join(dir, fileName)
	log.WithField("file", outName).Debug("Writing")
	return os.WriteFile(outName, content, os.FileMode(0664))
}

// archiveDates returns the distinct years, months and days that have items,
// oldest first, in the site's time zone.
func (s *Site) archiveDates(ctx context.Context) (years, months, days []time.Time, err error) {
	field := s.Defaults.dateFieldOr(s)
	items, err := s.Defaults.querySetOr(s).OrderBy(field).Results(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	seenYears := make(map[time.Time]bool)
	seenMonths := make(map[time.Time]bool)
	seenDays := make(map[time.Time]bool)
	add := func(seen map[time.Time]bool, list *[]time.Time, t time.Time) {
		if !seen[t] {
			seen[t] = true
			*list = append(*list, t)
		}
	}
	loc := s.conf.Location()
	for _, it := range items {
		d, ok := it.Date(field)
		if !ok {
			continue
		}
		d = d.In(loc)
		add(seenYears, &years, time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, loc))
		add(seenMonths, &months, time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc))
		add(seenDays, &days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc))
	}
	return years, months, days, nil
}

func (opts ViewOptions) querySetOr(s *Site) *search.QuerySet {
	if opts.QuerySet != nil {
		return opts.QuerySet
	}
	return s.QuerySet()
}

func (opts ViewOptions) dateFieldOr(s *Site) string {
	if len(opts.DateField) > 0 {
		return opts.DateField
	}
	return s.conf.DateField
}

func (s *Site) CopyStaticFiles() error {
	srcDir := s.conf.StaticFilesDir
	if len(srcDir) == 0 || !dirExists(srcDir) {
		return nil
	}
	dest := filepath.Join(s.conf.OutDir, filepath.Base(srcDir))
	log.Println("Recursively copying ", srcDir, " to ", dest)
	return copy.Copy(srcDir, dest)
}
