package tumbleweed

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/thomas11/tumbleweed/paginator"
	"github.com/thomas11/tumbleweed/search"
)

var ErrNotFound = errors.New("not found")

// ServerError is rendered as a 500 with Msg as the body.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string { return e.Msg }

// ContextFunc contributes request-derived values to a template context.
type ContextFunc func(req *http.Request) map[string]interface{}

// RequestContext exposes the request and its path to templates.
func RequestContext(req *http.Request) map[string]interface{} {
	return map[string]interface{}{
		"request": req,
		"path":    req.URL.Path,
	}
}

// ViewOptions tune a view. The zero value gives the defaults.
type ViewOptions struct {
	// DateField orders and filters the tumble. Default: the site's date_field.
	DateField    string
	TemplateName string
	// QuerySet restricts which items are tumbled, e.g. only published ones.
	// Archive views narrow it further by date.
	QuerySet *search.QuerySet
	// Page is used when the request has no "page" query parameter.
	Page         int
	PaginateBy   int
	ContextFuncs []ContextFunc
	ExtraContext map[string]interface{}

	// MonthFormat and DayFormat are Go time layouts for the month and day
	// parts of archive URLs.
	MonthFormat string
	DayFormat   string
}

// Response is a template and the context to render it with.
type Response struct {
	TemplateName string
	Context      map[string]interface{}
}

// Default template names.
const (
	TumbleTemplate       = "tumble.html"
	ArchiveYearTemplate  = "tumble_archive_year.html"
	ArchiveMonthTemplate = "tumble_archive_month.html"
	ArchiveDayTemplate   = "tumble_archive_day.html"
)

func (s *Site) viewDefaults(opts ViewOptions, templateName string) ViewOptions {
	if len(opts.DateField) == 0 {
		opts.DateField = s.conf.DateField
	}
	if len(opts.TemplateName) == 0 {
		opts.TemplateName = templateName
	}
	if opts.QuerySet == nil {
		opts.QuerySet = s.QuerySet()
	}
	if opts.Page == 0 {
		opts.Page = 1
	}
	if opts.PaginateBy == 0 {
		opts.PaginateBy = s.conf.ResultsPerPage
	}
	if opts.ContextFuncs == nil {
		opts.ContextFuncs = []ContextFunc{RequestContext}
	}
	if len(opts.MonthFormat) == 0 {
		opts.MonthFormat = "Jan"
	}
	if len(opts.DayFormat) == 0 {
		opts.DayFormat = "02"
	}
	return opts
}

// Tumble lists items newest first, one page at a time.
//
// The template context holds "page" and "paginator" plus ExtraContext.
func (s *Site) Tumble(req *http.Request, opts ViewOptions) (*Response, error) {
	opts = s.viewDefaults(opts, TumbleTemplate)
	ctx := req.Context()

	things := opts.QuerySet.OrderBy("-" + opts.DateField)

	p, err := paginator.New[*search.Item](ctx, things, opts.PaginateBy)
	if err != nil {
		return nil, err
	}

	var number int
	if q := req.URL.Query().Get("page"); len(q) > 0 {
		number, err = p.Validate(q)
	} else {
		number, err = p.ValidateNumber(opts.Page)
	}
	if err != nil {
		return nil, errors.Wrap(ErrNotFound, err.Error())
	}

	page, err := p.Page(ctx, number)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{}
	for _, f := range opts.ContextFuncs {
		for k, v := range f(req) {
			data[k] = v
		}
	}
	data["page"] = page
	data["paginator"] = p
	for k, v := range opts.ExtraContext {
		data[k] = v
	}

	return &Response{TemplateName: opts.TemplateName, Context: data}, nil
}

// ArchiveYear tumbles the items of one year. The context gets "year" as an
// int.
func (s *Site) ArchiveYear(req *http.Request, year string, opts ViewOptions) (*Response, error) {
	opts = s.viewDefaults(opts, ArchiveYearTemplate)

	y, err := strconv.Atoi(year)
	if err != nil {
		return nil, &ServerError{Msg: "An integer is required for year."}
	}

	first := time.Date(y, time.January, 1, 0, 0, 0, 0, s.conf.Location())
	opts.QuerySet = dateRange(opts.QuerySet, opts.DateField, first, first.AddDate(1, 0, 0))
	opts.ExtraContext = withDateContext(opts.ExtraContext, "year", y)
	return s.Tumble(req, opts)
}

// ArchiveMonth tumbles the items of one month. The context gets "month", the
// first day of the month.
func (s *Site) ArchiveMonth(req *http.Request, year, month string, opts ViewOptions) (*Response, error) {
	opts = s.viewDefaults(opts, ArchiveMonthTemplate)

	date, err := time.ParseInLocation("2006-"+opts.MonthFormat, year+"-"+month, s.conf.Location())
	if err != nil {
		return nil, errors.Wrap(ErrNotFound, err.Error())
	}

	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, s.conf.Location())
	opts.QuerySet = dateRange(opts.QuerySet, opts.DateField, first, first.AddDate(0, 1, 0))
	opts.ExtraContext = withDateContext(opts.ExtraContext, "month", first)
	return s.Tumble(req, opts)
}

// ArchiveDay tumbles the items of one day. The context gets "day".
func (s *Site) ArchiveDay(req *http.Request, year, month, day string, opts ViewOptions) (*Response, error) {
	opts = s.viewDefaults(opts, ArchiveDayTemplate)

	layout := "2006-" + opts.MonthFormat + "-" + opts.DayFormat
	date, err := time.ParseInLocation(layout, year+"-"+month+"-"+day, s.conf.Location())
	if err != nil {
		return nil, errors.Wrap(ErrNotFound, err.Error())
	}

	first := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.conf.Location())
	opts.QuerySet = dateRange(opts.QuerySet, opts.DateField, first, first.AddDate(0, 0, 1))
	opts.ExtraContext = withDateContext(opts.ExtraContext, "day", first)
	return s.Tumble(req, opts)
}

// dateRange restricts qs to [from, to).
func dateRange(qs *search.QuerySet, field string, from, to time.Time) *search.QuerySet {
	return qs.Filter(search.GTE(field, from), search.LT(field, to))
}

// withDateContext copies extra and sets key, overriding any caller value.
func withDateContext(extra map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(extra)+1)
	for k, v := range extra {
		out[k] = v
	}
	out[key] = value
	return out
}

// LatestTumbles returns the n most recent items, restricted by the
// configured tag_filter and ordered by tag_date_field.
func (s *Site) LatestTumbles(ctx context.Context, n int) ([]*search.Item, error) {
	if n < 0 {
		return nil, errors.Errorf("latest tumbles count must not be negative, got %d", n)
	}
	qs := s.QuerySet()
	if len(s.conf.TagFilter) > 0 {
		var err error
		if qs, err = qs.FilterMap(s.conf.TagFilter); err != nil {
			return nil, errors.Wrap(err, "applying tag_filter")
		}
	}
	return qs.OrderBy("-"+s.conf.TagDateField).Slice(0, n).Results(ctx)
}
