package tumbleweed

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrNoReverseMatch = errors.New("no reverse match")

// Constraints on path parameters. A request violating one is not found.
var paramPatterns = map[string]*regexp.Regexp{
	"year":  regexp.MustCompile(`^\d{4}$`),
	"month": regexp.MustCompile(`^[a-z]{3}$`),
	"day":   regexp.MustCompile(`^\d{2}$`),
	"page":  regexp.MustCompile(`^\d{1,5}$`),
}

type viewFunc func(s *Site, req *http.Request, p gin.Params, opts ViewOptions) (*Response, error)

type route struct {
	name string
	path string
	view viewFunc
}

var routes = []route{
	{"tumbleweed_tumble", "/", tumbleView},
	{"tumbleweed_tumble_paginated", "/page/:page/", tumbleView},
	{"tumbleweed_feed", "/feed/", nil},
	{"tumbleweed_archive_year", "/:year/", archiveYearView},
	{"tumbleweed_archive_year_paginated", "/:year/page/:page/", archiveYearView},
	{"tumbleweed_archive_month", "/:year/:month/", archiveMonthView},
	{"tumbleweed_archive_month_paginated", "/:year/:month/page/:page/", archiveMonthView},
	{"tumbleweed_archive_day", "/:year/:month/:day/", archiveDayView},
	{"tumbleweed_archive_day_paginated", "/:year/:month/:day/page/:page/", archiveDayView},
}

func tumbleView(s *Site, req *http.Request, _ gin.Params, opts ViewOptions) (*Response, error) {
	return s.Tumble(req, opts)
}

func archiveYearView(s *Site, req *http.Request, p gin.Params, opts ViewOptions) (*Response, error) {
	return s.ArchiveYear(req, p.ByName("year"), opts)
}

func archiveMonthView(s *Site, req *http.Request, p gin.Params, opts ViewOptions) (*Response, error) {
	return s.ArchiveMonth(req, p.ByName("year"), p.ByName("month"), opts)
}

func archiveDayView(s *Site, req *http.Request, p gin.Params, opts ViewOptions) (*Response, error) {
	return s.ArchiveDay(req, p.ByName("year"), p.ByName("month"), p.ByName("day"), opts)
}

// Reverse builds the path of a named route, under the configured prefix.
// Arguments fill the path parameters in order.
func (s *Site) Reverse(name string, args ...interface{}) (string, error) {
	for _, r := range routes {
		if r.name != name {
			continue
		}
		segments := strings.Split(r.path, "/")
		used := 0
		for i, seg := range segments {
			if !strings.HasPrefix(seg, ":") {
				continue
			}
			if used >= len(args) {
				return "", errors.Wrapf(ErrNoReverseMatch, "%s: missing argument for %s", name, seg)
			}
			v := fmt.Sprint(args[used])
			used++
			if pattern, ok := paramPatterns[seg[1:]]; ok && !pattern.MatchString(v) {
				return "", errors.Wrapf(ErrNoReverseMatch, "%s: %q is not a valid %s", name, v, seg[1:])
			}
			segments[i] = v
		}
		if used != len(args) {
			return "", errors.Wrapf(ErrNoReverseMatch, "%s: too many arguments", name)
		}
		return strings.TrimSuffix(s.conf.Prefix, "/") + strings.Join(segments, "/"), nil
	}
	return "", errors.Wrapf(ErrNoReverseMatch, "unknown route %q", name)
}

// Mount registers the tumble routes on r under the configured prefix.
func (s *Site) Mount(r gin.IRouter) {
	g := r.Group(strings.TrimSuffix(s.conf.Prefix, "/"))
	for _, rt := range routes {
		if rt.view == nil {
			g.GET(rt.path, s.handleFeed(rt.name))
			continue
		}
		g.GET(rt.path, s.handle(rt.name, rt.view))
	}
}

// Handler returns a gin engine serving the tumble and /metrics.
func (s *Site) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware())
	r.GET("/metrics", s.metricsHandler())
	s.Mount(r)
	return r
}

// LoggerMiddleware logs every request once it has been handled.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithField("method", c.Request.Method).
			WithField("url", c.Request.URL.String()).
			WithField("remote-addr", c.Request.RemoteAddr).
			WithField("referer", c.Request.Referer()).
			WithField("status", c.Writer.Status()).
			Info("http handler invoked")
	}
}

func validParams(p gin.Params) bool {
	for _, param := range p {
		if pattern, ok := paramPatterns[param.Key]; ok && !pattern.MatchString(param.Value) {
			return false
		}
	}
	return true
}

func (s *Site) handle(name string, view viewFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			s.metrics.renderSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
		}()

		if !validParams(c.Params) {
			s.respondError(c, name, ErrNotFound)
			return
		}

		opts := s.Defaults
		if page := c.Param("page"); len(page) > 0 {
			n, err := strconv.Atoi(page)
			if err != nil || n < 1 {
				s.respondError(c, name, errors.Wrapf(ErrNotFound, "page %q", page))
				return
			}
			opts.Page = n
		}

		resp, err := view(s, c.Request, c.Params, opts)
		if err != nil {
			s.respondError(c, name, err)
			return
		}

		var b bytes.Buffer
		if err := s.render(c.Request.Context(), &b, resp); err != nil {
			s.respondError(c, name, err)
			return
		}
		s.metrics.views.WithLabelValues(name, "200").Inc()
		c.Data(http.StatusOK, "text/html; charset=utf-8", b.Bytes())
	}
}

func (s *Site) respondError(c *gin.Context, name string, err error) {
	var serverErr *ServerError
	code := http.StatusInternalServerError
	body := http.StatusText(code)
	switch {
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
		body = http.StatusText(code)
		log.WithField("route", name).Debugf("Not found: %s", err)
	case errors.As(err, &serverErr):
		body = serverErr.Msg
	default:
		log.WithField("route", name).Errorf("Rendering failed: %s", err)
	}
	s.metrics.views.WithLabelValues(name, strconv.Itoa(code)).Inc()
	c.String(code, body)
}

// routeParams pairs a route's path parameters with args, in order.
func routeParams(name string, args []interface{}) (gin.Params, error) {
	for _, r := range routes {
		if r.name != name {
			continue
		}
		var params gin.Params
		for _, seg := range strings.Split(r.path, "/") {
			if !strings.HasPrefix(seg, ":") {
				continue
			}
			if len(params) >= len(args) {
				return nil, errors.Wrapf(ErrNoReverseMatch, "%s: missing argument for %s", name, seg)
			}
			params = append(params, gin.Param{Key: seg[1:], Value: fmt.Sprint(args[len(params)])})
		}
		return params, nil
	}
	return nil, errors.Wrapf(ErrNoReverseMatch, "unknown route %q", name)
}
