package tumbleweed

import (
	"bufio"
	"bytes"
	"context"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"

	"github.com/thomas11/tumbleweed/search"
)

// Every page template is parsed together with this layout, which is what
// gets executed.
const layoutTemplate = "global.html"

func formatDate(d time.Time) string {
	return d.Format("January 2, 2006")
}

func formatDateShort(d time.Time) string {
	return d.Format("Jan 2, 2006")
}

// monthSlug formats a month the way archive URLs spell it, e.g. "jan".
func monthSlug(d time.Time) string {
	return strings.ToLower(d.Format("Jan"))
}

func daySlug(d time.Time) string {
	return d.Format("02")
}

type siteParam struct {
	Title     string
	BaseUrl   string
	Author    string
	AuthorUri string
}

type templateEngine struct {
	toHtml        renderer
	templateDir   string
	funcs         template.FuncMap
	templateCache map[string]*template.Template
	mu            sync.Mutex
}

func newTemplateEngine(r renderer, dir string, funcs template.FuncMap) *templateEngine {
	te := &templateEngine{
		toHtml:        r,
		templateDir:   dir,
		templateCache: make(map[string]*template.Template),
	}
	te.funcs = sprig.HtmlFuncMap()
	te.funcs["markdown"] = te.markdown
	te.funcs["formatDate"] = formatDate
	te.funcs["formatDateShort"] = formatDateShort
	te.funcs["monthSlug"] = monthSlug
	te.funcs["daySlug"] = daySlug
	te.funcs["byCategory"] = groupByCategory
	for name, f := range funcs {
		te.funcs[name] = f
	}
	return te
}

func (te *templateEngine) markdown(body string) template.HTML {
	return template.HTML(te.toHtml.render(highlightCode([]byte(body))))
}

func (te *templateEngine) getTemplate(filename string) (*template.Template, error) {
	te.mu.Lock()
	defer te.mu.Unlock()

	t, ok := te.templateCache[filename]
	if !ok {
		var err error
		t, err = template.New(layoutTemplate).Funcs(te.funcs).ParseFiles(
			filepath.Join(te.templateDir, layoutTemplate),
			filepath.Join(te.templateDir, filepath.FromSlash(filename)))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %q", filename)
		}
		te.templateCache[filename] = t
	}
	return t, nil
}

// execute renders a template with per-render functions layered over the
// engine's. Cached templates are cloned, never executed directly.
func (te *templateEngine) execute(w io.Writer, filename string, data interface{}, perRender template.FuncMap) error {
	t, err := te.getTemplate(filename)
	if err != nil {
		return err
	}
	c, err := t.Clone()
	if err != nil {
		return err
	}
	if len(perRender) > 0 {
		c.Funcs(perRender)
	}
	if err := c.Execute(w, data); err != nil {
		return errors.Wrapf(err, "executing template %q", filename)
	}
	return nil
}

// render executes resp's template into w, adding the "site" value and
// request-bound functions.
func (s *Site) render(ctx context.Context, w io.Writer, resp *Response) error {
	data := make(map[string]interface{}, len(resp.Context)+1)
	data["site"] = siteParam{
		Title:     s.conf.SiteTitle,
		BaseUrl:   s.conf.BaseUrl,
		Author:    s.conf.Author,
		AuthorUri: s.conf.AuthorUri,
	}
	for k, v := range resp.Context {
		data[k] = v
	}
	return s.engine.execute(w, resp.TemplateName, data, template.FuncMap{
		"latestTumbles": s.latestTumblesFunc(ctx),
	})
}

// engineFuncs are bound to the site at parse time. latestTumbles is
// replaced on every render with a version carrying the request context.
func (s *Site) engineFuncs() template.FuncMap {
	return template.FuncMap{
		"url":           s.Reverse,
		"latestTumbles": s.latestTumblesFunc(context.Background()),
		"itemURL":       s.itemURL,
	}
}

func (s *Site) itemURL(it *search.Item) string {
	if len(it.URL) > 0 {
		return it.URL
	}
	d := it.PubDate.In(s.conf.Location())
	path, err := s.Reverse("tumbleweed_archive_day", d.Year(), monthSlug(d), daySlug(d))
	if err != nil {
		return ""
	}
	return path + "#" + it.ID
}

// For now, just strip the highlighting directives.
func highlightCode(text []byte) []byte {
	newText := bytes.NewBuffer(make([]byte, 0, len(text)))
	r := bufio.NewReader(bytes.NewReader(text))

	for {
		line, err := r.ReadBytes('\n')
		if !bytes.HasPrefix(bytes.TrimSpace(line), []byte("!highlight")) {
			newText.Write(line)
		}
		if err != nil {
			break
		}
	}

	return newText.Bytes()
}
