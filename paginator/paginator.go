// Package paginator splits a countable, sliceable source into numbered
// pages. Page numbers are 1-based.
package paginator

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidPage is the cause of every page validation error.
	ErrInvalidPage      = errors.New("invalid page")
	ErrPageNotAnInteger = &pageError{msg: "That page number is not an integer"}
	ErrEmptyPage        = &pageError{msg: "That page contains no results"}
)

type pageError struct{ msg string }

func (e *pageError) Error() string { return e.msg }
func (e *pageError) Unwrap() error { return ErrInvalidPage }

// IsInvalidPage reports whether err came from page number validation.
func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

// Source is anything that can be counted and windowed.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	Window(ctx context.Context, offset, limit int) ([]T, error)
}

// SliceSource adapts a plain slice.
type SliceSource[T any] []T

func (s SliceSource[T]) Count(context.Context) (int, error) { return len(s), nil }

func (s SliceSource[T]) Window(_ context.Context, offset, limit int) ([]T, error) {
	if offset > len(s) {
		offset = len(s)
	}
	end := len(s)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return s[offset:end], nil
}

type Option func(*config)

type config struct {
	orphans             int
	allowEmptyFirstPage bool
}

// Orphans lets the last page absorb up to n items that would otherwise make
// up a short page of their own.
func Orphans(n int) Option {
	return func(c *config) { c.orphans = n }
}

// AllowEmptyFirstPage controls whether page 1 of an empty source is valid.
func AllowEmptyFirstPage(allow bool) Option {
	return func(c *config) { c.allowEmptyFirstPage = allow }
}

type Paginator[T any] struct {
	src     Source[T]
	perPage int
	count   int
	config
}

// New counts src once; the count is reused for every page.
func New[T any](ctx context.Context, src Source[T], perPage int, opts ...Option) (*Paginator[T], error) {
	if perPage < 1 {
		return nil, errors.Errorf("per page must be positive, got %d", perPage)
	}
	p := &Paginator[T]{
		src:     src,
		perPage: perPage,
		config:  config{allowEmptyFirstPage: true},
	}
	for _, opt := range opts {
		opt(&p.config)
	}
	count, err := src.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "counting paginator source")
	}
	p.count = count
	return p, nil
}

// Count is the total number of items across all pages.
func (p *Paginator[T]) Count() int { return p.count }

func (p *Paginator[T]) PerPage() int { return p.perPage }

func (p *Paginator[T]) NumPages() int {
	if p.count == 0 && !p.allowEmptyFirstPage {
		return 0
	}
	hits := p.count - p.orphans
	if hits < 1 {
		hits = 1
	}
	return (hits + p.perPage - 1) / p.perPage
}

// PageRange returns 1..NumPages, for templates.
func (p *Paginator[T]) PageRange() []int {
	n := p.NumPages()
	r := make([]int, n)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// Validate parses and validates a page number given as text.
func (p *Paginator[T]) Validate(number string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return 0, errors.WithStack(ErrPageNotAnInteger)
	}
	return p.ValidateNumber(n)
}

func (p *Paginator[T]) ValidateNumber(n int) (int, error) {
	if n < 1 {
		return 0, errors.Wrap(ErrEmptyPage, "That page number is less than 1")
	}
	if n > p.NumPages() {
		if n == 1 && p.allowEmptyFirstPage {
			return n, nil
		}
		return 0, errors.WithStack(ErrEmptyPage)
	}
	return n, nil
}

// Page validates n and fetches its items.
func (p *Paginator[T]) Page(ctx context.Context, n int) (*Page[T], error) {
	n, err := p.ValidateNumber(n)
	if err != nil {
		return nil, err
	}
	bottom := (n - 1) * p.perPage
	top := bottom + p.perPage
	if top+p.orphans >= p.count {
		top = p.count
	}
	limit := top - bottom
	if limit < 0 {
		limit = 0
	}
	items, err := p.src.Window(ctx, bottom, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching page %d", n)
	}
	return &Page[T]{Number: n, Items: items, Paginator: p}, nil
}
