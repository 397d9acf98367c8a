package tumbleweed

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/thomas11/tumbleweed/search"
)

var ErrTagSyntax = errors.New("template tag syntax error")

var latestTumblesArgs = regexp.MustCompile(`(\d*?) as (\w+)`)

// ParseLatestTumblesTag parses "get_latest_tumbles <number> as <var>" and
// returns the count and the variable name.
func ParseLatestTumblesTag(contents string) (int, string, error) {
	fields := strings.Fields(contents)
	if len(fields) == 0 {
		return 0, "", errors.Wrap(ErrTagSyntax, "empty tag")
	}
	tagName := fields[0]
	if len(fields) < 2 {
		return 0, "", errors.Wrapf(ErrTagSyntax, "%s tag requires arguments", tagName)
	}
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(contents), tagName))

	m := latestTumblesArgs.FindStringSubmatch(arg)
	if m == nil {
		return 0, "", errors.Wrapf(ErrTagSyntax, "%s tag had invalid arguments", tagName)
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", errors.Wrapf(ErrTagSyntax, "%s tag's first argument should be an integer", tagName)
	}
	return count, m[2], nil
}

// latestTumblesFunc binds LatestTumbles to ctx for use as the
// "latestTumbles" template function.
func (s *Site) latestTumblesFunc(ctx context.Context) func(n int) ([]*search.Item, error) {
	return func(n int) ([]*search.Item, error) {
		return s.LatestTumbles(ctx, n)
	}
}
