package search

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Op string

const (
	OpExact      Op = "exact"
	OpContains   Op = "contains"
	OpStartsWith Op = "startswith"
	OpGT         Op = "gt"
	OpGTE        Op = "gte"
	OpLT         Op = "lt"
	OpLTE        Op = "lte"
)

var ErrUnknownOp = errors.New("unknown lookup operator")

// lookupSeparator splits a field name from its operator, as in
// "pub_date__gte".
const lookupSeparator = "__"

// Layouts tried, in order, when a string is compared against a date field.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Lookup is a single field condition.
type Lookup struct {
	Field string
	Op    Op
	Value interface{}
}

func Exact(field string, v interface{}) Lookup { return Lookup{field, OpExact, v} }
func GTE(field string, v interface{}) Lookup   { return Lookup{field, OpGTE, v} }
func GT(field string, v interface{}) Lookup    { return Lookup{field, OpGT, v} }
func LT(field string, v interface{}) Lookup    { return Lookup{field, OpLT, v} }
func LTE(field string, v interface{}) Lookup   { return Lookup{field, OpLTE, v} }

// ParseLookup turns a key such as "pub_date__lt" and a value into a Lookup.
// A key without an operator suffix is an exact match.
func ParseLookup(key string, value interface{}) (Lookup, error) {
	field, op := key, OpExact
	if i := strings.LastIndex(key, lookupSeparator); i != -1 {
		field, op = key[:i], Op(key[i+len(lookupSeparator):])
	}
	if field == "" {
		return Lookup{}, errors.Errorf("lookup %q has no field name", key)
	}
	switch op {
	case OpExact, OpContains, OpStartsWith, OpGT, OpGTE, OpLT, OpLTE:
	default:
		return Lookup{}, errors.Wrapf(ErrUnknownOp, "lookup %q", key)
	}
	return Lookup{Field: field, Op: op, Value: value}, nil
}

func (l Lookup) String() string {
	return l.Field + lookupSeparator + string(l.Op)
}

// Match reports whether the item satisfies the lookup. Items without the
// field never match.
func (l Lookup) Match(it *Item) bool {
	v, ok := it.Field(l.Field)
	if !ok {
		return false
	}
	switch fv := v.(type) {
	case time.Time:
		t, ok := asTime(l.Value)
		if !ok {
			return false
		}
		return compareOp(l.Op, fv.Compare(t))
	case []string:
		want, ok := l.Value.(string)
		if !ok {
			return false
		}
		for _, s := range fv {
			if matchString(l.Op, s, want) {
				return true
			}
		}
		return false
	case string:
		want, ok := l.Value.(string)
		if !ok {
			return false
		}
		return matchString(l.Op, fv, want)
	}
	return false
}

func matchString(op Op, have, want string) bool {
	switch op {
	case OpContains:
		return strings.Contains(strings.ToLower(have), strings.ToLower(want))
	case OpStartsWith:
		return strings.HasPrefix(have, want)
	}
	return compareOp(op, strings.Compare(have, want))
}

func compareOp(op Op, c int) bool {
	switch op {
	case OpExact:
		return c == 0
	case OpGT:
		return c > 0
	case OpGTE:
		return c >= 0
	case OpLT:
		return c < 0
	case OpLTE:
		return c <= 0
	}
	return false
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
