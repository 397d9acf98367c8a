// Package search is a small query-set abstraction over an index of
// denormalized items. A QuerySet describes what to fetch; a Backend knows
// how to store items and evaluate queries against them.
package search

import (
	"bytes"
	"fmt"
	"time"
)

// DefaultDateField is the date field items are ordered and filtered by
// unless told otherwise.
const DefaultDateField = "pub_date"

// Item is one indexed record.
type Item struct {
	ID         string               `json:"id"`
	Kind       string               `json:"kind,omitempty"`
	Title      string               `json:"title,omitempty"`
	Blurb      string               `json:"blurb,omitempty"`
	Body       string               `json:"body,omitempty"`
	URL        string               `json:"url,omitempty"`
	Categories []string             `json:"categories,omitempty"`
	Flags      []string             `json:"flags,omitempty"`
	PubDate    time.Time            `json:"pub_date"`
	Dates      map[string]time.Time `json:"dates,omitempty"`
	Fields     map[string]string    `json:"fields,omitempty"`
}

// Date returns the named date field. "pub_date" is PubDate, anything else is
// looked up in Dates.
func (it *Item) Date(field string) (time.Time, bool) {
	if field == DefaultDateField {
		return it.PubDate, !it.PubDate.IsZero()
	}
	t, ok := it.Dates[field]
	return t, ok
}

// Field returns the value of the named field as a string, time.Time or
// []string.
func (it *Item) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return it.ID, true
	case "kind":
		return it.Kind, it.Kind != ""
	case "title":
		return it.Title, it.Title != ""
	case "blurb":
		return it.Blurb, it.Blurb != ""
	case "body", "text":
		return it.Body, it.Body != ""
	case "url":
		return it.URL, it.URL != ""
	case "categories":
		return it.Categories, len(it.Categories) > 0
	case "flags":
		return it.Flags, len(it.Flags) > 0
	}
	if t, ok := it.Date(name); ok {
		return t, true
	}
	if s, ok := it.Fields[name]; ok {
		return s, true
	}
	return nil, false
}

// HasFlag reports whether the item carries the given flag.
func (it *Item) HasFlag(flag string) bool {
	for _, f := range it.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Called from templates
func (it *Item) FormatDateShort() string {
	return it.PubDate.Format("Jan 2, 2006")
}

func (it *Item) String() string {
	b := new(bytes.Buffer)
	b.WriteString("id: ")
	b.WriteString(it.ID)
	b.WriteString("\nkind: ")
	b.WriteString(it.Kind)
	b.WriteString("\ntitle: ")
	b.WriteString(it.Title)
	b.WriteString("\ndate: ")
	b.WriteString(it.PubDate.String())
	b.WriteString("\ncategories: ")
	fmt.Fprintln(b, it.Categories)

	body := it.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	b.WriteString("body: ")
	b.WriteString(body)

	return b.String()
}
