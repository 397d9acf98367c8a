package tumbleweed

import (
	"bytes"
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/thomas11/tumbleweed/search"
)

type category string

func (c category) String() string { return string(c) }

func (c category) Id() string { return strings.ReplaceAll(c.String(), " ", "_") }

type categoryWithItems struct {
	Category category
	Items    []*search.Item
}

func (c categoryWithItems) latestDate() time.Time {
	var t time.Time
	for _, it := range c.Items {
		if it.PubDate.After(t) {
			t = it.PubDate
		}
	}
	return t
}

func (c categoryWithItems) LatestDateFormatted() string {
	return formatDateShort(c.latestDate())
}

// Items grouped by category, most items first, then newest item first.
// Create using groupByCategory which sorts like this.
type itemsByCategory []categoryWithItems

func (ic *itemsByCategory) addItem(c category, it *search.Item) {
	for i, cat := range *ic {
		if cat.Category == c {
			cat.Items = append(cat.Items, it)
			(*ic)[i] = cat
			return
		}
	}
	*ic = append(*ic, categoryWithItems{c, []*search.Item{it}})
}

func (ic itemsByCategory) String() string {
	b := new(bytes.Buffer)
	for _, c := range ic {
		b.WriteString(c.Category.String())
		b.WriteString(": ")
		for i, it := range c.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(it.Title)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Called from templates as "byCategory".
func groupByCategory(items []*search.Item) itemsByCategory {
	byCat := make(itemsByCategory, 0, 20)

	for _, it := range items {
		for _, cat := range it.Categories {
			byCat.addItem(category(cat), it)
		}
	}

	slices.SortFunc(byCat, func(a, b categoryWithItems) int {
		if c := cmp.Compare(len(b.Items), len(a.Items)); c != 0 {
			return c
		}
		if c := b.latestDate().Compare(a.latestDate()); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	return byCat
}
