package tumbleweed

import (
	"strings"
	"time"

	"github.com/thomas11/tumbleweed/search"
)

const (
	flagDraft  = "draft"
	flagStatic = "static"
)

// post is a tumble entry as written on disk, before indexing.
type post struct {
	ID         string
	Kind       string
	Title      string
	Blurb      string
	URL        string
	Date       time.Time
	Body       []byte
	Categories []string
	Flags      []string
}

func (p *post) hasFlag(flag string) bool {
	for _, f := range p.Flags {
		if strings.TrimSpace(f) == flag {
			return true
		}
	}
	return false
}

func (p *post) IsDraft() bool { return p.hasFlag(flagDraft) }

// Static posts have no date and stay out of the tumble.
func (p *post) IsStatic() bool { return p.hasFlag(flagStatic) }

func (p *post) toItem() *search.Item {
	kind := p.Kind
	if len(kind) == 0 {
		kind = "post"
	}
	flags := make([]string, 0, len(p.Flags))
	for _, f := range p.Flags {
		if f = strings.TrimSpace(f); len(f) > 0 {
			flags = append(flags, f)
		}
	}
	return &search.Item{
		ID:         p.ID,
		Kind:       kind,
		Title:      p.Title,
		Blurb:      p.Blurb,
		Body:       string(p.Body),
		URL:        p.URL,
		Categories: p.Categories,
		Flags:      flags,
		PubDate:    p.Date,
	}
}
