package main

import (
	"context"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/thomas11/tumbleweed"
	"github.com/thomas11/tumbleweed/search"
)

const siteUrl = "http://example.com/"

var conf = tumbleweed.SiteConf{
	Author:                     "Joe User",
	AuthorUri:                  siteUrl,
	BaseUrl:                    siteUrl,
	SiteTitle:                  "Joe User's site.",
	Addr:                       ":8080",
	Prefix:                     "/tumble",
	WritingFileExtension:       ".text",
	WritingFileDateStampFormat: "2006-01-02",
	WritingDir:                 "../writing",
	OutDir:                     "out",
	TemplateDir:                "tmpl",
	ResultsPerPage:             10,
	DateField:                  search.DefaultDateField,
	TagDateField:               search.DefaultDateField,
	TagFilter:                  map[string]string{"kind": "link"},
	FeedSize:                   15,
}

// Mounts the tumble under /tumble of an existing gin app, leaving out
// everything flagged "private".
func main() {
	site := tumbleweed.NewSite(&conf, search.NewMemoryBackend())
	site.Defaults.QuerySet = site.QuerySet().Exclude(search.Exact("flags", "private"))
	site.Defaults.ExtraContext = map[string]interface{}{"section": "tumble"}

	if _, err := site.Reindex(context.Background(), false); err != nil {
		log.Fatal(err)
	}

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		home, err := site.Reverse("tumbleweed_tumble")
		if err != nil {
			c.AbortWithError(500, err)
			return
		}
		c.Redirect(302, home)
	})
	site.Mount(r)

	log.Fatal(r.Run(conf.Addr))
}
