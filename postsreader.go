package tumbleweed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/thomas11/tumbleweed/search"
)

func findPostFiles(dir, fileExtension string) ([]string, error) {
	files := make([]string, 0, 100)

	myWalkFunc := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.WithField("path", path).Warnf("Skipping: %s", err)
			return nil
		}

		if !info.IsDir() && strings.HasSuffix(path, fileExtension) {
			files = append(files, path)
		}
		return nil
	}

	err := filepath.Walk(dir, myWalkFunc)
	return files, err
}

func extractDateFromFilename(filename, dateStampFormat string, loc *time.Location) (time.Time, error) {
	if len(filename) < len(dateStampFormat)+1 {
		return time.Time{}, errors.Errorf("skipping %v, name too short", filename)
	}

	dateStr := filename[:len(dateStampFormat)]
	date, err := time.ParseInLocation(dateStampFormat, dateStr, loc)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date stamp in %v, want %v", filename, dateStampFormat)
	}
	return date, nil
}

func readPostFromFile(path, dateStampFormat string, loc *time.Location) (*post, error) {
	fileBaseName := filepath.Base(path)
	fileBaseName = fileBaseName[:len(fileBaseName)-len(filepath.Ext(fileBaseName))]

	fileContent, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fileContent = bytes.ReplaceAll(fileContent, []byte("\r\n"), []byte("\n"))

	firstEmptyLine := bytes.Index(fileContent, []byte("\n\n"))
	if firstEmptyLine == -1 {
		return nil, errors.Errorf("weird post %v: no empty line", path)
	}

	p := &post{
		ID:         fileBaseName,
		Body:       fileContent[firstEmptyLine+2:],
		Categories: make([]string, 0, 5),
	}

	headerLines := bytes.Split(fileContent[:firstEmptyLine], []byte("\n"))
	for _, l := range headerLines {
		colon := bytes.Index(l, []byte(":"))
		if colon == -1 {
			return nil, errors.Errorf("invalid header line in post %v: %s", path, l)
		}
		key, val := string(bytes.TrimSpace(l[:colon])), string(bytes.TrimSpace(l[colon+1:]))
		switch key {
		case "title":
			p.Title = val
		case "blurb":
			p.Blurb = val
		case "kind":
			p.Kind = val
		case "url":
			p.URL = val
		case "categories":
			for _, c := range strings.Split(val, ",") {
				if c = strings.TrimSpace(c); len(c) > 0 {
					p.Categories = append(p.Categories, c)
				}
			}
		case "flags":
			p.Flags = strings.Split(val, ",")
		default:
			log.WithField("post", fileBaseName).Debugf("Skipping unknown header field %s", key)
		}
	}

	if !p.IsStatic() {
		if p.Date, err = extractDateFromFilename(fileBaseName, dateStampFormat, loc); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// readPosts reads every post under the writing directory, skipping drafts
// unless asked for them, and static posts.
func readPosts(conf *SiteConf, drafts bool) ([]*post, error) {
	files, err := findPostFiles(conf.WritingDir, conf.WritingFileExtension)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %v", conf.WritingDir)
	}

	posts := make([]*post, 0, len(files))
	for _, f := range files {
		p, err := readPostFromFile(f, conf.WritingFileDateStampFormat, conf.Location())
		if err != nil {
			return nil, err
		}
		if p.IsStatic() || (p.IsDraft() && !drafts) {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// Reindex replaces the index contents with the posts in the writing
// directory and returns how many were indexed.
func (s *Site) Reindex(ctx context.Context, drafts bool) (int, error) {
	if len(s.conf.WritingDir) == 0 {
		return 0, errors.New("no writing_dir configured")
	}
	posts, err := readPosts(s.conf, drafts)
	if err != nil {
		return 0, err
	}

	items := make([]*search.Item, len(posts))
	for i, p := range posts {
		items[i] = p.toItem()
	}
	if err := s.backend.Replace(ctx, items...); err != nil {
		return 0, errors.Wrap(err, "indexing")
	}

	s.metrics.indexedItems.Set(float64(len(posts)))
	log.WithField("items", len(posts)).WithField("dir", s.conf.WritingDir).Info("Reindexed")
	return len(posts), nil
}
