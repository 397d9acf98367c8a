package tumbleweed

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/thomas11/tumbleweed/search"
)

// DefaultResultsPerPage is used when the configuration does not set
// results_per_page.
const DefaultResultsPerPage = 20

type SiteConf struct {
	Author    string `toml:"author"`
	AuthorUri string `toml:"author_uri"`
	BaseUrl   string `toml:"base_url" validate:"omitempty,url"`
	SiteTitle string `toml:"site_title"`

	// Addr is the listen address for "tumbleweed serve".
	Addr string `toml:"addr"`
	// Prefix is the path the tumble is mounted under, "" for the root.
	Prefix   string `toml:"prefix" validate:"omitempty,startswith=/"`
	TimeZone string `toml:"time_zone"`

	TemplateDir string `toml:"template_dir" validate:"required"`

	WritingDir                 string `toml:"writing_dir"`
	WritingFileExtension       string `toml:"writing_file_extension"`
	WritingFileDateStampFormat string `toml:"writing_file_date_stamp_format"`
	StaticFilesDir             string `toml:"static_files_dir"`

	OutDir string `toml:"out_dir"`
	// DBFile is the bolt index. Without it the index lives in memory and is
	// rebuilt from WritingDir on start.
	DBFile string `toml:"db_file"`

	ResultsPerPage int               `toml:"results_per_page" validate:"min=1"`
	DateField      string            `toml:"date_field" validate:"required"`
	TagDateField   string            `toml:"tag_date_field" validate:"required"`
	TagFilter      map[string]string `toml:"tag_filter"`
	FeedSize       int               `toml:"feed_size" validate:"min=1"`

	location *time.Location
}

var validate = validator.New()

// DefaultConf returns a configuration with every default applied, relative
// to the current directory.
func DefaultConf() *SiteConf {
	conf := &SiteConf{}
	if err := conf.applyDefaults(""); err != nil {
		// Only an unknown time zone can fail, and the default is UTC.
		panic(err)
	}
	return conf
}

// ReadConf parses a TOML site configuration. Relative paths in it are taken
// relative to the directory of fileName.
func ReadConf(fileName string) (*SiteConf, error) {
	conf := &SiteConf{}
	if _, err := toml.DecodeFile(fileName, conf); err != nil {
		return nil, errors.Wrapf(err, "parsing site configuration %q", fileName)
	}

	if err := conf.applyDefaults(filepath.Dir(fileName)); err != nil {
		return nil, err
	}
	if err := validate.Struct(conf); err != nil {
		return nil, errors.Wrapf(err, "validating site configuration %q", fileName)
	}
	return conf, nil
}

func (conf *SiteConf) applyDefaults(baseDir string) error {
	if len(conf.Addr) == 0 {
		conf.Addr = ":9999"
	}
	if len(conf.TemplateDir) == 0 {
		conf.TemplateDir = "tmpl"
	}
	if len(conf.WritingFileExtension) == 0 {
		conf.WritingFileExtension = ".text"
	}
	if len(conf.WritingFileDateStampFormat) == 0 {
		conf.WritingFileDateStampFormat = "2006-01-02"
	}
	if len(conf.StaticFilesDir) == 0 && len(conf.WritingDir) > 0 {
		conf.StaticFilesDir = filepath.Join(conf.WritingDir, "static")
	}
	if len(conf.OutDir) == 0 {
		conf.OutDir = "out"
	}
	if conf.ResultsPerPage == 0 {
		conf.ResultsPerPage = DefaultResultsPerPage
	}
	if len(conf.DateField) == 0 {
		conf.DateField = search.DefaultDateField
	}
	if len(conf.TagDateField) == 0 {
		conf.TagDateField = search.DefaultDateField
	}
	if conf.FeedSize == 0 {
		conf.FeedSize = DefaultResultsPerPage
	}
	if len(conf.TimeZone) == 0 {
		conf.TimeZone = "UTC"
	}

	loc, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		return errors.Wrapf(err, "loading time zone %q", conf.TimeZone)
	}
	conf.location = loc

	// Normalize relative paths because the executable can be called from anywhere
	if len(baseDir) > 0 {
		conf.TemplateDir = normalizePath(conf.TemplateDir, baseDir)
		conf.WritingDir = normalizePath(conf.WritingDir, baseDir)
		conf.StaticFilesDir = normalizePath(conf.StaticFilesDir, baseDir)
		conf.OutDir = normalizePath(conf.OutDir, baseDir)
		conf.DBFile = normalizePath(conf.DBFile, baseDir)
	}
	return nil
}

// Location is the time zone archive boundaries are computed in.
func (conf *SiteConf) Location() *time.Location {
	if conf.location == nil {
		return time.UTC
	}
	return conf.location
}

func normalizePath(path, baseDir string) string {
	if len(path) == 0 || filepath.IsAbs(path) {
		return path
	}
	absPath := filepath.Join(baseDir, path)
	log.WithField("path", path).WithField("normalized", absPath).Debug("Normalizing path")
	return absPath
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
