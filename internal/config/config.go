// Package config loads the ljexport run configuration.
//
// All behavior is configuration-driven: which collections to fetch,
// which output formats to write, and how comment anomalies are treated.
// Credentials never live in the config file; they come from the
// environment (optionally via .env files).
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/burtness/ljexport/internal/comments"
	"github.com/burtness/ljexport/internal/output"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "config.yaml"

// Config is the full run configuration.
type Config struct {
	// ArchiveDir is the root for caches and rendered output.
	ArchiveDir string `yaml:"archive_dir"`

	// GetPosts and GetComments enable fetching from the service; when
	// disabled the run loads the cached JSON instead.
	GetPosts    bool `yaml:"get_posts"`
	GetComments bool `yaml:"get_comments"`

	// BeginYear and EndYear bound the monthly post export, inclusive.
	BeginYear int `yaml:"begin_year"`
	EndYear   int `yaml:"end_year"`

	Export   Export   `yaml:"export"`
	Comments Comments `yaml:"comments"`
	DayOne   DayOne   `yaml:"dayone"`
}

// Export holds the per-format output switches.
type Export struct {
	JSON     bool `yaml:"json"`
	HTML     bool `yaml:"html"`
	Markdown bool `yaml:"markdown"`
	DayOne   bool `yaml:"dayone"`
}

// Comments holds the comment-tree policy knobs.
type Comments struct {
	// OrphanPolicy is "drop" or "reattach".
	OrphanPolicy comments.OrphanPolicy `yaml:"orphan_policy"`
	// DropSuppressedSubtrees removes a deleted comment's descendants
	// along with it, reproducing the service's historical behavior.
	DropSuppressedSubtrees bool `yaml:"drop_suppressed_subtrees"`
}

// DayOne holds settings for the journal import.
type DayOne struct {
	// Journal is the target journal name; empty uses the default.
	Journal string `yaml:"journal"`
	// Tags are applied to every imported entry, in addition to the
	// post's mood.
	Tags []string `yaml:"tags"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ArchiveDir: ".",
		Export: Export{
			JSON:     true,
			HTML:     true,
			Markdown: true,
		},
		Comments: Comments{
			OrphanPolicy:           comments.OrphanReattach,
			DropSuppressedSubtrees: true,
		},
	}
}

// Load reads the config file at path. A missing file at the default
// path yields the default config; a missing file at an explicit path is
// a user error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if path == DefaultPath {
				return Default(), nil
			}
			return nil, output.NewUserError("config file not found: " + path)
		}
		return nil, output.NewSystemErrorWithCause("reading config "+path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, output.NewUserError(fmt.Sprintf("parsing %s: %v", path, err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration, listing every bad field at once.
func (c *Config) Validate() error {
	var bad []string

	if c.ArchiveDir == "" {
		bad = append(bad, "archive_dir must not be empty")
	}
	if c.GetPosts {
		if c.BeginYear == 0 || c.EndYear == 0 {
			bad = append(bad, "begin_year and end_year are required when get_posts is enabled")
		} else if c.BeginYear > c.EndYear {
			bad = append(bad, fmt.Sprintf("begin_year %d is after end_year %d", c.BeginYear, c.EndYear))
		}
	}
	if !c.Comments.OrphanPolicy.Valid() {
		bad = append(bad, fmt.Sprintf("comments.orphan_policy must be %q or %q", comments.OrphanDrop, comments.OrphanReattach))
	}

	if len(bad) > 0 {
		return output.NewUserError("invalid config: " + strings.Join(bad, "; "))
	}
	return nil
}

// AnyExport reports whether at least one output format is enabled.
func (c *Config) AnyExport() bool {
	return c.Export.JSON || c.Export.HTML || c.Export.Markdown || c.Export.DayOne
}
