// Package main provides the entry point for the ljexport CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/config"
	"github.com/burtness/ljexport/internal/export"
	"github.com/burtness/ljexport/internal/logger"
	"github.com/burtness/ljexport/internal/output"
)

// newExportCmd creates the export command.
func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Render the archive to every enabled output format",
		Long: `Render the archive to every output format enabled in the config.

When get_posts or get_comments is enabled in the config, the matching
collection is downloaded first; otherwise the cached JSON under the
archive directory is used. Outputs per post:

  posts-json/<id>.json            post plus nested comment tree
  posts-html/<YYYY-MM>/<id>.html  standalone HTML page
  posts-markdown/<YYYY-MM>/<id>.md
  comments-markdown/<slug>.md     comment thread, when the post has one
  posts-dayone/<YYYY-MM>/<id>.md  Day One body (also imported via dayone2)`,
		RunE: runExport,
	}
}

// runExport executes the export command.
func runExport(cmd *cobra.Command, _ []string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), output.IsTTY(cmd.OutOrStdout())).
		WithStderr(cmd.ErrOrStderr())
	log := logger.New(cmd.ErrOrStderr())

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		printer.Error(err)
		return err
	}
	if !cfg.AnyExport() {
		err := output.NewUserError("no output formats enabled: turn on at least one of export.json, export.html, export.markdown, export.dayone")
		printer.Error(err)
		return err
	}

	ar := archive.New(cfg.ArchiveDir)
	posts, comments, err := loadCollections(cmd, cfg, ar, log)
	if err != nil {
		printer.Error(err)
		return err
	}

	summary, err := export.New(cfg, ar, log).Run(cmd.Context(), posts, comments)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(summary)
	}
	return printer.Success(map[string]any{
		"message": fmt.Sprintf("Exported %d posts (%d comments) to %s", summary.Posts, summary.Comments, cfg.ArchiveDir),
	})
}

// loadCollections resolves the post and comment collections for a run:
// fetched from the service when the config says so, otherwise loaded
// from the JSON caches.
func loadCollections(cmd *cobra.Command, cfg *config.Config, ar *archive.Archive, log *logger.Logger) ([]*archive.Post, []*archive.Comment, error) {
	var posts []*archive.Post
	var comments []*archive.Comment
	var err error

	if cfg.GetPosts || cfg.GetComments {
		posts, comments, err = fetchCollections(cmd, cfg, ar, log, cfg.GetPosts, cfg.GetComments)
		if err != nil {
			return nil, nil, err
		}
	}

	if posts == nil {
		if posts, err = ar.LoadPosts(); err != nil {
			return nil, nil, err
		}
	}
	if comments == nil {
		if comments, err = ar.LoadComments(); err != nil {
			return nil, nil, err
		}
	}
	return posts, comments, nil
}
