// Package main provides the entry point for the ljexport CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/config"
	"github.com/burtness/ljexport/internal/lj"
	"github.com/burtness/ljexport/internal/logger"
	"github.com/burtness/ljexport/internal/output"
)

// newFetchCmd creates the fetch command.
func newFetchCmd() *cobra.Command {
	var postsFlag bool
	var commentsFlag bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download posts and comments into the archive cache",
		Long: `Download posts and comments from the service into the archive cache.

Posts come from the monthly export endpoint (begin_year through
end_year from the config); comments come from the paginated comment
export. Raw XML responses and consolidated JSON are cached under the
archive directory, so a later 'ljexport export' run needs no network.

Credentials are read from LJ_USERNAME and LJ_PASSWORD. Note that a few
invalid login attempts get your IP temporarily banned.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, postsFlag, commentsFlag)
		},
	}

	cmd.Flags().BoolVar(&postsFlag, "posts", true, "Download posts")
	cmd.Flags().BoolVar(&commentsFlag, "comments", true, "Download comments")

	return cmd
}

// runFetch executes the fetch command.
func runFetch(cmd *cobra.Command, posts, comments bool) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), output.IsTTY(cmd.OutOrStdout())).
		WithStderr(cmd.ErrOrStderr())
	log := logger.New(cmd.ErrOrStderr())

	if !posts && !comments {
		err := output.NewUserError("nothing to fetch: enable --posts or --comments")
		printer.Error(err)
		return err
	}

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		printer.Error(err)
		return err
	}

	ar := archive.New(cfg.ArchiveDir)
	gotPosts, gotComments, err := fetchCollections(cmd, cfg, ar, log, posts, comments)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"posts":    len(gotPosts),
			"comments": len(gotComments),
		})
	}
	return printer.Success(map[string]any{
		"message": fmt.Sprintf("Fetched %d posts and %d comments into %s", len(gotPosts), len(gotComments), cfg.ArchiveDir),
	})
}

// fetchCollections logs in and downloads the requested collections.
// Slices for collections not requested come back nil.
func fetchCollections(cmd *cobra.Command, cfg *config.Config, ar *archive.Archive, log *logger.Logger, posts, comments bool) ([]*archive.Post, []*archive.Comment, error) {
	if posts && (cfg.BeginYear == 0 || cfg.EndYear == 0) {
		return nil, nil, output.NewUserError("begin_year and end_year must be set in the config to fetch posts")
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, nil, err
	}

	client := lj.New(log)
	if err := client.Login(cmd.Context(), creds); err != nil {
		return nil, nil, err
	}

	var gotPosts []*archive.Post
	var gotComments []*archive.Comment
	if posts {
		if gotPosts, err = client.DownloadPosts(cmd.Context(), ar, cfg.BeginYear, cfg.EndYear); err != nil {
			return nil, nil, err
		}
	}
	if comments {
		if gotComments, err = client.DownloadComments(cmd.Context(), ar); err != nil {
			return nil, nil, err
		}
	}
	return gotPosts, gotComments, nil
}
