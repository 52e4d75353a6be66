// Package main provides the entry point for the ljexport CLI.
package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/config"
	ljmcp "github.com/burtness/ljexport/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server over the archive (stdio transport)",
		Long: `Run ljexport as a Model Context Protocol (MCP) server over stdio.

This exposes the cached archive as read-only MCP tools that any
MCP-capable agent environment can browse. Fetch or export first so the
archive has cached data.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "ljexport": {
        "command": "ljexport",
        "args": ["serve"]
      }
    }
  }

Available tools: list_posts, show_post, search_posts, stats`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}

			ar := archive.New(cfg.ArchiveDir)
			posts, err := ar.LoadPosts()
			if err != nil {
				return err
			}
			comments, err := ar.LoadComments()
			if err != nil {
				return err
			}

			idx, err := ljmcp.NewIndex(posts, comments, cfg.Comments.OrphanPolicy)
			if err != nil {
				return err
			}
			server := ljmcp.NewServer(buildVersion(), idx)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
