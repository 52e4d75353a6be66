// Package mcp provides a Model Context Protocol server over an exported
// archive. It exposes read-only tools that any MCP-capable agent can
// use to browse posts and their comment threads.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server with all archive tools registered.
func NewServer(version string, idx *Index) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ljexport",
		Version: version,
	}, nil)
	registerTools(server, idx)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools. Every
// archive tool is read-only: the server never mutates the export.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// registerTools adds all archive tools to the server.
func registerTools(server *mcp.Server, idx *Index) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_posts",
		Description: "List posts in the archive, optionally filtered by year. Returns id, date, title, slug, and comment count per post.",
		Annotations: readOnlyAnnotations(),
	}, handleListPosts(idx))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "show_post",
		Description: "Show a single post by id, including its full body and nested comment thread.",
		Annotations: readOnlyAnnotations(),
	}, handleShowPost(idx))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_posts",
		Description: "Search post subjects and bodies for a substring (case-insensitive). Returns matching post summaries.",
		Annotations: readOnlyAnnotations(),
	}, handleSearchPosts(idx))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Archive statistics: post count, comment count, tombstoned comment count, and the year range covered.",
		Annotations: readOnlyAnnotations(),
	}, handleStats(idx))
}
