package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/burtness/ljexport/internal/archive"
)

// PostSummary is a compact post reference for listings.
type PostSummary struct {
	ID           string `json:"id"            jsonschema:"post id"`
	Date         string `json:"date"          jsonschema:"post log time"`
	Title        string `json:"title"         jsonschema:"subject, or the date for untitled posts"`
	Slug         string `json:"slug,omitempty" jsonschema:"derived slug, when the archive has been exported"`
	CommentCount int    `json:"comment_count" jsonschema:"comments in the post's thread"`
}

// --- list_posts tool ---

// ListPostsInput is the input for the list_posts tool.
type ListPostsInput struct {
	Year int `json:"year,omitempty" jsonschema:"only posts from this year"`
}

// ListPostsOutput is the output for the list_posts tool.
type ListPostsOutput struct {
	Count int           `json:"count" jsonschema:"number of posts returned"`
	Posts []PostSummary `json:"posts" jsonschema:"posts in archive order"`
}

func handleListPosts(idx *Index) mcp.ToolHandlerFor[ListPostsInput, ListPostsOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ListPostsInput) (*mcp.CallToolResult, ListPostsOutput, error) {
		out := ListPostsOutput{Posts: []PostSummary{}}
		for _, p := range idx.posts {
			if input.Year != 0 {
				t, err := p.Time()
				if err != nil || t.Year() != input.Year {
					continue
				}
			}
			out.Posts = append(out.Posts, summarize(idx, p))
		}
		out.Count = len(out.Posts)
		return nil, out, nil
	}
}

// --- show_post tool ---

// ShowPostInput is the input for the show_post tool.
type ShowPostInput struct {
	ID string `json:"id" jsonschema:"post id"`
}

// ShowPostOutput is the output for the show_post tool.
type ShowPostOutput struct {
	Post     *archive.Post      `json:"post"     jsonschema:"the post record"`
	Comments []*archive.Comment `json:"comments" jsonschema:"nested comment thread, null when the post has none"`
}

func handleShowPost(idx *Index) mcp.ToolHandlerFor[ShowPostInput, ShowPostOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ShowPostInput) (*mcp.CallToolResult, ShowPostOutput, error) {
		p, ok := idx.byID[input.ID]
		if !ok {
			return nil, ShowPostOutput{}, fmt.Errorf("post %q not found", input.ID)
		}
		return nil, ShowPostOutput{Post: p, Comments: idx.trees[p.ID]}, nil
	}
}

// --- search_posts tool ---

// SearchPostsInput is the input for the search_posts tool.
type SearchPostsInput struct {
	Query string `json:"query" jsonschema:"substring to search for, case-insensitive"`
}

// SearchPostsOutput is the output for the search_posts tool.
type SearchPostsOutput struct {
	Count int           `json:"count" jsonschema:"number of matches"`
	Posts []PostSummary `json:"posts" jsonschema:"matching posts in archive order"`
}

func handleSearchPosts(idx *Index) mcp.ToolHandlerFor[SearchPostsInput, SearchPostsOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input SearchPostsInput) (*mcp.CallToolResult, SearchPostsOutput, error) {
		if input.Query == "" {
			return nil, SearchPostsOutput{}, fmt.Errorf("query must not be empty")
		}
		needle := strings.ToLower(input.Query)

		out := SearchPostsOutput{Posts: []PostSummary{}}
		for _, p := range idx.posts {
			if strings.Contains(strings.ToLower(p.Subject), needle) ||
				strings.Contains(strings.ToLower(p.Body), needle) {
				out.Posts = append(out.Posts, summarize(idx, p))
			}
		}
		out.Count = len(out.Posts)
		return nil, out, nil
	}
}

// --- stats tool ---

// StatsInput is the input for the stats tool (no parameters needed).
type StatsInput struct{}

// StatsOutput is the output for the stats tool.
type StatsOutput struct {
	Posts      int    `json:"posts"                 jsonschema:"number of posts"`
	Comments   int    `json:"comments"              jsonschema:"number of comments"`
	Tombstones int    `json:"tombstones"            jsonschema:"comments marked deleted by the service"`
	FirstYear  int    `json:"first_year,omitempty"  jsonschema:"earliest post year"`
	LastYear   int    `json:"last_year,omitempty"   jsonschema:"latest post year"`
	Note       string `json:"note,omitempty"        jsonschema:"non-fatal remarks about the archive"`
}

func handleStats(idx *Index) mcp.ToolHandlerFor[StatsInput, StatsOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, StatsOutput, error) {
		out := StatsOutput{
			Posts:      len(idx.posts),
			Comments:   idx.commentCount,
			Tombstones: idx.tombstoneCount,
		}

		unparseable := 0
		for _, p := range idx.posts {
			t, err := p.Time()
			if err != nil {
				unparseable++
				continue
			}
			if out.FirstYear == 0 || t.Year() < out.FirstYear {
				out.FirstYear = t.Year()
			}
			if t.Year() > out.LastYear {
				out.LastYear = t.Year()
			}
		}
		if unparseable > 0 {
			out.Note = fmt.Sprintf("%d posts have unparseable dates", unparseable)
		}

		return nil, out, nil
	}
}

// summarize builds a PostSummary for listings.
func summarize(idx *Index, p *archive.Post) PostSummary {
	return PostSummary{
		ID:           p.ID,
		Date:         p.Date,
		Title:        p.Title(),
		Slug:         p.Slug,
		CommentCount: idx.treeSize(p.ID),
	}
}
