// Package render turns a post and its comment tree into output
// documents. Renderers are pure: file writes and external tool calls
// belong to the export orchestrator.
package render

import (
	"fmt"
	"strings"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/comments"
	"github.com/burtness/ljexport/internal/transform"
)

// Options control rendering policy shared by the dialects.
type Options struct {
	// DropSuppressedSubtrees removes the descendants of a tombstoned
	// comment along with it. The alternative renders the children in
	// the suppressed comment's place.
	DropSuppressedSubtrees bool
}

// HTML renders a post as a standalone HTML document. The title is the
// subject, or the date for untitled posts; the body has its bare
// newlines converted to <br> markers.
func HTML(p *archive.Post) string {
	body := transform.BreakLines(p.Body, "<br>\n")

	return fmt.Sprintf(`<!doctype html>
<meta charset="utf-8">
<title>%s</title>
<article>
<h1>%s</h1>
%s
</article>
`, p.Title(), p.Title(), body)
}

// CommentsHTML renders a comment tree as nested <ul>/<li> markup.
// Siblings appear in ascending id order regardless of input order.
func CommentsHTML(tree []*archive.Comment, opts Options) string {
	items := make([]string, 0, len(tree))
	for _, c := range comments.SortByID(tree) {
		items = append(items, commentItem(c, opts))
	}
	return "<ul>\n" + strings.Join(items, "\n") + "\n</ul>"
}

// commentItem renders one comment as an <li>, recursing into children.
// A tombstoned comment renders as an empty string; its subtree is
// dropped or promoted in place depending on options.
func commentItem(c *archive.Comment, opts Options) string {
	if c.Tombstoned() {
		if opts.DropSuppressedSubtrees || len(c.Children) == 0 {
			return ""
		}
		promoted := make([]string, 0, len(c.Children))
		for _, child := range comments.SortByID(c.Children) {
			promoted = append(promoted, commentItem(child, opts))
		}
		return strings.Join(promoted, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h3>%s: %s</h3>", c.DisplayAuthor(), c.Subject)
	fmt.Fprintf(&b, "\n<a id=\"comment-%d\"></a>", c.ID)

	if c.Body != "" {
		body, err := transform.MarkdownToHTML(transform.BreakLines(c.Body, "<br>\n"))
		if err != nil {
			// Comment bodies are service markup bridged through a
			// markdown parser; fall back to the raw text if the
			// parser rejects it.
			body = c.Body
		}
		b.WriteString("\n" + body)
	}

	if len(c.Children) > 0 {
		b.WriteString("\n" + CommentsHTML(c.Children, opts))
	}

	subjectClass := ""
	if c.Subject != "" {
		subjectClass = " class=subject"
	}
	return fmt.Sprintf("<li%s>%s\n</li>", subjectClass, b.String())
}
