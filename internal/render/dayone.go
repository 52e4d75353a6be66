package render

import (
	"fmt"
	"strings"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/comments"
)

// markdownEscaper backslash-escapes the characters that would let a
// comment body be misread as markdown structure inside a quoted block.
var markdownEscaper = strings.NewReplacer(
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
)

// DayOne renders a post for import into the Day One journaling app: a
// bare `# subject` header, the converted body, and the comment thread
// as nested blockquotes. body is the post's converted markdown body.
func DayOne(p *archive.Post, body string, tree []*archive.Comment, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", p.Title())
	if body != "" {
		b.WriteString("\n" + body + "\n")
	}

	if thread := DayOneComments(tree, opts); thread != "" {
		b.WriteString("\n" + thread + "\n")
	}

	return b.String()
}

// DayOneComments renders a comment tree in the blockquote dialect:
// every comment is a quoted block and each nesting level adds another
// `>` prefix. Siblings are ordered by ascending id.
func DayOneComments(tree []*archive.Comment, opts Options) string {
	var blocks []string
	for _, c := range comments.SortByID(tree) {
		if block := commentBlock(c, opts); block != "" {
			blocks = append(blocks, quote(block))
		}
	}
	return strings.Join(blocks, "\n\n")
}

// commentBlock renders one comment unquoted: author line (linked unless
// anonymous), optional subject line, escaped body, then each child
// re-quoted one level deeper. Tombstoned comments render as empty and
// take their subtree with them unless options promote the children.
func commentBlock(c *archive.Comment, opts Options) string {
	if c.Tombstoned() {
		if opts.DropSuppressedSubtrees || len(c.Children) == 0 {
			return ""
		}
		var promoted []string
		for _, child := range comments.SortByID(c.Children) {
			if block := commentBlock(child, opts); block != "" {
				promoted = append(promoted, block)
			}
		}
		return strings.Join(promoted, "\n\n")
	}

	var lines []string
	if c.Author == "" {
		lines = append(lines, archive.AnonymousAuthor+" wrote:")
	} else {
		lines = append(lines, fmt.Sprintf("[%s](https://%s.livejournal.com/) wrote:", c.Author, c.Author))
	}
	if c.Subject != "" {
		lines = append(lines, "**"+markdownEscaper.Replace(c.Subject)+"**")
	}
	if c.Body != "" {
		lines = append(lines, "", markdownEscaper.Replace(c.Body))
	}

	block := strings.Join(lines, "\n")
	for _, child := range comments.SortByID(c.Children) {
		if childBlock := commentBlock(child, opts); childBlock != "" {
			block += "\n\n" + quote(childBlock)
		}
	}
	return block
}

// quote prefixes every line of s with a blockquote marker. Blank lines
// get a bare ">" so the quoted block stays contiguous.
func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}
