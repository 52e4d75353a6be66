// Package transform provides the text conversions applied to posts and
// comments before rendering: user-mention rewriting, linebreak
// normalization, embedded tag extraction, and markup dialect bridging.
package transform

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

var (
	// userMention matches the service's structured user link,
	// e.g. <lj user="frank"> or <lj user=frank>.
	userMention = regexp.MustCompile(`<lj user="?(.*?)"?>`)

	// embeddedTag matches the UTX image-link convention used to embed
	// tags in post bodies: [![caption](http://utx.ambience.ru/img/...)](...).
	embeddedTag = regexp.MustCompile(`\[!\[(.*?)\]\(http://utx\.ambience\.ru/img/.*?\)\]\(.*?\)`)

	// blankRuns matches three or more consecutive (possibly
	// whitespace-padded) newlines.
	blankRuns = regexp.MustCompile(`(\s*\n){3,}`)
)

// RewriteUserMentions replaces every structured user-mention marker with
// the bare username. No-op on text without mentions.
func RewriteUserMentions(text string) string {
	return userMention.ReplaceAllString(text, "$1")
}

// BreakLines replaces every newline not preceded by a closing tag
// bracket with marker (typically "<br>\n" for HTML output or "<br>"
// before a markdown conversion). The service stores mixed
// raw-markup/plain-text bodies where bare newlines are significant;
// newlines directly after a tag are structural and left alone. Empty
// input short-circuits to an empty string.
func BreakLines(text, marker string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && (i == 0 || text[i-1] != '>') {
			b.WriteString(marker)
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}

// ExtractTags finds all embedded tag markers, returns their captions in
// first-occurrence order (duplicates preserved), and returns the text
// with the markers removed and runs of 3+ blank lines collapsed to one.
func ExtractTags(text string) (string, []string) {
	var tags []string
	for _, m := range embeddedTag.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	cleaned := embeddedTag.ReplaceAllString(text, "")
	cleaned = CollapseBlankLines(cleaned)
	return strings.TrimSpace(cleaned), tags
}

// CollapseBlankLines reduces runs of three or more newlines down to a
// single blank line.
func CollapseBlankLines(text string) string {
	return blankRuns.ReplaceAllString(text, "\n\n")
}

// ToMarkdown converts HTML-ish markup to Markdown. Lines are not wrapped
// and non-ASCII characters pass through unescaped.
func ToMarkdown(htmlText string) (string, error) {
	if htmlText == "" {
		return "", nil
	}
	md, err := htmltomarkdown.ConvertString(htmlText)
	if err != nil {
		return "", fmt.Errorf("converting markup to markdown: %w", err)
	}
	return md, nil
}

// MarkdownToHTML renders Markdown text as an HTML fragment. Comment
// bodies originate as service markup but are deliberately treated as
// Markdown here, matching the output contract.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// PlainText parses s as HTML and returns its concatenated text content.
// Used when a subject field itself stores embedded formatting.
func PlainText(s string) string {
	doc, err := html.Parse(strings.NewReader("<p>" + s + "</p>"))
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return b.String()
}
