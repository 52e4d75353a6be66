package render

import (
	"fmt"
	"strings"

	"github.com/burtness/ljexport/internal/archive"
)

// Markdown renders a post as a markdown document with a front-matter
// style header. body is the post's already-converted, tag-stripped
// markdown body; the post's Slug and Tags must be populated.
//
// Comments are deliberately not inlined here: the orchestrator writes
// them to a separate file keyed by the post's slug.
func Markdown(p *archive.Post, body string) string {
	tagsLine := ""
	if len(p.Tags) > 0 {
		tagsLine = "\ntags: " + strings.Join(p.Tags, ", ")
	}

	return fmt.Sprintf(`id: %s
title: %s
slug: %s
date: %s%s

%s
`, p.ID, p.Title(), p.Slug, p.Date, tagsLine, body)
}
