// Package slug derives unique, filesystem-safe identifiers for posts.
package slug

import (
	"regexp"
	"strings"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/transform"
)

// nonWord matches runs of non-word characters, Unicode-aware so titles
// in non-Latin scripts keep their letters.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Registry issues slugs and remembers every slug issued during one
// export run so collisions can be disambiguated. It is created per run
// and threaded through the orchestrator; it is not safe for concurrent
// use and is never persisted.
//
// Disambiguation depends solely on the order posts are passed in, so a
// repeated run over the same input produces identical slugs. Callers
// must request slugs in the order posts are emitted.
type Registry struct {
	issued map[string]bool
}

// NewRegistry creates an empty slug registry.
func NewRegistry() *Registry {
	return &Registry{issued: make(map[string]bool)}
}

// Slug derives the post's slug and records it in the registry.
//
// The candidate is the subject, or the post id for untitled posts. A
// candidate containing markup is reduced to its text content first.
// Runs of non-word characters collapse to single hyphens, leading and
// trailing hyphens are stripped, and a candidate already issued gets the
// post id appended (without a hyphen when the candidate is empty).
func (r *Registry) Slug(p *archive.Post) string {
	candidate := p.Subject
	if candidate == "" {
		candidate = p.ID
	}

	if strings.ContainsAny(candidate, "<&") {
		candidate = transform.PlainText(candidate)
	}

	s := nonWord.ReplaceAllString(candidate, "-")
	s = strings.Trim(s, "-")

	if r.issued[s] {
		if s != "" {
			s += "-"
		}
		s += p.ID
	}

	r.issued[s] = true
	return s
}
