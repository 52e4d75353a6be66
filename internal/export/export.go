// Package export orchestrates one export run: it walks the post
// collection in order, pairs each post with its rebuilt comment tree,
// applies the text transforms, and writes every enabled output format.
//
// All file writes and the external Day One invocation live here;
// renderers stay pure.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/comments"
	"github.com/burtness/ljexport/internal/config"
	"github.com/burtness/ljexport/internal/dayone"
	"github.com/burtness/ljexport/internal/logger"
	"github.com/burtness/ljexport/internal/output"
	"github.com/burtness/ljexport/internal/render"
	"github.com/burtness/ljexport/internal/slug"
	"github.com/burtness/ljexport/internal/transform"
)

// Exporter runs the combine/render pipeline. It exclusively owns the
// post and comment collections for the duration of one run.
type Exporter struct {
	cfg   *config.Config
	ar    *archive.Archive
	slugs *slug.Registry
	log   *logger.Logger

	// importEntry sends a rendered document to the Day One CLI.
	// Injectable for tests.
	importEntry dayone.Runner
}

// Summary reports what one run produced.
type Summary struct {
	Posts          int `json:"posts"`
	Comments       int `json:"comments"`
	Orphans        int `json:"orphans"`
	Cycles         int `json:"cycles"`
	DayOneImports  int `json:"dayone_imports,omitempty"`
	DayOneFailures int `json:"dayone_failures,omitempty"`
}

// New creates an Exporter with a fresh slug registry.
func New(cfg *config.Config, ar *archive.Archive, log *logger.Logger) *Exporter {
	return &Exporter{
		cfg:         cfg,
		ar:          ar,
		slugs:       slug.NewRegistry(),
		log:         log,
		importEntry: dayone.Import,
	}
}

// WithImporter replaces the Day One runner. Returns the exporter for
// chaining.
func (e *Exporter) WithImporter(r dayone.Runner) *Exporter {
	e.importEntry = r
	return e
}

// postDocument is the JSON output shape: the transformed post plus its
// nested comment tree, or null when the post drew no comments.
type postDocument struct {
	ID       string             `json:"id"`
	Post     *archive.Post      `json:"post"`
	Comments []*archive.Comment `json:"comments"`
}

// Run executes the pipeline over the given collections. Posts are
// processed in input order, which fixes slug disambiguation across
// repeated runs.
func (e *Exporter) Run(ctx context.Context, posts []*archive.Post, all []*archive.Comment) (*Summary, error) {
	groups := comments.GroupByPost(all)
	opts := render.Options{DropSuppressedSubtrees: e.cfg.Comments.DropSuppressedSubtrees}
	summary := &Summary{Posts: len(posts), Comments: len(all)}

	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return nil, output.NewSystemErrorWithCause("export interrupted", err)
		}

		jitemid, err := p.JItemID()
		if err != nil {
			return nil, output.NewUserError(err.Error())
		}
		subfolder, err := p.Subfolder()
		if err != nil {
			return nil, output.NewUserError(err.Error())
		}

		var tree []*archive.Comment
		if group, ok := groups[jitemid]; ok {
			var resolutions []comments.Resolution
			tree, resolutions = comments.Build(group, e.cfg.Comments.OrphanPolicy)
			for _, r := range resolutions {
				switch r.Outcome {
				case comments.Orphaned:
					summary.Orphans++
					e.log.Warn("orphaned comment", "comment", r.CommentID, "parent", r.ParentID, "post", p.ID, "policy", e.cfg.Comments.OrphanPolicy)
				case comments.CycleDetected:
					summary.Cycles++
					e.log.Warn("comment parent cycle", "comment", r.CommentID, "parent", r.ParentID, "post", p.ID)
				}
			}
		}

		p.Subject = transform.RewriteUserMentions(p.Subject)
		p.Body = transform.RewriteUserMentions(p.Body)

		// The markdown dialects share one converted, tag-stripped
		// body; deriving it also populates the post's tags and slug.
		mdBody, err := e.prepare(p)
		if err != nil {
			return nil, err
		}

		if err := e.writePost(ctx, p, subfolder, mdBody, tree, opts, summary); err != nil {
			return nil, err
		}
	}

	if summary.DayOneFailures > 0 {
		return summary, output.NewSystemError(fmt.Sprintf("%d of %d Day One imports failed", summary.DayOneFailures, summary.DayOneImports+summary.DayOneFailures))
	}
	return summary, nil
}

// prepare converts the post body for the markdown dialects and fills
// the derived fields. Tags and slug are populated exactly once per post.
func (e *Exporter) prepare(p *archive.Post) (string, error) {
	md, err := transform.ToMarkdown(transform.BreakLines(p.Body, "<br>"))
	if err != nil {
		return "", output.NewSystemErrorWithCause("converting post "+p.ID, err)
	}
	md = transform.CollapseBlankLines(md)

	body, tags := transform.ExtractTags(md)
	p.Tags = tags
	p.Slug = e.slugs.Slug(p)
	return body, nil
}

// writePost writes every enabled format for one post.
func (e *Exporter) writePost(ctx context.Context, p *archive.Post, subfolder, mdBody string, tree []*archive.Comment, opts render.Options, summary *Summary) error {
	commentsHTML := ""
	if tree != nil {
		comments.SortTree(tree)
		commentsHTML = render.CommentsHTML(tree, opts)
	}

	if e.cfg.Export.JSON {
		doc := postDocument{ID: p.ID, Post: p, Comments: tree}
		if err := e.ar.WriteJSON(filepath.Join(archive.PostsJSONDir, p.ID+".json"), doc); err != nil {
			return err
		}
	}

	if e.cfg.Export.HTML {
		doc := render.HTML(p)
		if tree != nil {
			doc += "\n<h2>Comments</h2>\n" + commentsHTML
		}
		rel := filepath.Join(archive.PostsHTMLDir, subfolder, p.ID+".html")
		if err := e.ar.WriteFile(rel, []byte(doc)); err != nil {
			return err
		}
	}

	if e.cfg.Export.Markdown {
		rel := filepath.Join(archive.PostsMarkdownDir, subfolder, p.ID+".md")
		if err := e.ar.WriteFile(rel, []byte(render.Markdown(p, mdBody))); err != nil {
			return err
		}
		if commentsHTML != "" {
			rel := filepath.Join(archive.CommentsMarkdownDir, p.Slug+".md")
			if err := e.ar.WriteFile(rel, []byte(commentsHTML)); err != nil {
				return err
			}
		}
	}

	if e.cfg.Export.DayOne {
		if err := e.writeDayOne(ctx, p, subfolder, mdBody, tree, opts, summary); err != nil {
			return err
		}
	}

	return nil
}

// writeDayOne writes the Day One document and hands it to the external
// tool. Import failures are logged and counted rather than aborting the
// run; Run surfaces them at the end.
func (e *Exporter) writeDayOne(ctx context.Context, p *archive.Post, subfolder, mdBody string, tree []*archive.Comment, opts render.Options, summary *Summary) error {
	doc := render.DayOne(p, mdBody, tree, opts)
	rel := filepath.Join(archive.PostsDayOneDir, subfolder, p.ID+".md")
	if err := e.ar.WriteFile(rel, []byte(doc)); err != nil {
		return err
	}

	tags := append([]string{}, e.cfg.DayOne.Tags...)
	if p.CurrentMood != "" {
		tags = append(tags, p.CurrentMood)
	}

	confirmation, err := e.importEntry(ctx, dayone.Entry{
		Content: doc,
		Journal: e.cfg.DayOne.Journal,
		Tags:    tags,
		Date:    eventTime(p),
	})
	if err != nil {
		summary.DayOneFailures++
		e.log.Error("dayone import failed", "post", p.ID, "err", err)
		return nil
	}

	summary.DayOneImports++
	e.log.Info("dayone imported", "post", p.ID, "result", confirmation)
	return nil
}

// eventTime picks the timestamp for the Day One entry: the event time
// when parseable, else the log time, else zero (tool default).
func eventTime(p *archive.Post) time.Time {
	if t, err := time.Parse(archive.DateLayout, p.EventTime); err == nil {
		return t
	}
	if t, err := p.Time(); err == nil {
		return t
	}
	return time.Time{}
}
