package export

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/comments"
	"github.com/burtness/ljexport/internal/config"
	"github.com/burtness/ljexport/internal/dayone"
	"github.com/burtness/ljexport/internal/logger"
	"github.com/burtness/ljexport/internal/output"
)

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.ArchiveDir = dir
	return cfg
}

func testExporter(t *testing.T, cfg *config.Config) *Exporter {
	t.Helper()
	e := New(cfg, archive.New(cfg.ArchiveDir), logger.Discard())
	e.WithImporter(func(_ context.Context, _ dayone.Entry) (string, error) {
		t.Error("unexpected dayone import")
		return "", nil
	})
	return e
}

func TestRun_NoComments(t *testing.T) {
	cfg := testConfig(t.TempDir())
	e := testExporter(t, cfg)

	posts := []*archive.Post{
		{ID: "123", Date: "2010-05-01 10:00:00", Body: "line1\nline2"},
	}

	summary, err := e.Run(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Posts != 1 || summary.Comments != 0 {
		t.Errorf("summary = %+v", summary)
	}

	// JSON: comments must be null, slug id-derived for the untitled post.
	data, err := os.ReadFile(cfg.ArchiveDir + "/posts-json/123.json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"comments": null`) {
		t.Errorf("comments not null:\n%s", data)
	}
	var doc struct {
		ID   string        `json:"id"`
		Post *archive.Post `json:"post"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID != "123" || doc.Post.Slug != "123" {
		t.Errorf("doc id = %q, slug = %q", doc.ID, doc.Post.Slug)
	}

	// HTML: date title and <br> body under the year-month subfolder.
	html, err := os.ReadFile(cfg.ArchiveDir + "/posts-html/2010-05/123.html")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<title>2010-05-01 10:00:00</title>", "line1<br>\nline2"} {
		if !strings.Contains(string(html), want) {
			t.Errorf("html missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(string(html), "<h2>Comments</h2>") {
		t.Error("comment section must be absent without comments")
	}

	// Markdown under the year-month subfolder; no comments file.
	if _, err := os.Stat(cfg.ArchiveDir + "/posts-markdown/2010-05/123.md"); err != nil {
		t.Errorf("markdown missing: %v", err)
	}
	if _, err := os.Stat(cfg.ArchiveDir + "/comments-markdown"); !os.IsNotExist(err) {
		t.Errorf("comments-markdown should not exist, stat err = %v", err)
	}
}

func TestRun_WithComments(t *testing.T) {
	cfg := testConfig(t.TempDir())
	e := testExporter(t, cfg)

	// Post id 1288 belongs to jitemid 5 (1288 >> 8).
	posts := []*archive.Post{
		{ID: "1288", Date: "2010-05-01 10:00:00", Subject: "Hello World", Body: "text"},
	}
	all := []*archive.Comment{
		{ID: 2, JItemID: 5, ParentID: 1, Author: "bob", Body: "reply"},
		{ID: 1, JItemID: 5, Author: "ann", Subject: "hi", Body: "first"},
	}

	if _, err := e.Run(context.Background(), posts, all); err != nil {
		t.Fatalf("Run: %v", err)
	}

	html, err := os.ReadFile(cfg.ArchiveDir + "/posts-html/2010-05/1288.html")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<h2>Comments</h2>", "<h3>ann: hi</h3>", `comment-2`} {
		if !strings.Contains(string(html), want) {
			t.Errorf("html missing %q", want)
		}
	}

	// Comments file keyed by slug.
	cm, err := os.ReadFile(cfg.ArchiveDir + "/comments-markdown/Hello-World.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cm), "<h3>bob: </h3>") {
		t.Errorf("comments file missing reply:\n%s", cm)
	}

	// JSON tree nested and sorted.
	data, err := os.ReadFile(cfg.ArchiveDir + "/posts-json/1288.json")
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Comments []*archive.Comment `json:"comments"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Comments) != 1 || doc.Comments[0].ID != 1 {
		t.Fatalf("top level = %+v", doc.Comments)
	}
	if len(doc.Comments[0].Children) != 1 || doc.Comments[0].Children[0].ID != 2 {
		t.Errorf("children = %+v", doc.Comments[0].Children)
	}
}

func TestRun_UnescapedJSON(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Export.HTML = false
	cfg.Export.Markdown = false
	e := testExporter(t, cfg)

	posts := []*archive.Post{
		{ID: "1", Date: "2010-05-01 10:00:00", Subject: "x", Body: "Привет <b>мир</b> & co"},
	}

	if _, err := e.Run(context.Background(), posts, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(cfg.ArchiveDir + "/posts-json/1.json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Привет <b>мир</b> & co") {
		t.Errorf("JSON escaped content:\n%s", data)
	}
}

func TestRun_SlugCollision(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Export.HTML = false
	e := testExporter(t, cfg)

	posts := []*archive.Post{
		{ID: "17", Date: "2010-05-01 10:00:00", Subject: "Hello World", Body: "a"},
		{ID: "42", Date: "2010-06-01 10:00:00", Subject: "Hello World", Body: "b"},
	}

	if _, err := e.Run(context.Background(), posts, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if posts[0].Slug != "Hello-World" {
		t.Errorf("first slug = %q", posts[0].Slug)
	}
	if posts[1].Slug != "Hello-World-42" {
		t.Errorf("second slug = %q", posts[1].Slug)
	}
}

func TestRun_TagsExtracted(t *testing.T) {
	cfg := testConfig(t.TempDir())
	e := testExporter(t, cfg)

	body := "text\n" +
		"[![travel](http://utx.ambience.ru/img/t.gif)](http://utx.ambience.ru/)" +
		"[![food](http://utx.ambience.ru/img/f.gif)](http://utx.ambience.ru/)"
	posts := []*archive.Post{
		{ID: "9", Date: "2010-05-01 10:00:00", Subject: "tagged", Body: body},
	}

	if _, err := e.Run(context.Background(), posts, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(posts[0].Tags) != 2 || posts[0].Tags[0] != "travel" || posts[0].Tags[1] != "food" {
		t.Errorf("tags = %v", posts[0].Tags)
	}

	md, err := os.ReadFile(cfg.ArchiveDir + "/posts-markdown/2010-05/9.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "tags: travel, food") {
		t.Errorf("tags line missing:\n%s", md)
	}
	if strings.Contains(string(md), "utx.ambience.ru") {
		t.Errorf("markers not stripped:\n%s", md)
	}
}

func TestRun_MentionsRewritten(t *testing.T) {
	cfg := testConfig(t.TempDir())
	e := testExporter(t, cfg)

	posts := []*archive.Post{
		{ID: "1288", Date: "2010-05-01 10:00:00", Subject: `for <lj user="ann">`, Body: `ask <lj user="bob">`},
	}
	all := []*archive.Comment{
		{ID: 1, JItemID: 5, Author: "ann", Body: `thanks <lj user="bob">!`},
	}

	if _, err := e.Run(context.Background(), posts, all); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if posts[0].Subject != "for ann" {
		t.Errorf("subject = %q", posts[0].Subject)
	}
	html, _ := os.ReadFile(cfg.ArchiveDir + "/posts-html/2010-05/1288.html")
	if strings.Contains(string(html), "<lj user") {
		t.Errorf("mention survived:\n%s", html)
	}
}

func TestRun_DayOne(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Export.JSON = false
	cfg.Export.HTML = false
	cfg.Export.Markdown = false
	cfg.Export.DayOne = true
	cfg.DayOne.Journal = "Archive"
	cfg.DayOne.Tags = []string{"livejournal"}

	var got []dayone.Entry
	e := New(cfg, archive.New(cfg.ArchiveDir), logger.Discard()).
		WithImporter(func(_ context.Context, entry dayone.Entry) (string, error) {
			got = append(got, entry)
			return "Created new entry", nil
		})

	posts := []*archive.Post{
		{ID: "1", Date: "2010-05-01 10:00:00", EventTime: "2010-05-01 09:00:00", Subject: "A Day", Body: "text", CurrentMood: "calm"},
	}

	summary, err := e.Run(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.DayOneImports != 1 {
		t.Errorf("imports = %d", summary.DayOneImports)
	}

	if len(got) != 1 {
		t.Fatalf("importer called %d times", len(got))
	}
	entry := got[0]
	if entry.Journal != "Archive" {
		t.Errorf("journal = %q", entry.Journal)
	}
	// Configured tags plus the post's mood.
	if len(entry.Tags) != 2 || entry.Tags[0] != "livejournal" || entry.Tags[1] != "calm" {
		t.Errorf("tags = %v", entry.Tags)
	}
	if entry.Date.Hour() != 9 {
		t.Errorf("date should use eventtime, got %v", entry.Date)
	}
	if !strings.HasPrefix(entry.Content, "# A Day\n") {
		t.Errorf("content = %q", entry.Content)
	}

	if _, err := os.Stat(cfg.ArchiveDir + "/posts-dayone/2010-05/1.md"); err != nil {
		t.Errorf("dayone file missing: %v", err)
	}
}

func TestRun_DayOneFailureSurfaced(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Export.DayOne = true

	e := New(cfg, archive.New(cfg.ArchiveDir), logger.Discard()).
		WithImporter(func(_ context.Context, _ dayone.Entry) (string, error) {
			return "", output.NewSystemError("dayone2 import failed: boom")
		})

	posts := []*archive.Post{
		{ID: "1", Date: "2010-05-01 10:00:00", Subject: "x", Body: "y"},
		{ID: "2", Date: "2010-06-01 10:00:00", Subject: "z", Body: "w"},
	}

	summary, err := e.Run(context.Background(), posts, nil)
	if output.GetExitCode(err) != output.ExitSystemError {
		t.Errorf("want system error, got %v", err)
	}
	if summary == nil || summary.DayOneFailures != 2 {
		t.Errorf("summary = %+v", summary)
	}
	// Other formats still written despite the failures.
	if _, err := os.Stat(cfg.ArchiveDir + "/posts-json/2.json"); err != nil {
		t.Errorf("json for later post missing: %v", err)
	}
}

func TestRun_OrphanCounted(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Comments.OrphanPolicy = comments.OrphanDrop
	e := testExporter(t, cfg)

	posts := []*archive.Post{
		{ID: "1288", Date: "2010-05-01 10:00:00", Subject: "x", Body: "y"},
	}
	all := []*archive.Comment{
		{ID: 1, JItemID: 5, Author: "ann", Body: "ok"},
		{ID: 2, JItemID: 5, ParentID: 77, Author: "bob", Body: "lost"},
	}

	summary, err := e.Run(context.Background(), posts, all)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Orphans != 1 {
		t.Errorf("orphans = %d, want 1", summary.Orphans)
	}

	html, _ := os.ReadFile(cfg.ArchiveDir + "/posts-html/2010-05/1288.html")
	if strings.Contains(string(html), "lost") {
		t.Errorf("dropped orphan rendered:\n%s", html)
	}
}

func TestRun_Determinism(t *testing.T) {
	run := func(dir string) []byte {
		cfg := testConfig(dir)
		e := testExporter(t, cfg)
		posts := []*archive.Post{
			{ID: "17", Date: "2010-05-01 10:00:00", Subject: "dup", Body: "a"},
			{ID: "42", Date: "2010-05-02 10:00:00", Subject: "dup", Body: "b"},
		}
		all := []*archive.Comment{
			{ID: 3, JItemID: 0, Author: "c", Body: "three"},
			{ID: 1, JItemID: 0, Author: "a", Body: "one"},
			{ID: 2, JItemID: 0, ParentID: 1, Author: "b", Body: "two"},
		}
		if _, err := e.Run(context.Background(), posts, all); err != nil {
			t.Fatalf("Run: %v", err)
		}
		data, err := os.ReadFile(dir + "/posts-json/17.json")
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	first := run(t.TempDir())
	second := run(t.TempDir())
	if string(first) != string(second) {
		t.Error("repeated runs differ")
	}
}
