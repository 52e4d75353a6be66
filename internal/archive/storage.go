package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/burtness/ljexport/internal/output"
)

// Cache directory names under the archive root. The JSON caches double as
// the interchange format: a run with fetching disabled loads its input
// from posts-json/all.json and comments-json/all.json.
const (
	PostsXMLDir         = "posts-xml"
	PostsJSONDir        = "posts-json"
	CommentsXMLDir      = "comments-xml"
	CommentsJSONDir     = "comments-json"
	PostsHTMLDir        = "posts-html"
	PostsMarkdownDir    = "posts-markdown"
	CommentsMarkdownDir = "comments-markdown"
	PostsDayOneDir      = "posts-dayone"
)

// Archive owns the on-disk layout of one export: raw XML caches, JSON
// caches, and the rendered output directories.
type Archive struct {
	root string
}

// New creates an Archive rooted at dir.
func New(dir string) *Archive {
	return &Archive{root: dir}
}

// Root returns the archive root directory.
func (a *Archive) Root() string {
	return a.root
}

// Path joins elements under the archive root.
func (a *Archive) Path(elem ...string) string {
	return filepath.Join(append([]string{a.root}, elem...)...)
}

// LoadPosts reads the cached post collection. A missing cache is a user
// error: the caller either needs to fetch first or fix the archive dir.
func (a *Archive) LoadPosts() ([]*Post, error) {
	path := a.Path(PostsJSONDir, "all.json")
	var posts []*Post
	if err := a.loadJSON(path, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// LoadComments reads the cached comment collection.
func (a *Archive) LoadComments() ([]*Comment, error) {
	path := a.Path(CommentsJSONDir, "all.json")
	var comments []*Comment
	if err := a.loadJSON(path, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (a *Archive) loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return output.NewUserError(fmt.Sprintf(
				"no cached data at %s: run 'ljexport fetch' or enable fetching in the config", path))
		}
		return output.NewSystemErrorWithCause("reading "+path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return output.NewSystemErrorWithCause("parsing "+path, err)
	}
	return nil
}

// SavePosts writes the post collection to the JSON cache.
func (a *Archive) SavePosts(posts []*Post) error {
	return a.WriteJSON(filepath.Join(PostsJSONDir, "all.json"), posts)
}

// SaveComments writes the comment collection to the JSON cache.
func (a *Archive) SaveComments(comments []*Comment) error {
	return a.WriteJSON(filepath.Join(CommentsJSONDir, "all.json"), comments)
}

// WriteJSON writes v pretty-printed under the archive root, creating
// parent directories as needed. Non-ASCII characters and HTML metacharacters
// are written literally, matching the cache format of the service dumps.
func (a *Archive) WriteJSON(rel string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	return a.WriteFile(rel, data)
}

// WriteFile writes data under the archive root, creating parent
// directories as needed.
func (a *Archive) WriteFile(rel string, data []byte) error {
	path := a.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return output.NewSystemErrorWithCause("creating "+filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return output.NewSystemErrorWithCause("writing "+path, err)
	}
	return nil
}

// MarshalJSON renders v with two-space indentation, literal Unicode, and
// no HTML escaping of <, > and &.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, output.NewSystemErrorWithCause("encoding JSON", err)
	}
	return buf.Bytes(), nil
}
