package archive

// StateDeleted marks a comment the service has suppressed. Its content
// must never appear in rendered output.
const StateDeleted = "D"

// AnonymousAuthor is the display name used when a comment carries no
// resolvable poster.
const AnonymousAuthor = "anonym"

// DeletedAuthor is the display name used when a poster id no longer
// resolves in the user map.
const DeletedAuthor = "deleted-user"

// Comment is one comment from the comment export. IDs are unique across
// the whole export, not per post. ParentID zero means top level; the
// service never issues comment id zero.
type Comment struct {
	ID       int        `json:"id"`
	JItemID  int        `json:"jitemid"`
	ParentID int        `json:"parentid,omitempty"`
	PosterID int        `json:"posterid,omitempty"`
	Date     string     `json:"date,omitempty"`
	Subject  string     `json:"subject,omitempty"`
	Body     string     `json:"body,omitempty"`
	State    string     `json:"state,omitempty"`
	Author   string     `json:"author,omitempty"`
	Children []*Comment `json:"children"`
}

// Tombstoned reports whether the comment is deleted/suppressed.
func (c *Comment) Tombstoned() bool {
	return c.State == StateDeleted
}

// DisplayAuthor returns the author name to render, substituting the
// anonymous placeholder when no author was resolved.
func (c *Comment) DisplayAuthor() string {
	if c.Author == "" {
		return AnonymousAuthor
	}
	return c.Author
}
