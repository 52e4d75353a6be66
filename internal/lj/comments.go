package lj

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/output"
)

// commentMeta matches the comment_meta response: the highest comment id
// in the journal plus the poster id to username map.
type commentMeta struct {
	MaxID int       `xml:"maxid"`
	Users []xmlUser `xml:"usermaps>usermap"`
}

type xmlUser struct {
	ID   string `xml:"id,attr"`
	User string `xml:"user,attr"`
}

// commentBody matches one page of the comment_body export.
type commentBody struct {
	Comments []xmlComment `xml:"comments>comment"`
}

type xmlComment struct {
	ID       int    `xml:"id,attr"`
	JItemID  int    `xml:"jitemid,attr"`
	ParentID int    `xml:"parentid,attr"`
	PosterID int    `xml:"posterid,attr"`
	State    string `xml:"state,attr"`
	Date     string `xml:"date"`
	Subject  string `xml:"subject"`
	Body     string `xml:"body"`
}

// DownloadComments fetches the whole comment export: metadata first for
// the ceiling id and the user map, then body pages until the ceiling is
// reached. Authors are resolved through the user map; a poster id that
// no longer resolves becomes the deleted-user placeholder.
func (c *Client) DownloadComments(ctx context.Context, ar *archive.Archive) ([]*archive.Comment, error) {
	c.log.Info("fetching comment metadata")

	metaXML, err := c.get(ctx, "/export_comments.bml", url.Values{
		"get":     {"comment_meta"},
		"startid": {"0"},
	})
	if err != nil {
		return nil, err
	}
	if err := ar.WriteFile(filepath.Join(archive.CommentsXMLDir, "comment_meta.xml"), []byte(metaXML)); err != nil {
		return nil, err
	}

	var meta commentMeta
	if err := xml.Unmarshal([]byte(metaXML), &meta); err != nil {
		return nil, output.NewSystemErrorWithCause("parsing comment metadata", err)
	}

	users := make(map[int]string, len(meta.Users))
	for _, u := range meta.Users {
		id, err := strconv.Atoi(u.ID)
		if err != nil {
			continue
		}
		users[id] = u.User
	}
	if err := ar.WriteJSON(filepath.Join(archive.CommentsJSONDir, "usermap.json"), users); err != nil {
		return nil, err
	}
	c.log.Info("comment metadata fetched", "maxid", meta.MaxID, "users", len(users))

	var all []*archive.Comment
	startID := 0
	for startID <= meta.MaxID {
		page, pageMax, err := c.fetchCommentPage(ctx, ar, startID, users)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			// A short page past the advertised ceiling; stop rather
			// than loop on the same startid forever.
			break
		}
		all = append(all, page...)
		startID = pageMax + 1
		c.sleep(time.Second)
	}

	if err := ar.SaveComments(all); err != nil {
		return nil, err
	}
	c.log.Info("comments downloaded", "count", len(all))
	return all, nil
}

// fetchCommentPage retrieves one comment_body page starting at startID,
// caching the raw XML. Returns the comments and the highest id seen.
func (c *Client) fetchCommentPage(ctx context.Context, ar *archive.Archive, startID int, users map[int]string) ([]*archive.Comment, int, error) {
	c.log.Info("fetching comments", "startid", startID)

	body, err := c.get(ctx, "/export_comments.bml", url.Values{
		"get":     {"comment_body"},
		"startid": {strconv.Itoa(startID)},
	})
	if err != nil {
		return nil, 0, err
	}

	rel := filepath.Join(archive.CommentsXMLDir, fmt.Sprintf("comment_body-%d.xml", startID))
	if err := ar.WriteFile(rel, []byte(body)); err != nil {
		return nil, 0, err
	}

	var page commentBody
	if err := xml.Unmarshal([]byte(body), &page); err != nil {
		return nil, 0, output.NewSystemErrorWithCause(
			fmt.Sprintf("parsing comment page at startid %d", startID), err)
	}

	maxID := -1
	comments := make([]*archive.Comment, 0, len(page.Comments))
	for _, x := range page.Comments {
		comment := &archive.Comment{
			ID:       x.ID,
			JItemID:  x.JItemID,
			ParentID: x.ParentID,
			PosterID: x.PosterID,
			State:    x.State,
			Date:     x.Date,
			Subject:  x.Subject,
			Body:     x.Body,
		}
		if x.PosterID != 0 {
			comment.Author = users[x.PosterID]
			if comment.Author == "" {
				comment.Author = archive.DeletedAuthor
			}
		}
		if x.ID > maxID {
			maxID = x.ID
		}
		comments = append(comments, comment)
	}
	return comments, maxID, nil
}
