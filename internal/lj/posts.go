package lj

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/output"
)

// monthExport matches the XML document returned by the monthly post
// export. The root element name varies, so only entries are bound.
type monthExport struct {
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	ItemID       string `xml:"itemid"`
	EventTime    string `xml:"eventtime"`
	LogTime      string `xml:"logtime"`
	Subject      string `xml:"subject"`
	Event        string `xml:"event"`
	Security     string `xml:"security"`
	AllowMask    string `xml:"allowmask"`
	CurrentMusic string `xml:"current_music"`
	CurrentMood  string `xml:"current_mood"`
}

// DownloadPosts fetches every month in [beginYear, endYear], caches
// each month's raw XML, and writes the combined JSON cache. Requests
// are paced: one second between months, four between years.
func (c *Client) DownloadPosts(ctx context.Context, ar *archive.Archive, beginYear, endYear int) ([]*archive.Post, error) {
	var posts []*archive.Post

	for year := beginYear; year <= endYear; year++ {
		for month := 1; month <= 12; month++ {
			monthly, err := c.fetchMonth(ctx, ar, year, month)
			if err != nil {
				return nil, err
			}
			posts = append(posts, monthly...)
			c.sleep(time.Second)
		}
		c.sleep(4 * time.Second)
	}

	if err := ar.SavePosts(posts); err != nil {
		return nil, err
	}
	c.log.Info("posts downloaded", "count", len(posts))
	return posts, nil
}

// fetchMonth retrieves one month of posts, caching the raw XML.
func (c *Client) fetchMonth(ctx context.Context, ar *archive.Archive, year, month int) ([]*archive.Post, error) {
	c.log.Info("fetching posts", "year", year, "month", month)

	form := url.Values{
		"what":            {"journal"},
		"year":            {fmt.Sprintf("%d", year)},
		"month":           {fmt.Sprintf("%02d", month)},
		"format":          {"xml"},
		"header":          {"on"},
		"encid":           {"2"},
		"field_itemid":    {"on"},
		"field_eventtime": {"on"},
		"field_logtime":   {"on"},
		"field_subject":   {"on"},
		"field_event":     {"on"},
		"field_security":  {"on"},
		"field_allowmask": {"on"},
		"field_currents":  {"on"},
	}

	body, err := c.postForm(ctx, "/export_do.bml", form)
	if err != nil {
		return nil, err
	}

	rel := filepath.Join(archive.PostsXMLDir, fmt.Sprintf("%d-%02d.xml", year, month))
	if err := ar.WriteFile(rel, []byte(body)); err != nil {
		return nil, err
	}

	return parseMonth(year, month, body)
}

// parseMonth decodes one month's export XML into posts.
func parseMonth(year, month int, body string) ([]*archive.Post, error) {
	var doc monthExport
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, output.NewSystemErrorWithCause(
			fmt.Sprintf("parsing post export for %d-%02d", year, month), err)
	}

	posts := make([]*archive.Post, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		posts = append(posts, &archive.Post{
			ID:           e.ItemID,
			Date:         e.LogTime,
			Subject:      e.Subject,
			Body:         e.Event,
			EventTime:    e.EventTime,
			Security:     e.Security,
			AllowMask:    e.AllowMask,
			CurrentMusic: e.CurrentMusic,
			CurrentMood:  e.CurrentMood,
		})
	}
	return posts, nil
}
