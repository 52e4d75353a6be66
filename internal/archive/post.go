// Package archive provides the post and comment records of a LiveJournal
// export and the on-disk cache layout they are read from and written to.
package archive

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the timestamp format used by the LiveJournal export
// endpoints and preserved verbatim in the cached JSON.
const DateLayout = "2006-01-02 15:04:05"

// Post is one journal entry as fetched from the monthly export endpoint.
// Tags and Slug are derived during the export run; everything else is
// stored exactly as the service returned it.
type Post struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	EventTime    string   `json:"eventtime,omitempty"`
	Security     string   `json:"security,omitempty"`
	AllowMask    string   `json:"allowmask,omitempty"`
	CurrentMusic string   `json:"current_music,omitempty"`
	CurrentMood  string   `json:"current_mood,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Slug         string   `json:"slug,omitempty"`
}

// ItemID returns the post's numeric identifier.
func (p *Post) ItemID() (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(p.ID))
	if err != nil {
		return 0, fmt.Errorf("post id %q is not numeric: %w", p.ID, err)
	}
	return id, nil
}

// JItemID returns the identifier comments use to reference this post.
// The comment export addresses posts by itemid shifted right 8 bits.
func (p *Post) JItemID() (int, error) {
	id, err := p.ItemID()
	if err != nil {
		return 0, err
	}
	return id >> 8, nil
}

// Time parses the post's log time.
func (p *Post) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, p.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("post %s has malformed date %q: %w", p.ID, p.Date, err)
	}
	return t, nil
}

// Subfolder returns the YYYY-MM directory the post's rendered files are
// written under.
func (p *Post) Subfolder() (string, error) {
	t, err := p.Time()
	if err != nil {
		return "", err
	}
	return t.Format("2006-01"), nil
}

// Title returns the subject, falling back to the date for untitled posts.
func (p *Post) Title() string {
	if p.Subject != "" {
		return p.Subject
	}
	return p.Date
}
