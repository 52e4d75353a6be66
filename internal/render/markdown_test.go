package render

import (
	"strings"
	"testing"

	"github.com/burtness/ljexport/internal/archive"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name         string
		post         *archive.Post
		body         string
		wantContains []string
	}{
		{
			name: "full header",
			post: &archive.Post{
				ID:      "257",
				Date:    "2010-05-01 10:00:00",
				Subject: "A Day",
				Slug:    "A-Day",
				Tags:    []string{"travel", "food"},
			},
			body: "the body",
			wantContains: []string{
				"id: 257",
				"title: A Day",
				"slug: A-Day",
				"date: 2010-05-01 10:00:00",
				"tags: travel, food",
				"\n\nthe body\n",
			},
		},
		{
			name: "no tags line when untagged",
			post: &archive.Post{ID: "1", Date: "2010-05-01 10:00:00", Subject: "x", Slug: "x"},
			body: "b",
			wantContains: []string{
				"date: 2010-05-01 10:00:00\n\nb\n",
			},
		},
		{
			name: "untitled post titles by date",
			post: &archive.Post{ID: "9", Date: "2011-01-02 03:04:05", Slug: "9"},
			body: "",
			wantContains: []string{
				"title: 2011-01-02 03:04:05",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Markdown(tt.post, tt.body)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestMarkdown_NoTagsLineAbsent(t *testing.T) {
	got := Markdown(&archive.Post{ID: "1", Date: "2010-05-01 10:00:00", Subject: "x", Slug: "x"}, "b")

	if strings.Contains(got, "tags:") {
		t.Errorf("unexpected tags line:\n%s", got)
	}
}
