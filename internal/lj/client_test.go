package lj

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/config"
	"github.com/burtness/ljexport/internal/logger"
	"github.com/burtness/ljexport/internal/output"
)

// testClient points a client at a test server with sleeps disabled.
func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(logger.Discard())
	c.baseURL = srv.URL
	c.sleep = func(time.Duration) {}
	return c
}

func TestLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login.bml", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("user") == "frank" && r.PostForm.Get("password") == "hunter2" {
			fmt.Fprint(w, "<html>Welcome back to LiveJournal!</html>")
			return
		}
		fmt.Fprint(w, "<html>wrong password</html>")
	})

	t.Run("accepted", func(t *testing.T) {
		c := testClient(t, mux)
		err := c.Login(context.Background(), config.Credentials{Username: "frank", Password: "hunter2"})
		if err != nil {
			t.Errorf("Login: %v", err)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		c := testClient(t, mux)
		err := c.Login(context.Background(), config.Credentials{Username: "frank", Password: "wrong"})
		if output.GetExitCode(err) != output.ExitAuthError {
			t.Errorf("want auth error, got %v", err)
		}
	})
}

func TestDownloadPosts(t *testing.T) {
	month := func(year, m int) string {
		if year == 2010 && m == 5 {
			return `<?xml version="1.0"?>
<livejournal>
<entry>
<itemid>31488</itemid>
<eventtime>2010-05-01 09:00:00</eventtime>
<logtime>2010-05-01 10:00:00</logtime>
<subject>Hello</subject>
<event>line1
line2</event>
<security>public</security>
<allowmask></allowmask>
<current_music>none</current_music>
<current_mood>calm</current_mood>
</entry>
</livejournal>`
		}
		return `<?xml version="1.0"?><livejournal></livejournal>`
	}

	mux := http.NewServeMux()
	var fetched int
	mux.HandleFunc("/export_do.bml", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		fetched++
		var y, m int
		fmt.Sscanf(r.PostForm.Get("year"), "%d", &y)
		fmt.Sscanf(r.PostForm.Get("month"), "%d", &m)
		fmt.Fprint(w, month(y, m))
	})

	c := testClient(t, mux)
	ar := archive.New(t.TempDir())

	posts, err := c.DownloadPosts(context.Background(), ar, 2010, 2010)
	if err != nil {
		t.Fatalf("DownloadPosts: %v", err)
	}

	if fetched != 12 {
		t.Errorf("fetched %d months, want 12", fetched)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}

	p := posts[0]
	if p.ID != "31488" || p.Subject != "Hello" || p.Date != "2010-05-01 10:00:00" {
		t.Errorf("post = %+v", p)
	}
	if p.Body != "line1\nline2" {
		t.Errorf("body = %q", p.Body)
	}
	if p.CurrentMood != "calm" {
		t.Errorf("mood = %q", p.CurrentMood)
	}

	// Raw XML cached per month, JSON cache loadable.
	if _, err := os.Stat(ar.Path(archive.PostsXMLDir, "2010-05.xml")); err != nil {
		t.Errorf("raw month XML not cached: %v", err)
	}
	reloaded, err := ar.LoadPosts()
	if err != nil || len(reloaded) != 1 {
		t.Errorf("reload: %v, %d posts", err, len(reloaded))
	}
}

func TestDownloadComments(t *testing.T) {
	meta := `<?xml version="1.0"?>
<livejournal>
<maxid>2</maxid>
<usermaps>
<usermap id="7" user="ann"/>
</usermaps>
</livejournal>`

	page := `<?xml version="1.0"?>
<livejournal>
<comments>
<comment id="1" jitemid="123" posterid="7">
<date>2010-05-01T11:00:00Z</date>
<subject>hi</subject>
<body>first</body>
</comment>
<comment id="2" jitemid="123" parentid="1" posterid="9">
<body>reply</body>
</comment>
</comments>
</livejournal>`

	empty := `<?xml version="1.0"?><livejournal><comments></comments></livejournal>`

	mux := http.NewServeMux()
	mux.HandleFunc("/export_comments.bml", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("get") {
		case "comment_meta":
			fmt.Fprint(w, meta)
		case "comment_body":
			if r.URL.Query().Get("startid") == "0" {
				fmt.Fprint(w, page)
				return
			}
			fmt.Fprint(w, empty)
		default:
			t.Errorf("unexpected get=%q", r.URL.Query().Get("get"))
		}
	})

	c := testClient(t, mux)
	ar := archive.New(t.TempDir())

	comments, err := c.DownloadComments(context.Background(), ar)
	if err != nil {
		t.Fatalf("DownloadComments: %v", err)
	}

	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if comments[0].Author != "ann" {
		t.Errorf("author = %q, want ann", comments[0].Author)
	}
	// Poster 9 is not in the user map.
	if comments[1].Author != archive.DeletedAuthor {
		t.Errorf("unresolvable poster = %q, want %q", comments[1].Author, archive.DeletedAuthor)
	}
	if comments[1].ParentID != 1 || comments[1].JItemID != 123 {
		t.Errorf("comment 2 = %+v", comments[1])
	}

	if _, err := os.Stat(filepath.Join(ar.Root(), archive.CommentsJSONDir, "usermap.json")); err != nil {
		t.Errorf("usermap not cached: %v", err)
	}
	reloaded, err := ar.LoadComments()
	if err != nil || len(reloaded) != 2 {
		t.Errorf("reload: %v, %d comments", err, len(reloaded))
	}
}
