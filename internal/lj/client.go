// Package lj talks to the LiveJournal export endpoints: session login,
// the monthly post export, and the paginated comment export. Raw
// responses are cached in the archive so a run can be repeated without
// refetching.
package lj

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/burtness/ljexport/internal/config"
	"github.com/burtness/ljexport/internal/logger"
	"github.com/burtness/ljexport/internal/output"
)

const (
	defaultBaseURL = "https://www.livejournal.com"
	userAgent      = "ljexport (https://github.com/burtness/ljexport)"

	// loginWelcome is the marker the login page shows on success; the
	// endpoint returns 200 either way.
	loginWelcome = "Welcome back to LiveJournal!"
)

// Client is an authenticated connection to the service. Cookies from a
// successful login are kept for the session.
type Client struct {
	http    *http.Client
	baseURL string
	log     *logger.Logger

	// sleep paces requests; the export endpoints rate-limit
	// aggressively. Replaceable in tests.
	sleep func(time.Duration)
}

// New creates a client with a fresh cookie jar.
func New(log *logger.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		http:    &http.Client{Jar: jar, Timeout: 2 * time.Minute},
		baseURL: defaultBaseURL,
		log:     log,
		sleep:   time.Sleep,
	}
}

// Login authenticates the session. A rejected login is an auth error;
// beware that a few invalid attempts get the IP temporarily banned.
func (c *Client) Login(ctx context.Context, creds config.Credentials) error {
	form := url.Values{
		"user":     {creds.Username},
		"password": {creds.Password},
	}

	body, err := c.postForm(ctx, "/login.bml", form)
	if err != nil {
		return err
	}

	if !strings.Contains(body, loginWelcome) {
		return output.NewAuthError("login rejected: check " + config.EnvUsername + " and " + config.EnvPassword)
	}

	c.log.Info("logged in", "user", creds.Username)
	return nil
}

// postForm POSTs a form and returns the response body.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return "", output.NewSystemErrorWithCause("building request for "+path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// get GETs a path with query parameters and returns the response body.
func (c *Client) get(ctx context.Context, path string, query url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return "", output.NewSystemErrorWithCause("building request for "+path, err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (string, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", output.NewSystemErrorWithCause("requesting "+req.URL.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close after full read

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", output.NewSystemErrorWithCause("reading response from "+req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", output.NewSystemError(req.URL.Path + " returned " + resp.Status)
	}
	return string(data), nil
}
