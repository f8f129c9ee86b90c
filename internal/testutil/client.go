package testutil

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"
)

// Browser is a cookie-keeping client for console tests. It never follows
// redirects so tests can assert on Location.
type Browser struct {
	BaseURL    string
	HTTPClient *http.Client
	t          *testing.T
}

// Page is a console response read into memory.
type Page struct {
	Status   int
	Location string
	Body     string
}

// NewBrowser creates a browser for the console served at baseURL.
func NewBrowser(t *testing.T, baseURL string) *Browser {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}

	return &Browser{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		t: t,
	}
}

// Get fetches path.
func (b *Browser) Get(path string) *Page {
	b.t.Helper()

	req, err := http.NewRequest(http.MethodGet, b.BaseURL+path, nil)
	if err != nil {
		b.t.Fatalf("create request: %v", err)
	}
	return b.do(req)
}

// Post submits form values to path.
func (b *Browser) Post(path string, form url.Values) *Page {
	b.t.Helper()

	req, err := http.NewRequest(http.MethodPost, b.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		b.t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// Follow fetches the Location of a redirect page.
func (b *Browser) Follow(p *Page) *Page {
	b.t.Helper()

	if p.Location == "" {
		b.t.Fatalf("expected redirect, got status %d", p.Status)
	}
	return b.Get(p.Location)
}

func (b *Browser) do(req *http.Request) *Page {
	b.t.Helper()

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatalf("read body: %v", err)
	}

	return &Page{
		Status:   resp.StatusCode,
		Location: resp.Header.Get("Location"),
		Body:     string(body),
	}
}
