package tableovertwo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/AaronRDurant/table-over-two/content"
)

const testKey = "b30648b0fe1cad4980ba726b12"

// ghost is an in-memory content API.
type ghost struct {
	posts []content.Post
	pages []content.Page
	tags  []content.Tag
	down  bool
}

func newGhost() *ghost {
	news := content.Tag{ID: "t1", Slug: "news", Name: "News", Visibility: content.VisibilityPublic, FeatureImage: "https://cdn.example.com/news.jpg"}
	results := content.Tag{ID: "t2", Slug: "results", Name: "Results", Visibility: content.VisibilityPublic}
	internal := content.Tag{ID: "t3", Slug: "hash-credits", Name: "#credits", Visibility: content.VisibilityInternal}
	return &ghost{
		posts: []content.Post{
			{ID: "1", Slug: "anaheim-1-results", Title: "Anaheim 1 Results", Excerpt: "Season opener", PublishedAt: "2025-01-11T20:00:00.000Z", Tags: []content.Tag{results}, PrimaryAuthor: &content.Author{Name: "Aaron Durant"}},
			{ID: "2", Slug: "tag-photo-credits", Title: "Tag Photo Credits", HTML: `<p>{"news": "Photo: Jane Doe"}</p>`, PublishedAt: "2025-01-10T10:00:00.000Z", Tags: []content.Tag{internal}},
			{ID: "3", Slug: "silly-season", Title: "Silly Season", PublishedAt: "2024-10-01T10:00:00.000Z", Tags: []content.Tag{news}},
		},
		pages: []content.Page{{ID: "p1", Slug: "about", Title: "About", HTML: "<p>About us</p>"}},
		tags:  []content.Tag{news, results, internal},
	}
}

func (g *ghost) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	if q.Get("key") != testKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	filter := q.Get("filter")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/posts/"):
		out := []content.Post{}
		for _, p := range g.posts {
			switch {
			case strings.HasPrefix(filter, "slug:"):
				if p.Slug != strings.TrimPrefix(filter, "slug:") {
					continue
				}
			case strings.HasPrefix(filter, "tag:"):
				if !p.HasTag(strings.TrimPrefix(filter, "tag:")) {
					continue
				}
			}
			out = append(out, p)
		}
		json.NewEncoder(w).Encode(map[string]any{"posts": out})
	case strings.HasSuffix(r.URL.Path, "/pages/"):
		out := []content.Page{}
		for _, p := range g.pages {
			if p.Slug == strings.TrimPrefix(filter, "slug:") {
				out = append(out, p)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"pages": out})
	case strings.HasSuffix(r.URL.Path, "/tags/"):
		json.NewEncoder(w).Encode(map[string]any{"tags": g.tags})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func text(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

func slugs(posts []content.Post) string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return strings.Join(out, ",")
}

// stubViews renders plain text so handler tests can assert on what was passed in.
func stubViews() ViewFuncs {
	return ViewFuncs{
		Home: func(p Page, posts []content.Post) templ.Component {
			if len(posts) == 0 {
				return text("home empty theme=%s team=%s", p.Theme.Applied, p.Team)
			}
			return text("home %s theme=%s team=%s", slugs(posts), p.Theme.Applied, p.Team)
		},
		Article: func(p Page, post content.Post) templ.Component {
			return text("article %s canonical=%s", post.Slug, p.Meta.URL)
		},
		Archive: func(p Page, years []content.YearGroup) templ.Component {
			parts := []string{}
			for _, y := range years {
				parts = append(parts, y.Year+":"+slugs(y.Posts))
			}
			return text("archive %s", strings.Join(parts, " "))
		},
		Topics: func(p Page, tags []content.Tag, byTag map[string][]content.Post) templ.Component {
			parts := []string{}
			for _, t := range tags {
				parts = append(parts, t.Slug+"="+slugs(byTag[t.Slug]))
			}
			sort.Strings(parts)
			return text("topics %s", strings.Join(parts, " "))
		},
		Topic: func(p Page, tag content.Tag, posts []content.Post, credit string) templ.Component {
			return text("topic %s posts=%s credit=%s", tag.Slug, slugs(posts), credit)
		},
		About: func(p Page, page content.Page) templ.Component {
			return text("about %s", page.Title)
		},
		NotFound: func(p Page) templ.Component {
			return text("not found")
		},
		ServerError: func(p Page) templ.Component {
			return text("server error")
		},
	}
}

type testApp struct {
	*App
	ghost *ghost
}

func newTestApp(t *testing.T, opts ...Option) *testApp {
	t.Helper()
	g := newGhost()
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)

	client, err := content.NewClient(srv.URL, testKey,
		content.WithLogger(quietLogger()),
		content.WithObserver(FetchMetrics{}),
	)
	require.NoError(t, err)

	cfg := SiteConfig{URL: "https://tableovertwo.com", SessionSecret: "test-session-secret-0123456789"}
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return &testApp{App: New(cfg, client, stubViews(), opts...), ghost: g}
}

type reqOpt func(*http.Request)

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func withCookies(cookies []*http.Cookie) reqOpt {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func withRemoteAddr(addr string) reqOpt {
	return func(r *http.Request) { r.RemoteAddr = addr }
}

// withCSRF attaches a matching CSRF cookie and header.
func withCSRF() reqOpt {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "_csrf", Value: "csrf-test-token"})
		r.Header.Set("X-CSRF-Token", "csrf-test-token")
	}
}

func (a *testApp) do(method, target string, form url.Values, opts ...reqOpt) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

// cookiesNamed returns the last Set-Cookie with the given name.
func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}
