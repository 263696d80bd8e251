package tableovertwo

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AaronRDurant/table-over-two/content"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// StaticPaths are the routes that exist regardless of content.
var StaticPaths = []string{"", "archive", "topics", aboutSlug}

// SitePaths lists every page path for the given posts and tags, static pages first.
func SitePaths(posts []content.Post, tags []content.Tag) []string {
	out := make([]string, 0, len(StaticPaths)+len(posts)+len(tags))
	for _, p := range StaticPaths {
		if p == "" {
			out = append(out, "/")
			continue
		}
		out = append(out, "/"+p+"/")
	}
	for _, p := range posts {
		out = append(out, "/"+p.Slug+"/")
	}
	for _, t := range tags {
		out = append(out, "/topics/"+t.Slug+"/")
	}
	return out
}

func (a *App) renderSitemap(c echo.Context, posts []content.Post, tags []content.Tag) error {
	base := a.Config.URL
	urls := make([]sitemapURL, 0, len(StaticPaths)+len(posts)+len(tags))
	for _, p := range StaticPaths {
		if p == "" {
			urls = append(urls, sitemapURL{Loc: BuildURL(base)})
			continue
		}
		urls = append(urls, sitemapURL{Loc: BuildURL(base, p)})
	}
	for _, p := range posts {
		u := sitemapURL{Loc: BuildURL(base, p.Slug)}
		if t, ok := p.Published(); ok {
			u.LastMod = t.Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	for _, t := range tags {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "topics", t.Slug)})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
