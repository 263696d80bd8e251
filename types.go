package tableovertwo

import (
	"github.com/AaronRDurant/table-over-two/theme"
)

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// Page is the per-request data every view receives.
type Page struct {
	Site      SiteConfig
	Meta      PageMeta
	Path      string
	CSRFToken string
	Mode      theme.Mode // stored preference, may be System
	System    theme.Mode // scheme reported by the browser hint
	Team      string
	Theme     theme.Variables
}

// Title returns the document title, "<page> | <site>" or just the site name.
func (p Page) Title() string {
	if p.Meta.Title == "" || p.Meta.Title == p.Site.Name {
		return p.Site.Name
	}
	return p.Meta.Title + " | " + p.Site.Name
}
