package views

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	tableovertwo "github.com/AaronRDurant/table-over-two"
	"github.com/AaronRDurant/table-over-two/content"
	"github.com/AaronRDurant/table-over-two/theme"
)

var funcs = template.FuncMap{
	"formatDate":  FormatDate,
	"isoDate":     isoDate,
	"caption":     SanitizeCaption,
	"trusted":     trustedHTML,
	"css":         themeCSS,
	"topicPath":   func(slug string) string { return "/topics/" + slug + "/" },
	"teams":       theme.Teams,
	"teamLabel":   teamLabel,
	"postsFor":    postsFor,
	"featureAlt":  featureAlt,
	"toggleLabel": toggleLabel,
	"themeColor":  func(v theme.Variables) string { return v.Background },
}

// FormatDate renders a content timestamp as "January 2, 2006". Unparsable
// values render as empty.
func FormatDate(published string) string {
	t, ok := content.Post{PublishedAt: published}.Published()
	if !ok {
		return ""
	}
	return t.Format("January 2, 2006")
}

func isoDate(published string) string {
	t, ok := content.Post{PublishedAt: published}.Published()
	if !ok {
		return ""
	}
	return t.Format(time.RFC3339)
}

var captionPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.AllowElements("em", "strong", "b", "i", "span", "br")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// SanitizeCaption keeps simple inline markup from a feature image caption.
func SanitizeCaption(caption string) template.HTML {
	return template.HTML(captionPolicy.Sanitize(caption))
}

// trustedHTML marks post bodies from the CMS as safe.
func trustedHTML(s string) template.HTML {
	return template.HTML(s)
}

func themeCSS(v theme.Variables) template.CSS {
	return template.CSS(v.CSS())
}

func teamLabel(team string) string {
	if team == theme.DefaultTeam {
		return "Default"
	}
	if name := theme.Palettes[team].TeamName; name != "" {
		return name
	}
	if team == "" {
		return "Default"
	}
	return strings.ToUpper(team[:1]) + team[1:]
}

func toggleLabel(v theme.Variables) string {
	if v.Applied == theme.Dark {
		return "Light mode"
	}
	return "Dark mode"
}

func postsFor(byTag map[string][]content.Post, slug string) []content.Post {
	return byTag[slug]
}

func featureAlt(p content.Post) string {
	if p.FeatureImageAlt != "" {
		return p.FeatureImageAlt
	}
	return "Thumbnail for " + p.Title
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block.
func WebsiteJsonLD(cfg tableovertwo.SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      tableovertwo.BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg tableovertwo.SiteConfig, post content.Post) string {
	postURL := tableovertwo.BuildURL(cfg.URL, post.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Excerpt,
		"datePublished": isoDate(post.PublishedAt),
		"url":           postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	switch {
	case post.PrimaryAuthor != nil && post.PrimaryAuthor.Name != "":
		data["author"] = map[string]string{"@type": "Person", "name": post.PrimaryAuthor.Name}
	case cfg.Author != "":
		data["author"] = map[string]string{"@type": "Person", "name": cfg.Author}
	}
	if post.FeatureImage != "" {
		data["image"] = post.FeatureImage
	}
	if len(post.Tags) > 0 {
		names := make([]string, 0, len(post.Tags))
		for _, t := range post.Tags {
			names = append(names, t.Name)
		}
		data["keywords"] = strings.Join(names, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
