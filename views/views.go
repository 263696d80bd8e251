// Package views is the default set of page templates. Pages are html/template
// files embedded in the binary and exposed as templ components.
package views

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/a-h/templ"

	tableovertwo "github.com/AaronRDurant/table-over-two"
	"github.com/AaronRDurant/table-over-two/content"
)

//go:embed templates/*.html
var templateFS embed.FS

// data is what every page template receives.
type data struct {
	Page   tableovertwo.Page
	JSONLD template.JS

	Posts   []content.Post
	Post    content.Post
	Years   []content.YearGroup
	Tags    []content.Tag
	ByTag   map[string][]content.Post
	Tag     content.Tag
	Credit  string
	Message string
}

var pageNames = []string{"home", "article", "archive", "topics", "topic", "about", "notfound", "servererror"}

// Templates holds one parsed template set per page.
type Templates struct {
	pages map[string]*template.Template
}

// Parse loads the embedded templates.
func Parse() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

func (t *Templates) render(name string, d data) templ.Component {
	if d.JSONLD == "" {
		d.JSONLD = template.JS(WebsiteJsonLD(d.Page.Site))
	}
	return templ.FromGoHTML(t.pages[name], d)
}

// Funcs returns ViewFuncs backed by these templates.
func (t *Templates) Funcs() tableovertwo.ViewFuncs {
	return tableovertwo.ViewFuncs{
		Home: func(p tableovertwo.Page, posts []content.Post) templ.Component {
			return t.render("home", data{Page: p, Posts: posts})
		},
		Article: func(p tableovertwo.Page, post content.Post) templ.Component {
			return t.render("article", data{Page: p, Post: post, JSONLD: template.JS(BlogPostingJsonLD(p.Site, post))})
		},
		Archive: func(p tableovertwo.Page, years []content.YearGroup) templ.Component {
			return t.render("archive", data{Page: p, Years: years})
		},
		Topics: func(p tableovertwo.Page, tags []content.Tag, byTag map[string][]content.Post) templ.Component {
			return t.render("topics", data{Page: p, Tags: tags, ByTag: byTag})
		},
		Topic: func(p tableovertwo.Page, tag content.Tag, posts []content.Post, credit string) templ.Component {
			return t.render("topic", data{Page: p, Tag: tag, Posts: posts, Credit: credit})
		},
		About: func(p tableovertwo.Page, page content.Page) templ.Component {
			return t.render("about", data{Page: p, Post: page})
		},
		NotFound: func(p tableovertwo.Page) templ.Component {
			return t.render("notfound", data{Page: p})
		},
		ServerError: func(p tableovertwo.Page) templ.Component {
			return t.render("servererror", data{Page: p})
		},
	}
}

// Default returns the embedded views. It panics if the embedded templates
// do not parse.
func Default() tableovertwo.ViewFuncs {
	t, err := Parse()
	if err != nil {
		panic(err)
	}
	return t.Funcs()
}
