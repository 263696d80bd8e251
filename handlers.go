package tableovertwo

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/AaronRDurant/table-over-two/content"
	"github.com/AaronRDurant/table-over-two/theme"
)

// aboutSlug is the page rendered at /about/.
const aboutSlug = "about"

// unknownCredit is shown when a topic image has no recorded credit.
const unknownCredit = "Unknown"

// Content operations log their own failures and return an empty fallback, so
// the handlers below render whatever came back and ignore the error value.

func (a *App) handleHome(c echo.Context) error {
	posts, _ := a.Content.Posts(c.Request().Context(), content.DefaultPostLimit)
	p := a.page(c, PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
	})
	return Render(c, a.Views.Home(p, posts))
}

func (a *App) handleArticle(c echo.Context) error {
	post, _ := a.Content.PostBySlug(c.Request().Context(), c.Param("slug"))
	if post == nil || post.HasInternalTag() {
		return a.renderNotFound(c)
	}
	p := a.page(c, PageMeta{
		Title:       post.Title,
		Description: post.Excerpt,
		URL:         BuildURL(a.Config.URL, post.Slug),
		OGType:      "article",
		Image:       post.FeatureImage,
	})
	return Render(c, a.Views.Article(p, *post))
}

func (a *App) handleArchive(c echo.Context) error {
	posts, _ := a.Content.Posts(c.Request().Context(), content.MaxPostLimit)
	p := a.page(c, PageMeta{
		Title:       "Archive",
		Description: "Every article on " + a.Config.Name + ", by year.",
		URL:         BuildURL(a.Config.URL, "archive"),
		OGType:      "website",
	})
	return Render(c, a.Views.Archive(p, content.GroupByYear(posts)))
}

// topicPostLimit is how many posts each tag shows on /topics/.
const topicPostLimit = content.DefaultTagPostLimit

func (a *App) handleTopics(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		tags  []content.Tag
		posts []content.Post
		g     errgroup.Group
	)
	g.Go(func() error {
		tags, _ = a.Content.Tags(ctx)
		return nil
	})
	g.Go(func() error {
		posts, _ = a.Content.Posts(ctx, content.MaxPostLimit)
		return nil
	})
	_ = g.Wait()

	byTag := content.GroupByTag(posts)
	for slug, list := range byTag {
		if len(list) > topicPostLimit {
			byTag[slug] = list[:topicPostLimit]
		}
	}
	p := a.page(c, PageMeta{
		Title:       "Topics",
		Description: "Browse " + a.Config.Name + " by topic.",
		URL:         BuildURL(a.Config.URL, "topics"),
		OGType:      "website",
	})
	return Render(c, a.Views.Topics(p, tags, byTag))
}

func (a *App) handleTopic(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("tagSlug")
	var (
		tags    []content.Tag
		posts   []content.Post
		credits map[string]string
		g       errgroup.Group
	)
	g.Go(func() error {
		tags, _ = a.Content.Tags(ctx)
		return nil
	})
	g.Go(func() error {
		posts, _ = a.Content.PostsByTag(ctx, slug, content.MaxPostLimit)
		return nil
	})
	g.Go(func() error {
		credits = a.Credits.Credits(ctx)
		return nil
	})
	_ = g.Wait()

	tag, ok := content.FindTag(tags, slug)
	if !ok {
		return a.renderNotFound(c)
	}
	credit := credits[tag.Slug]
	if credit == "" {
		credit = unknownCredit
	}
	p := a.page(c, PageMeta{
		Title:       tag.Name,
		Description: tag.Description,
		URL:         BuildURL(a.Config.URL, "topics", tag.Slug),
		OGType:      "website",
		Image:       tag.FeatureImage,
	})
	return Render(c, a.Views.Topic(p, tag, posts, credit))
}

func (a *App) handleAbout(c echo.Context) error {
	page, _ := a.Content.PageBySlug(c.Request().Context(), aboutSlug)
	if page == nil {
		return a.renderNotFound(c)
	}
	p := a.page(c, PageMeta{
		Title:       page.Title,
		Description: page.Excerpt,
		URL:         BuildURL(a.Config.URL, aboutSlug),
		OGType:      "website",
		Image:       page.FeatureImage,
	})
	return Render(c, a.Views.About(p, *page))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		tags  []content.Tag
		posts []content.Post
		g     errgroup.Group
	)
	g.Go(func() error {
		tags, _ = a.Content.Tags(ctx)
		return nil
	})
	g.Go(func() error {
		posts, _ = a.Content.Posts(ctx, content.MaxPostLimit)
		return nil
	})
	_ = g.Wait()
	return a.renderSitemap(c, posts, tags)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, _ := a.Content.Posts(c.Request().Context(), content.MaxPostLimit)
	return a.renderRSS(c, posts)
}

// handleRobots generates robots.txt from the site URL.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /preferences/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}

func handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// page assembles the per-request view data.
func (a *App) page(c echo.Context, meta PageMeta) Page {
	prefs := theme.FromContext(c.Request().Context())
	return Page{
		Site:      a.Config,
		Meta:      meta,
		Path:      c.Request().URL.Path,
		CSRFToken: CsrfToken(c),
		Mode:      prefs.Mode(),
		System:    prefs.SystemMode(),
		Team:      prefs.Team(),
		Theme:     prefs.Variables(),
	}
}

func (a *App) renderNotFound(c echo.Context) error {
	p := a.page(c, PageMeta{Title: "Not Found", URL: BuildURL(a.Config.URL, strings.Trim(c.Request().URL.Path, "/"))})
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(p))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.ErrorContext(c.Request().Context(), "server error", "error", err, "path", c.Request().URL.Path)
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, PageMeta{Title: "Server Error"})))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
