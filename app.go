// Package tableovertwo serves the Table Over Two motocross publication from a
// headless content API, built with Go, Echo, and templ.
//
// Callers provide the page templates via the ViewFuncs struct; the package
// handles routing, middleware, reader preferences, RSS and the sitemap.
package tableovertwo

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AaronRDurant/table-over-two/content"
	"github.com/AaronRDurant/table-over-two/store"
)

// Content is the read side of the content API used by the handlers.
// *content.Client satisfies it.
type Content interface {
	Posts(ctx context.Context, limit int) ([]content.Post, error)
	PostBySlug(ctx context.Context, slug string) (*content.Post, error)
	PageBySlug(ctx context.Context, slug string) (*content.Page, error)
	PostsByTag(ctx context.Context, tagSlug string, limit int) ([]content.Post, error)
	Tags(ctx context.Context) ([]content.Tag, error)
}

// ViewFuncs holds the templ components the server calls when rendering pages.
type ViewFuncs struct {
	Home        func(p Page, posts []content.Post) templ.Component
	Article     func(p Page, post content.Post) templ.Component
	Archive     func(p Page, years []content.YearGroup) templ.Component
	Topics      func(p Page, tags []content.Tag, byTag map[string][]content.Post) templ.Component
	Topic       func(p Page, tag content.Tag, posts []content.Post, credit string) templ.Component
	About       func(p Page, page content.Page) templ.Component
	NotFound    func(p Page) templ.Component
	ServerError func(p Page) templ.Component
}

// App wires the content client, preference storage, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Content Content
	Credits content.CreditsSource
	Prefs   *store.Store // nil keeps preferences in the session cookie
	Views   ViewFuncs
	Logger  *slog.Logger

	prefLimiter  *Limiter
	prefMax      int
	prefWindow   time.Duration
	customRoutes []func(*App)
	staticDir    string
	setupOnce    sync.Once
}

// New creates an App. Photo credits default to the post named by
// cfg.PhotoCreditsSlug.
func New(cfg SiteConfig, c Content, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:     cfg,
		Echo:       echo.New(),
		Content:    c,
		Views:      views,
		Logger:     slog.Default(),
		prefMax:    20,
		prefWindow: time.Minute,
		staticDir:  "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Credits == nil {
		a.Credits = content.PostCredits{Posts: c, Slug: cfg.PhotoCreditsSlug, Logger: a.Logger}
	}
	return a
}

// Handler sets up middleware and routes once and returns the server handler.
func (a *App) Handler() http.Handler {
	a.setupOnce.Do(func() {
		a.prefLimiter = NewLimiter(a.prefMax, a.prefWindow)
		a.setupMiddleware()
		a.setupRoutes()
		for _, fn := range a.customRoutes {
			fn(a)
		}
	})
	return a.Echo
}

// Start validates the configuration and serves until the server is closed.
func (a *App) Start() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("tableovertwo: SessionSecret is required")
	}
	if a.Content == nil {
		return fmt.Errorf("tableovertwo: content client is required")
	}
	a.Handler()

	a.Logger.Info("listening", slog.String("addr", a.Config.Addr), slog.String("site", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	for _, name := range embeddedFiles {
		e.GET("/public/"+name, embeddedHandler)
	}
	e.Static("/public", a.staticDir)
	e.GET("/favicon.ico", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/public/favicon.svg")
	})
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/healthz", handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/", a.handleHome)
	e.GET("/archive/", a.handleArchive)
	e.GET("/topics/", a.handleTopics)
	e.GET("/topics/:tagSlug/", a.handleTopic)
	e.GET("/about/", a.handleAbout)
	e.GET("/:slug/", a.handleArticle)

	prefs := e.Group("/preferences", a.limitPreferences)
	prefs.POST("/theme/", a.handleThemePreference)
	prefs.POST("/team/", a.handleTeamPreference)
	prefs.POST("/reset/", a.handleResetPreferences)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Prefs != nil {
		return a.Prefs.Close()
	}
	return nil
}
