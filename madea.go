// Package madea serves per-user markdown blogs. Each blog lives at
// <username>.<base domain> and is read from a GitHub repository named
// madea.blog or from a local content directory.
//
// Users provide their own templ components via the ViewFuncs struct, and
// madea handles routing, middleware and the data provider wiring.
package madea

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/madea/blog"
	"github.com/eringen/madea/github"
	"github.com/eringen/madea/metrics"
)

// Page describes the request a view is rendered for.
type Page struct {
	BaseURL string // scheme://host of the blog being served
	Path    string
}

// ViewFuncs holds the templ components the server calls for each outcome.
type ViewFuncs struct {
	Landing     func(page Page) templ.Component
	FileBrowser func(page Page, props blog.FileBrowserProps) templ.Component
	Article     func(page Page, props blog.ArticleProps) templ.Component
	NoRepoFound func(page Page, props blog.NoRepoFoundProps) templ.Component
	NotFound    func(page Page) templ.Component
	ServerError func(page Page) templ.Component
}

// ProviderFactory returns the data provider for one blog owner. It is called
// once per request; implementations share HTTP clients and caches.
type ProviderFactory func(username string) (blog.DataProvider, error)

// Directory lists every published blog.
type Directory interface {
	List(ctx context.Context) ([]github.BlogListing, error)
}

// App is the central madea application. It wires together the provider
// factory, handlers, middleware and user-provided templates.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Views     ViewFuncs
	Providers ProviderFactory
	Logger    *slog.Logger

	directory    Directory
	collector    *metrics.Collector
	gatherer     prometheus.Gatherer
	limiter      *IPLimiter
	customRoutes []func(*App)
	setupOnce    sync.Once
}

// New creates a madea App with the given configuration, views and provider
// factory.
func New(cfg SiteConfig, views ViewFuncs, providers ProviderFactory, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:    cfg,
		Echo:      e,
		Views:     views,
		Providers: providers,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler installs middleware and routes on first use and returns the
// server's http.Handler.
func (a *App) Handler() http.Handler {
	a.setupOnce.Do(func() {
		if a.Config.RateLimitRPS > 0 {
			a.limiter = NewIPLimiter(a.Config.RateLimitRPS, a.Config.RateLimitBurst, a.Config.RateLimitTTL)
		}
		a.setupMiddleware()
		a.setupRoutes()
		for _, fn := range a.customRoutes {
			fn(a)
		}
	})
	return a.Echo
}

// Start installs routes and listens on Config.Addr until Shutdown is called.
func (a *App) Start() error {
	if a.Providers == nil {
		return fmt.Errorf("madea: provider factory is required")
	}
	a.Handler()

	a.Logger.Info("madea listening", "addr", a.Config.Addr, "base_domain", a.Config.BaseDomain)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.StaticFS("/public", echo.MustSubFS(EmbeddedAssets, "embedded"))
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", handleHealthz)
	if a.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(a.gatherer)))
	}
	if a.directory != nil {
		e.GET("/api/all-madea-blogs", a.handleAllBlogs)
	}

	e.GET("/rss.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/", a.handleBlog)
	e.GET("/*", a.handleBlog)
}

// Close releases background resources. Call it after Shutdown.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	return nil
}
