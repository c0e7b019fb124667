package madea

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/madea/blog"
	"github.com/eringen/madea/github"
)

func (a *App) page(c echo.Context) Page {
	return Page{
		BaseURL: c.Scheme() + "://" + c.Request().Host,
		Path:    c.Request().URL.Path,
	}
}

// provider builds the data provider for username, wrapped with metrics when
// a collector is configured.
func (a *App) provider(username string) (blog.DataProvider, error) {
	p, err := a.Providers(username)
	if err != nil {
		return nil, err
	}
	if a.collector != nil {
		p = blog.Instrument(p, a.collector)
	}
	return p, nil
}

func (a *App) blogViews(page Page) blog.Views[templ.Component] {
	return blog.Views[templ.Component]{
		Landing: func(blog.LandingProps) templ.Component {
			return a.Views.Landing(page)
		},
		FileBrowser: func(p blog.FileBrowserProps) templ.Component {
			return a.Views.FileBrowser(page, p)
		},
		Article: func(p blog.ArticleProps) templ.Component {
			return a.Views.Article(page, p)
		},
		NoRepoFound: func(p blog.NoRepoFoundProps) templ.Component {
			return a.Views.NoRepoFound(page, p)
		},
	}
}

func (a *App) handleBlog(c echo.Context) error {
	req := c.Request()
	page := a.page(c)
	username, ok := a.username(req.Host)

	var provider blog.DataProvider
	if ok {
		p, err := a.provider(username)
		if err != nil {
			return err
		}
		provider = p
	}

	out, cmp, found := blog.RenderMadeaBlog(req.Context(), blog.Config[templ.Component]{
		Provider: provider,
		Username: username,
		Views:    a.blogViews(page),
		Logger:   a.Logger,
	}, req.URL.Path, blog.Options{HasUsername: ok})

	if a.collector != nil {
		a.collector.ObserveOutcome(string(out.Kind()))
	}
	if !found {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(page))
	}
	return Render(c, cmp)
}

type blogsResponse struct {
	Total int                  `json:"total"`
	Blogs []github.BlogListing `json:"blogs"`
}

func (a *App) handleAllBlogs(c echo.Context) error {
	blogs, err := a.directory.List(c.Request().Context())
	if err != nil {
		a.Logger.Error("list madea blogs", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch repositories"})
	}
	if blogs == nil {
		blogs = []github.BlogListing{}
	}
	return c.JSON(http.StatusOK, blogsResponse{Total: len(blogs), Blogs: blogs})
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nSitemap: " + a.page(c).BaseURL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func handleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c)))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c)))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
