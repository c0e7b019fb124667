package madea

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/madea/blog"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

// handleSitemap lists the blog root and every article. Provider failures
// degrade to the root entry alone.
func (a *App) handleSitemap(c echo.Context) error {
	base := a.page(c).BaseURL
	urls := []sitemapURL{{Loc: base, ChangeFreq: "daily", Priority: 1}}

	if username, ok := a.username(c.Request().Host); ok {
		urls = append(urls, a.articleURLs(c, username, base)...)
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

func (a *App) articleURLs(c echo.Context, username, base string) []sitemapURL {
	p, err := a.provider(username)
	if err != nil {
		a.Logger.Error("sitemap provider", "username", username, "error", err)
		return nil
	}
	articles, err := p.ArticleList(c.Request().Context())
	if err != nil {
		a.Logger.Warn("sitemap articles unavailable", "username", username, "error", err)
		return nil
	}
	blog.SortNewestFirst(articles)

	urls := make([]sitemapURL, 0, len(articles))
	for _, art := range articles {
		u := sitemapURL{Loc: ArticleURL(base, art.Path), ChangeFreq: "weekly", Priority: 0.8}
		if !art.CommitInfo.Date.IsZero() {
			u.LastMod = art.CommitInfo.Date.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	return urls
}
