package madea

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/madea/blog"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	DCNS    string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Generator     string    `xml:"generator"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	Creator     string  `xml:"dc:creator"`
}

func (a *App) handleFeed(c echo.Context) error {
	username, ok := a.username(c.Request().Host)
	if !ok {
		return c.String(http.StatusNotFound, "RSS feed not available")
	}
	p, err := a.provider(username)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	articles, err := p.ArticleList(ctx)
	if err != nil {
		a.Logger.Warn("rss feed unavailable", "username", username, "error", err)
		return c.String(http.StatusInternalServerError, "Error generating RSS feed")
	}
	author := username
	if src, err := p.SourceInfo(ctx); err == nil && src.Name != "" {
		author = src.Name
	}
	blog.SortNewestFirst(articles)

	base := a.page(c).BaseURL
	items := make([]rssItem, 0, len(articles))
	for _, art := range articles {
		link := ArticleURL(base, art.Path)
		items = append(items, rssItem{
			Title:       art.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Description: blog.ExtractDescription(art.Content),
			PubDate:     art.CommitInfo.Date.UTC().Format(time.RFC1123Z),
			Creator:     author,
		})
	}
	feed := rssXML{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		DCNS:    "http://purl.org/dc/elements/1.1/",
		Channel: rssChannel{
			Title:         author + "'s Blog",
			Link:          base,
			Description:   author + "'s blog powered by " + a.Config.BaseDomain,
			Language:      "en-US",
			LastBuildDate: time.Now().UTC().Format(time.RFC1123Z),
			AtomLink:      atomLink{Href: base + "/rss.xml", Rel: "self", Type: "application/rss+xml"},
			Generator:     a.Config.Name,
			Items:         items,
		},
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
