// Package views provides the default madea page templates.
//
// Pages are html/template files embedded from templates/ and adapted to
// templ.Component so a site can swap any of them for its own templ
// components.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/eringen/madea"
	"github.com/eringen/madea/blog"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date":        FormatDate,
	"isoDate":     ISODate,
	"readingTime": ReadingTimeLabel,
	"description": blog.ExtractDescription,
	"articlePath": ArticlePath,
	"linkURL":     LinkURL,
	"markdown":    renderMarkdown,
}

var (
	landingPage     = parsePage("landing.html")
	fileBrowserPage = parsePage("file_browser.html")
	articlePage     = parsePage("article.html")
	noRepoPage      = parsePage("no_repo.html")
	statusPage      = parsePage("status.html")
)

func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").Funcs(funcs).
		ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// pageData is passed to layout.html. Body holds the page-specific values.
type pageData struct {
	Site        madea.SiteConfig
	Title       string
	Description string
	OGType      string
	Canonical   string
	Feed        string
	Image       string
	JSONLD      template.JS
	Body        any
}

type fileBrowserBody struct {
	Username string
	Source   blog.SourceInfo
	Articles []blog.FileInfo
}

type articleBody struct {
	Article  blog.FileInfo
	Username string
	Branch   string
}

type statusBody struct {
	Code    int
	Heading string
	Message string
}

func component(t *template.Template, data pageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.Execute(w, data)
	})
}

// Default returns the built-in views for site.
func Default(site madea.SiteConfig) madea.ViewFuncs {
	if site.Name == "" {
		site.Name = "madea"
	}
	if site.BaseDomain == "" {
		site.BaseDomain = "madea.blog"
	}

	return madea.ViewFuncs{
		Landing: func(page madea.Page) templ.Component {
			return component(landingPage, pageData{
				Site:        site,
				Title:       site.Name + " | blogs from markdown on GitHub",
				Description: "Turn a GitHub repository named " + site.BaseDomain + " into a blog.",
				OGType:      "website",
				Canonical:   page.BaseURL,
			})
		},
		FileBrowser: func(page madea.Page, p blog.FileBrowserProps) templ.Component {
			name := p.SourceInfo.Name
			if name == "" {
				name = p.Username
			}
			desc := p.SourceInfo.Bio
			if desc == "" {
				desc = name + "'s blog on " + site.Name
			}
			return component(fileBrowserPage, pageData{
				Site:        site,
				Title:       name + "'s Blog",
				Description: desc,
				OGType:      "website",
				Canonical:   page.BaseURL,
				Feed:        page.BaseURL + "/rss.xml",
				Image:       p.SourceInfo.AvatarURL,
				JSONLD:      template.JS(madea.ProfileJsonLD(p.SourceInfo, page.BaseURL)),
				Body: fileBrowserBody{
					Username: p.Username,
					Source:   p.SourceInfo,
					Articles: newestFirst(p.Articles),
				},
			})
		},
		Article: func(page madea.Page, p blog.ArticleProps) templ.Component {
			url := madea.ArticleURL(page.BaseURL, p.Article.Path)
			return component(articlePage, pageData{
				Site:        site,
				Title:       p.Article.Title,
				Description: blog.ExtractDescription(p.Article.Content),
				OGType:      "article",
				Canonical:   url,
				Feed:        page.BaseURL + "/rss.xml",
				Image:       p.Article.CommitInfo.AuthorAvatarURL,
				JSONLD:      template.JS(madea.BlogPostingJsonLD(p.Article, url)),
				Body:        articleBody{Article: p.Article, Username: p.Username, Branch: p.Branch},
			})
		},
		NoRepoFound: func(page madea.Page, p blog.NoRepoFoundProps) templ.Component {
			return component(noRepoPage, pageData{
				Site:      site,
				Title:     "No blog found for " + p.Username,
				OGType:    "website",
				Canonical: page.BaseURL,
				Body:      p,
			})
		},
		NotFound: func(page madea.Page) templ.Component {
			return component(statusPage, pageData{
				Site:      site,
				Title:     "Page not found",
				OGType:    "website",
				Canonical: page.BaseURL + page.Path,
				Body: statusBody{
					Code:    http.StatusNotFound,
					Heading: "Page not found",
					Message: "The article you are looking for does not exist or has moved.",
				},
			})
		},
		ServerError: func(page madea.Page) templ.Component {
			return component(statusPage, pageData{
				Site:      site,
				Title:     "Something went wrong",
				OGType:    "website",
				Canonical: page.BaseURL + page.Path,
				Body: statusBody{
					Code:    http.StatusInternalServerError,
					Heading: "Something went wrong",
					Message: "Please try again in a moment.",
				},
			})
		},
	}
}
