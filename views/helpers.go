package views

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/madea/blog"
	"github.com/eringen/madea/markdown"
)

// FormatDate renders t as "January 2, 2006", or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// ISODate renders t for a <time datetime> attribute.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ReadingTimeLabel returns "N min read" for content.
func ReadingTimeLabel(content string) string {
	return strconv.Itoa(blog.ReadingTime(content)) + " min read"
}

// ArticlePath returns the site-relative link for a repo-relative path.
func ArticlePath(p string) string {
	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segs, "/")
}

// LinkURL returns raw when it is an absolute http(s) URL, else "".
func LinkURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http", "https":
		return raw
	default:
		return ""
	}
}

// newestFirst returns a sorted copy of articles.
func newestFirst(articles []blog.FileInfo) []blog.FileInfo {
	out := make([]blog.FileInfo, len(articles))
	copy(out, articles)
	blog.SortNewestFirst(out)
	return out
}

// renderMarkdown output is sanitized by the markdown package.
func renderMarkdown(content string) template.HTML {
	return template.HTML(markdown.Render(content))
}
