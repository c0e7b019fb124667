package madea

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/eringen/madea/blog"
)

// ArticleURL returns the public URL of the article at the repo-relative
// path p. Each path segment is escaped; no trailing slash is added.
func ArticleURL(base, p string) string {
	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segs, "/")
}

// ProfileJsonLD returns a JSON-LD string for the ProfilePage schema of a
// blog homepage.
func ProfileJsonLD(src blog.SourceInfo, baseURL string) string {
	person := map[string]any{
		"@type": "Person",
		"name":  src.Name,
		"url":   src.SourceURL,
	}
	if src.AvatarURL != "" {
		person["image"] = src.AvatarURL
	}
	if src.Bio != "" {
		person["description"] = src.Bio
	}
	data := map[string]any{
		"@context":   "https://schema.org",
		"@type":      "ProfilePage",
		"url":        baseURL,
		"mainEntity": person,
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(article blog.FileInfo, articleURL string) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    article.Title,
		"description": blog.ExtractDescription(article.Content),
		"url":         articleURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   articleURL,
		},
	}
	if !article.CommitInfo.Date.IsZero() {
		data["dateModified"] = article.CommitInfo.Date.UTC().Format(time.RFC3339)
	}
	if name := article.CommitInfo.AuthorName; name != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  name,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
