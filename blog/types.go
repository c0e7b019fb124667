// Package blog holds the content model, the DataProvider contract and the
// controller that decides which page a blog request renders.
//
// Providers (package github, package localfs) normalize their backing store
// into FileInfo and SourceInfo values. The controller never sees anything
// provider-specific.
package blog

import (
	"sort"
	"time"
)

// CommitInfo describes the most recent change to one file.
type CommitInfo struct {
	Date            time.Time
	AuthorName      string
	AuthorEmail     string // optional
	AuthorUsername  string // optional
	AuthorAvatarURL string // optional
}

// FileInfo is a single article. Path is repo-relative and doubles as the
// route and identity key.
type FileInfo struct {
	Path       string
	Content    string // raw markdown
	SHA        string // git blob SHA or a content hash
	URL        string // human-navigable source link
	CommitInfo CommitInfo
	Title      string
}

// SourceInfo describes the blog owner for the homepage.
type SourceInfo struct {
	Name      string
	Bio       string // optional
	AvatarURL string // optional
	SourceURL string
}

// NewFileInfo builds an article and derives its title from the content.
func NewFileInfo(path, content, sha, url string, commit CommitInfo) FileInfo {
	return FileInfo{
		Path:       path,
		Content:    content,
		SHA:        sha,
		URL:        url,
		CommitInfo: commit,
		Title:      ExtractTitle(content, path),
	}
}

// SortNewestFirst orders articles in place by last commit date, newest
// first. Ties are broken by path.
func SortNewestFirst(articles []FileInfo) {
	sort.SliceStable(articles, func(i, j int) bool {
		di, dj := articles[i].CommitInfo.Date, articles[j].CommitInfo.Date
		if di.Equal(dj) {
			return articles[i].Path < articles[j].Path
		}
		return di.After(dj)
	})
}
