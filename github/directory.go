package github

import (
	"context"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/eringen/madea/blog"
	"github.com/eringen/madea/httpcache"
)

// BlogListing is one public madea blog found by Directory.
type BlogListing struct {
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	Description   string    `json:"description"`
	URL           string    `json:"url"`
	DefaultBranch string    `json:"defaultBranch"`
	Stars         int       `json:"stars"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Directory discovers every repository named like RepoName.
type Directory struct {
	gh   *gogithub.Client
	repo string
}

// NewDirectory builds a Directory. opts.Username is ignored.
func NewDirectory(opts Options) (*Directory, error) {
	opts.setDefaults()
	hc, err := opts.httpClient()
	if err != nil {
		return nil, err
	}
	return &Directory{gh: newRESTClient(hc, opts.BaseURL), repo: opts.Repo}, nil
}

// List searches GitHub for repositories named exactly like the blog repo,
// ignoring case. Only the first page of 100 results is read.
func (d *Directory) List(ctx context.Context) ([]BlogListing, error) {
	res, _, err := d.gh.Search.Repositories(httpcache.WithTTL(ctx, httpcache.TTLSearch), d.repo+" in:name",
		&gogithub.SearchOptions{ListOptions: gogithub.ListOptions{PerPage: 100}})
	if err != nil {
		return nil, classify(err, blog.ErrSourceUnavailable, "search repositories %q", d.repo)
	}
	out := make([]BlogListing, 0, len(res.Repositories))
	for _, r := range res.Repositories {
		if !strings.EqualFold(r.GetName(), d.repo) {
			continue
		}
		out = append(out, BlogListing{
			Owner:         r.GetOwner().GetLogin(),
			Name:          r.GetName(),
			FullName:      r.GetFullName(),
			Description:   r.GetDescription(),
			URL:           r.GetHTMLURL(),
			DefaultBranch: r.GetDefaultBranch(),
			Stars:         r.GetStargazersCount(),
			UpdatedAt:     r.GetUpdatedAt().Time,
		})
	}
	return out, nil
}
