package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/madea/blog"
	"github.com/eringen/madea/httpcache"
)

// Compile-time check: *RESTProvider implements blog.DataProvider.
var _ blog.DataProvider = (*RESTProvider)(nil)

// RESTProvider reads a blog through the GitHub REST API. Listings cost one
// tree request plus a blob and a commit request per article.
type RESTProvider struct {
	gh *gogithub.Client
	repoRef
}

// NewREST builds a RESTProvider.
func NewREST(opts Options) (*RESTProvider, error) {
	opts.setDefaults()
	if opts.Username == "" {
		return nil, fmt.Errorf("%w: github username is required", blog.ErrConfiguration)
	}
	hc, err := opts.httpClient()
	if err != nil {
		return nil, err
	}
	return &RESTProvider{
		gh:      newRESTClient(hc, opts.BaseURL),
		repoRef: repoRef{owner: opts.Username, repo: opts.Repo, webURL: opts.WebURL},
	}, nil
}

// DefaultBranch returns the repository's default branch.
func (p *RESTProvider) DefaultBranch(ctx context.Context) (string, error) {
	r, _, err := p.gh.Repositories.Get(httpcache.WithTTL(ctx, httpcache.TTLRepoMeta), p.owner, p.repo)
	if err != nil {
		return "", classify(err, blog.ErrSourceUnavailable, "get repository %s", p.fullName())
	}
	if b := r.GetDefaultBranch(); b != "" {
		return b, nil
	}
	return blog.DefaultBranchName, nil
}

// ArticleList returns every markdown file on the default branch.
func (p *RESTProvider) ArticleList(ctx context.Context) ([]blog.FileInfo, error) {
	branch, err := p.DefaultBranch(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := p.markdownEntries(ctx, branch)
	if err != nil {
		return nil, err
	}

	files := make([]blog.FileInfo, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateLimit)
	for i, e := range entries {
		g.Go(func() error {
			content, err := p.blob(gctx, e.GetSHA())
			if err != nil {
				return err
			}
			commit, err := p.lastCommit(gctx, branch, e.GetPath())
			if err != nil {
				return err
			}
			files[i] = blog.NewFileInfo(e.GetPath(), content, e.GetSHA(), p.blobURL(branch, e.GetPath()), commit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// markdownEntries lists the blobs of the branch tree that are markdown files.
func (p *RESTProvider) markdownEntries(ctx context.Context, branch string) ([]*gogithub.TreeEntry, error) {
	tree, _, err := p.gh.Git.GetTree(httpcache.WithTTL(ctx, httpcache.TTLContent), p.owner, p.repo, branch, true)
	if err != nil {
		return nil, classify(err, blog.ErrSourceUnavailable, "get tree %s@%s", p.fullName(), branch)
	}
	var out []*gogithub.TreeEntry
	for _, e := range tree.Entries {
		if e.GetType() == "blob" && blog.IsMarkdownFile(e.GetPath()) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (p *RESTProvider) blob(ctx context.Context, sha string) (string, error) {
	b, _, err := p.gh.Git.GetBlob(httpcache.WithTTL(ctx, httpcache.TTLContent), p.owner, p.repo, sha)
	if err != nil {
		return "", classify(err, blog.ErrSourceUnavailable, "get blob %s", sha)
	}
	content, err := decodeContent(b.GetContent(), b.GetEncoding())
	if err != nil {
		return "", fmt.Errorf("%w: decode blob %s: %w", blog.ErrSourceUnavailable, sha, err)
	}
	return content, nil
}

// lastCommit returns the newest commit touching path on branch. A file
// without history gets a zero date and the repository owner as author.
func (p *RESTProvider) lastCommit(ctx context.Context, branch, path string) (blog.CommitInfo, error) {
	commits, _, err := p.gh.Repositories.ListCommits(httpcache.WithTTL(ctx, httpcache.TTLContent), p.owner, p.repo, &gogithub.CommitsListOptions{
		SHA:         branch,
		Path:        path,
		ListOptions: gogithub.ListOptions{PerPage: 1},
	})
	if err != nil {
		return blog.CommitInfo{}, classify(err, blog.ErrSourceUnavailable, "list commits %s:%s", p.fullName(), path)
	}
	if len(commits) == 0 {
		return blog.CommitInfo{AuthorName: p.owner, AuthorUsername: p.owner}, nil
	}
	c := commits[0]
	author := c.GetCommit().GetAuthor()
	return blog.CommitInfo{
		Date:            author.GetDate().Time,
		AuthorName:      author.GetName(),
		AuthorEmail:     author.GetEmail(),
		AuthorUsername:  c.GetAuthor().GetLogin(),
		AuthorAvatarURL: c.GetAuthor().GetAvatarURL(),
	}, nil
}

// Article fetches a single markdown file from the default branch.
func (p *RESTProvider) Article(ctx context.Context, path string) (*blog.FileInfo, error) {
	if !blog.IsMarkdownFile(path) {
		return nil, fmt.Errorf("%w: %s is not a markdown file", blog.ErrNotFound, path)
	}
	branch, err := p.DefaultBranch(ctx)
	if err != nil {
		return nil, err
	}
	fc, _, _, err := p.gh.Repositories.GetContents(httpcache.WithTTL(ctx, httpcache.TTLContent), p.owner, p.repo, path,
		&gogithub.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, classify(err, blog.ErrNotFound, "get contents %s:%s", p.fullName(), path)
	}
	if fc == nil || fc.GetType() != "file" {
		return nil, fmt.Errorf("%w: %s is a directory", blog.ErrNotFound, path)
	}
	content, err := fc.GetContent()
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", blog.ErrSourceUnavailable, path, err)
	}
	commit, err := p.lastCommit(ctx, branch, path)
	if err != nil {
		return nil, err
	}
	fi := blog.NewFileInfo(path, content, fc.GetSHA(), p.blobURL(branch, path), commit)
	return &fi, nil
}

// SourceInfo describes the blog owner from their GitHub profile. Profile
// failures degrade to username-only values.
func (p *RESTProvider) SourceInfo(ctx context.Context) (blog.SourceInfo, error) {
	return userSourceInfo(ctx, p.gh, p.repoRef), nil
}

func userSourceInfo(ctx context.Context, gh *gogithub.Client, ref repoRef) blog.SourceInfo {
	info := blog.SourceInfo{
		Name:      ref.owner,
		AvatarURL: ref.webURL + "/" + ref.owner + ".png",
		SourceURL: ref.sourceURL(),
	}
	u, _, err := gh.Users.Get(httpcache.WithTTL(ctx, httpcache.TTLUser), ref.owner)
	if err != nil {
		return info
	}
	switch {
	case u.GetName() != "":
		info.Name = u.GetName()
	case u.GetLogin() != "":
		info.Name = u.GetLogin()
	}
	info.Bio = u.GetBio()
	if u.GetAvatarURL() != "" {
		info.AvatarURL = u.GetAvatarURL()
	}
	return info
}

func decodeContent(content, encoding string) (string, error) {
	switch encoding {
	case "base64":
		b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "", "utf-8":
		return content, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}
